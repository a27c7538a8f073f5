package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChangedCmd(a *app) *cobra.Command {
	var (
		baseDir      string
		showCategory bool
	)

	cmd := &cobra.Command{
		Use:   "changed",
		Short: "Print the single repository added relative to a base checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseDir == "" {
				baseDir = a.cfg.Checks.BaseDir
			}
			category, repo, err := a.changedRepository(baseDir)
			if err != nil {
				return err
			}
			if showCategory {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), category)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), repo)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Base index checkout (default checks.base_dir)")
	cmd.Flags().BoolVar(&showCategory, "category", false, "Print the category instead of the repository")
	return cmd
}
