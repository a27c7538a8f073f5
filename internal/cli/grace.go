package cli

import (
	"fmt"
	"time"

	"curator/pkg/curation"

	"github.com/spf13/cobra"
)

func newGraceCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "grace <repository>",
		Short: "Protect a repository from stale removal for a while",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := curation.ParseRepositoryID(args[0])
			if err != nil {
				return err
			}
			if days <= 0 {
				days = a.cfg.Policy.GraceDays
			}

			store := a.store()
			grace, err := store.LoadGrace()
			if err != nil {
				return err
			}
			entry := grace.Grant(repo, time.Now(), time.Duration(days)*24*time.Hour)
			if err := store.SaveGrace(grace); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s graced until %s (count %d)\n",
				repo, entry.UntilTime().UTC().Format(time.RFC3339), entry.Count)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Grace period in days (default policy.grace_days)")
	return cmd
}
