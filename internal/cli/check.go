package cli

import (
	"fmt"
	"os"

	"curator/pkg/checks"
	"curator/pkg/curation"
	"curator/pkg/datastore"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	var repository string

	cmd := &cobra.Command{
		Use:       "check <existing|removed|archived|fork|releases>",
		Short:     "Run a gate against the repository proposed for the index",
		Long:      "Run a gate against a repository. The repository comes from --repository, $REPOSITORY, the workflow event at $GITHUB_EVENT_PATH, or the single addition relative to checks.base_dir, in that order.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: checks.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			repo, err := a.resolveRepository(repository)
			if err != nil {
				return err
			}

			var (
				stores   *curation.Stores
				provider checks.Provider
			)
			switch name {
			case "existing", "removed":
				stores, err = a.store().Load()
			default:
				provider, err = a.githubClient(ctx)
			}
			if err != nil {
				return err
			}

			msg, err := checks.Run(ctx, name, stores, provider, repo)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repository, "repository", "r", "", "Repository to check (owner/name)")
	return cmd
}

func (a *app) resolveRepository(flag string) (curation.RepositoryID, error) {
	if flag != "" {
		return curation.ParseRepositoryID(flag)
	}
	if env := os.Getenv("REPOSITORY"); env != "" {
		return curation.ParseRepositoryID(env)
	}
	if path := os.Getenv("GITHUB_EVENT_PATH"); path != "" {
		return checks.RepositoryFromEvent(path, a.cfg.Checks.EventRepositoryPath)
	}
	_, repo, err := a.changedRepository(a.cfg.Checks.BaseDir)
	return repo, err
}

func (a *app) changedRepository(baseDir string) (curation.Category, curation.RepositoryID, error) {
	base, err := datastore.New(baseDir, "").LoadCategories()
	if err != nil {
		return "", "", fmt.Errorf("base index: %w", err)
	}
	head, err := a.store().LoadCategories()
	if err != nil {
		return "", "", err
	}
	return curation.ChangedRepository(base, head)
}
