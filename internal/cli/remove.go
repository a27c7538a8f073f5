package cli

import (
	"fmt"

	"curator/pkg/curation"

	"github.com/spf13/cobra"
)

func newRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <repository> <removal_type> [reason] [link]",
		Short: "Remove a repository from the index and blacklist it",
		Long: "Remove a repository from its category, add it to the blacklist and append a record to the removed ledger.\n" +
			"removal_type is one of stale, blacklist or removal.",
		Args: cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := curation.ParseRepositoryID(args[0])
			if err != nil {
				return err
			}
			kind, err := curation.ParseRemovalType(args[1])
			if err != nil {
				return err
			}
			req := curation.RemovalRequest{Repository: repo, Type: kind}
			if len(args) > 2 {
				req.Reason = args[2]
			}
			if len(args) > 3 {
				req.Link = args[3]
			}

			store := a.store()
			stores, err := store.Load()
			if err != nil {
				return err
			}
			outcome, err := curation.RemoveRepository(stores, req, a.cfg.Organizations)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Category != "" {
				_, _ = fmt.Fprintf(out, "Found in %s\n", outcome.Category)
			}
			if outcome.AlreadyRemoved {
				_, _ = fmt.Fprintf(out, "%s has already been removed\n", repo)
				if outcome.Category == "" {
					return nil
				}
			}
			return store.SaveIndex(stores)
		},
	}
	return cmd
}

func newRemovePublishersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-publishers",
		Short: "Remove every repository of the configured banned publishers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			stores, err := store.Load()
			if err != nil {
				return err
			}
			records := curation.RemovePublishers(stores, a.cfg.Publishers)
			out := cmd.OutOrStdout()
			for _, record := range records {
				_, _ = fmt.Fprintf(out, "Removed %s\n", record.Repository)
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, "No repositories of banned publishers found")
				return nil
			}
			return store.SaveIndex(stores)
		},
	}
	return cmd
}
