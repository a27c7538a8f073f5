package cli

import (
	"fmt"

	"curator/internal"
	"curator/pkg/curation"

	"github.com/spf13/cobra"
)

func newCleanupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale repositories and write the author notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.githubClient(ctx)
			if err != nil {
				return err
			}
			policy, err := internal.NewStalenessPolicy(a.cfg.Policy, internal.NewLogger("policy"))
			if err != nil {
				return err
			}
			observers, release, err := a.observers()
			if err != nil {
				return err
			}
			defer release()

			cleaner := curation.NewCleaner(a.store(), client,
				curation.WithPolicy(policy),
				curation.WithOrganizations(a.cfg.Organizations...),
				curation.WithLogger(internal.NewLogger("cleanup")),
				curation.WithObserver(observers...),
			)
			report, err := cleaner.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "run %s: evaluated=%d removed=%d backfilled=%d healed=%d graced=%d\n",
				report.RunID, report.Evaluated, len(report.Removed), len(report.Backfilled), len(report.Healed), report.Graced)
			for _, record := range report.Removed {
				_, _ = fmt.Fprintf(out, "removed %s (%s)\n", record.Repository, record.RemovalType)
			}
			if line := report.Notification(); line != "" {
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	return cmd
}
