package cli

import (
	"errors"
	"strconv"
	"time"

	"curator/pkg/storage/history"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded cleanup passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.History.DSN == "" {
				return errors.New("history.dsn is not configured")
			}
			store, err := history.Open(a.cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if runID != "" {
				entries, err := store.Removals(ctx, runID)
				if err != nil {
					return err
				}
				table := NewTableData("REPOSITORY", "TYPE", "REASON", "LINK", "BACKFILLED")
				for _, e := range entries {
					table.AddRow(e.Repository, e.RemovalType, e.Reason, e.Link, strconv.FormatBool(e.Backfilled))
				}
				return PrintTable(out, table)
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			table := NewTableData("RUN", "STARTED", "DURATION", "EVALUATED", "REMOVED", "BACKFILLED", "HEALED", "GRACED", "AUTHORS")
			for _, run := range runs {
				table.AddRow(
					run.RunID,
					run.StartedAt.UTC().Format(time.RFC3339),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
					strconv.Itoa(run.Evaluated),
					strconv.Itoa(run.Removed),
					strconv.Itoa(run.Backfilled),
					strconv.Itoa(run.Healed),
					strconv.Itoa(run.Graced),
					run.Authors,
				)
			}
			return PrintTable(out, table)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the removals of one run")
	return cmd
}
