package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"curator/pkg/checks"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the curator command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "curator",
		Short:         "curator maintains the repository index data files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", os.Getenv("CURATOR_CONFIG"), "Path to curator.yaml (env: CURATOR_CONFIG)")
	flags.StringVar(&a.dataDir, "data-dir", "", "Directory holding the index files (overrides data_dir)")
	flags.StringVar(&a.outputDir, "output-dir", "", "Directory receiving the author notification (overrides output_dir)")

	cmd.AddCommand(newCleanupCmd(a))
	cmd.AddCommand(newRemoveCmd(a))
	cmd.AddCommand(newRemovePublishersCmd(a))
	cmd.AddCommand(newGraceCmd(a))
	cmd.AddCommand(newSortCmd(a))
	cmd.AddCommand(newIsSortedCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newChangedCmd(a))
	cmd.AddCommand(newHistoryCmd(a))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, version string, args []string) int {
	cmd := NewRootCmd(version)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	printError(cmd.ErrOrStderr(), err)
	return ExitCode(err)
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var failure *checks.Failure
	if errors.As(err, &failure) {
		return failure.ExitCode()
	}
	return 1
}

func printError(w io.Writer, err error) {
	var failure *checks.Failure
	if errors.As(err, &failure) && failure.Neutral {
		_, _ = fmt.Fprintln(w, failure.Message)
		return
	}
	_, _ = fmt.Fprintf(w, "::error::%v\n", err)
}
