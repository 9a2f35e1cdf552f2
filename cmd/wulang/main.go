package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	run := newRunCmd()
	cmd := &cobra.Command{
		Use:          "wulang",
		Short:        "WhatsApp team assistant",
		Long:         "wulang answers team messages that mention it and posts scheduled task reminders to the team group.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run.RunE,
	}

	cmd.AddCommand(run)
	cmd.AddCommand(newRemindCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newServiceCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wulang %s (commit: %s)\n", Version, Commit)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
