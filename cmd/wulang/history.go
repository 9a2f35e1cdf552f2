package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chris/wulang/config"
	"github.com/chris/wulang/internal/db"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [sender]",
		Short: "Show logged chat turns, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DatabaseDriver, cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			var sender string
			if len(args) == 1 {
				sender = args[0]
			}
			recs, err := database.ListChats(cmd.Context(), sender, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), recs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of turns to show")
	return cmd
}

func printHistory(w io.Writer, recs []db.ChatRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "no chats logged")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCHAT\tSTATUS\tMESSAGE\tREPLY")
	for _, r := range recs {
		status := "sent"
		reply := r.Response
		if !r.Delivered {
			status = "failed"
			reply = r.FailureReason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.SenderID, status, oneLine(r.Request, 40), oneLine(reply, 60))
	}
	tw.Flush()
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
