package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/wulang/internal/agent"
	"github.com/chris/wulang/internal/scheduler"
	"github.com/chris/wulang/internal/whatsapp"
	"github.com/spf13/cobra"
)

func newRemindCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Compose and send one round of task reminders now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var send scheduler.Sender = printSender{w: cmd.OutOrStdout()}
			if !dryRun {
				wa, err := whatsapp.New(ctx, a.cfg.WhatsAppSessionPath, a.cfg.WhatsAppLogLevel)
				if err != nil {
					return err
				}
				if err := wa.Connect(ctx); err != nil {
					return fmt.Errorf("connecting to WhatsApp: %w", err)
				}
				defer wa.Disconnect()
				waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				if err := wa.WaitConnected(waitCtx); err != nil {
					return err
				}
				send = wa
			}

			composer := scheduler.New(a.agent, a.db, agent.ClockTool(a.loc, nil), a.cfg.Roster, send, a.loc)
			return composer.Fire(ctx)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print reminders instead of sending them")
	return cmd
}

// printSender writes reminders to the terminal.
type printSender struct {
	w io.Writer
}

func (p printSender) Send(_ context.Context, to, text string) error {
	_, err := fmt.Fprintf(p.w, "--- to %s ---\n%s\n\n", to, text)
	return err
}
