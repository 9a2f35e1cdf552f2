package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chris/wulang/internal/agent"
	"github.com/chris/wulang/internal/bot"
	"github.com/chris/wulang/internal/discord"
	"github.com/chris/wulang/internal/llm"
	"github.com/chris/wulang/internal/scheduler"
	"github.com/chris/wulang/internal/whatsapp"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to WhatsApp and serve messages and reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBot(ctx)
		},
	}
}

func runBot(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	a.seedPersons(ctx)

	history := agent.NewHistory(a.db)
	assembler := agent.NewAssembler(history, llm.SystemPrompt)
	tools := a.chatTools()
	filter := bot.NewFilter(a.cfg.TriggerKeyword, a.cfg.Roster.Allowlist)

	wa, err := whatsapp.New(ctx, a.cfg.WhatsAppSessionPath, a.cfg.WhatsAppLogLevel)
	if err != nil {
		return err
	}
	waTurns := bot.NewDispatcher(ctx, filter, bot.New(assembler, a.agent, tools, history, wa).HandleTurn)
	wa.OnEvent(func(ev bot.Event) { waTurns.Dispatch(ev) })
	if err := wa.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to WhatsApp: %w", err)
	}
	defer wa.Disconnect()

	if a.cfg.DiscordToken != "" {
		dc, err := discord.NewBot(a.cfg.DiscordToken, a.cfg.TriggerKeyword)
		if err != nil {
			return err
		}
		dcTurns := bot.NewDispatcher(ctx, filter, bot.New(assembler, a.agent, tools, history, dc).HandleTurn)
		dc.OnEvent(func(ev bot.Event) { dcTurns.Dispatch(ev) })
		if err := dc.Open(); err != nil {
			return err
		}
		defer dc.Close()
	}

	composer := scheduler.New(a.agent, a.db, agent.ClockTool(a.loc, nil), a.cfg.Roster, wa, a.loc)
	if err := composer.Start(a.cfg.ReminderCron); err != nil {
		return err
	}
	defer composer.Stop()

	log.Printf("bot is running as %q. Press Ctrl+C to exit.", a.cfg.TriggerKeyword)
	<-ctx.Done()
	log.Println("shutting down.")
	return nil
}
