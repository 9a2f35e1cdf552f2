package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chris/wulang/config"
	"github.com/chris/wulang/internal/agent"
	"github.com/robfig/cron/v3"
)

var errEmptyReminder = errors.New("empty reminder")

// Sender delivers a message to a chat.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Composer posts one reminder per roster person to the team chat on a cron
// schedule.
type Composer struct {
	cron   *cron.Cron
	agent  *agent.Agent
	tasks  agent.TaskStore
	clock  agent.Tool
	roster config.Roster
	loc    *time.Location
	send   Sender
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(ag *agent.Agent, tasks agent.TaskStore, clock agent.Tool, roster config.Roster, send Sender, loc *time.Location) *Composer {
	return &Composer{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		agent:  ag,
		tasks:  tasks,
		clock:  clock,
		roster: roster,
		loc:    loc,
		send:   send,
		sleep:  sleepCtx,
	}
}

// Start registers the reminder run under spec and starts the timer.
func (c *Composer) Start(spec string) error {
	if _, err := c.cron.AddFunc(spec, func() {
		if err := c.Fire(context.Background()); err != nil {
			log.Printf("scheduler: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder cron %q: %w", spec, err)
	}
	c.cron.Start()
	log.Printf("scheduler started (%s, %s)", spec, c.cron.Location())
	return nil
}

func (c *Composer) Stop() {
	c.cron.Stop()
}

// Fire runs one reminder pass over the roster in order. The first person
// whose reminder cannot be composed or sent ends the pass. A pause only
// separates two reminders, so the last person's is never slept.
func (c *Composer) Fire(ctx context.Context) error {
	for i, p := range c.roster.People {
		label := fmt.Sprintf("scheduler[%s]", p.ID)

		tools := agent.NewRegistry(c.clock, agent.PersonTodoTool(c.tasks, c.loc, p.ID, p.Name))
		text, err := c.agent.Run(ctx, agent.ReminderWindow(p.Name), tools)
		if err == nil && text == "" {
			err = errEmptyReminder
		}
		if err != nil {
			return fmt.Errorf("%s: composing reminder: %w", label, err)
		}
		if err := c.send.Send(ctx, c.roster.ReminderDestination, text); err != nil {
			return fmt.Errorf("%s: sending reminder: %w", label, err)
		}
		log.Printf("%s: reminder sent", label)

		if p.Pause > 0 && i < len(c.roster.People)-1 {
			if err := c.sleep(ctx, p.Pause); err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
