package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chris/wulang/config"
	"github.com/chris/wulang/internal/agent"
	"github.com/chris/wulang/internal/db"
	"github.com/chris/wulang/internal/llm"
)

// app holds what every command that talks to the model needs.
type app struct {
	cfg   *config.Config
	db    *db.DB
	agent *agent.Agent
	loc   *time.Location
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DatabaseDriver, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	apiKey := cfg.OpenAIKey
	if cfg.LLMProvider == "anthropic" {
		apiKey = cfg.AnthropicKey
	}
	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    apiKey,
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.OllamaBaseURL,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	return &app{
		cfg:   cfg,
		db:    database,
		agent: agent.New(client, cfg.MaxToolRounds),
		loc:   loc,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

// chatTools is what the model may use when answering a message.
func (a *app) chatTools() *agent.Registry {
	reg := agent.NewRegistry(
		agent.ClockTool(a.loc, nil),
		agent.TaskQueryTool(a.db, a.loc, nil),
	)
	if a.cfg.AllowRawQuery {
		log.Println("raw SQL tool enabled")
		reg.Register(agent.RawQueryTool(a.db))
	}
	return reg
}

// seedPersons makes sure every reminder target has a persons row.
func (a *app) seedPersons(ctx context.Context) {
	known, err := a.db.ListPersons(ctx)
	if err != nil {
		log.Printf("listing persons: %v", err)
		return
	}
	have := make(map[string]bool, len(known))
	for _, p := range known {
		have[p.PersonID] = true
	}
	for _, p := range a.cfg.Roster.People {
		if have[p.ID] {
			continue
		}
		if err := a.db.UpsertPerson(ctx, db.Person{PersonID: p.ID}); err != nil {
			log.Printf("seeding person %s: %v", p.ID, err)
		}
	}
}
