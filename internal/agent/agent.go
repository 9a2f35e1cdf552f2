package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/chris/wulang/internal/llm"
)

// DefaultMaxRounds caps provider calls per generation.
const DefaultMaxRounds = 5

// ErrGeneration marks a provider-level failure. It is the one error a turn
// does not absorb.
var ErrGeneration = errors.New("generation failed")

type Agent struct {
	client    llm.Client
	maxRounds int
}

func New(client llm.Client, maxRounds int) *Agent {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Agent{client: client, maxRounds: maxRounds}
}

func (a *Agent) MaxRounds() int { return a.maxRounds }

// Run drives the tool-calling loop over window. A leading system message is
// sent as the system prompt. Each round is one provider call; tool calls in
// it are executed through tools and fed back. When the model answers without
// tool calls its text is returned. When the round budget runs out, the last
// text seen is returned, possibly empty.
func (a *Agent) Run(ctx context.Context, window []llm.Message, tools *Registry) (string, error) {
	var systemPrompt string
	messages := make([]llm.Message, 0, len(window)+2*a.maxRounds)
	for i, m := range window {
		if i == 0 && m.Role == llm.RoleSystem {
			systemPrompt = m.Content
			continue
		}
		messages = append(messages, m)
	}
	if tools == nil {
		tools = NewRegistry()
	}
	defs := tools.Definitions()

	var last string
	for round := 1; round <= a.maxRounds; round++ {
		log.Printf("agent: round %d/%d, ~%d prompt tokens", round, a.maxRounds, llm.EstimateRequestTokens(systemPrompt, messages, defs))

		resp, err := a.client.Chat(ctx, systemPrompt, messages, defs)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		if resp.Content != "" {
			last = resp.Content
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			result := tools.Execute(ctx, tc.Name, tc.Params)
			log.Printf("tool %s → %s", tc.Name, truncate(result, 200))
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	log.Printf("agent: round budget of %d exhausted", a.maxRounds)
	return last, nil
}
