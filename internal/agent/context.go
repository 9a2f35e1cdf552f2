package agent

import (
	"context"
	"fmt"

	"github.com/chris/wulang/internal/llm"
)

// MaxHistory is how many past exchanges ride along with each prompt.
const MaxHistory = 5

// Assembler builds the bounded message window for one turn.
type Assembler struct {
	history      *History
	systemPrompt string
	maxHistory   int
}

func NewAssembler(h *History, systemPrompt string) *Assembler {
	return &Assembler{history: h, systemPrompt: systemPrompt, maxHistory: MaxHistory}
}

// Build returns system, then each past exchange as a user/assistant pair
// oldest first, then the current message. Its length is always 2k+2 where k
// is the number of past exchanges used, at most MaxHistory.
func (a *Assembler) Build(ctx context.Context, sender, text string) []llm.Message {
	recs := a.history.FetchRecent(ctx, sender, a.maxHistory)

	msgs := make([]llm.Message, 0, 2*len(recs)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	for _, r := range recs {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: r.Request},
			llm.Message{Role: llm.RoleAssistant, Content: r.Response},
		)
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: text})
}

// ReminderWindow is the history-free window for a scheduled reminder.
func ReminderWindow(name string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: llm.ReminderSystemPrompt},
		{Role: llm.RoleUser, Content: BuildReminderPrompt(name)},
	}
}

// BuildReminderPrompt asks for a one-paragraph nudge for one person.
func BuildReminderPrompt(name string) string {
	return fmt.Sprintf("tolong mengingatkan %s untuk melakukan tugas, dalam 1 paragraf", name)
}
