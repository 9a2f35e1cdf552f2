package agent

import (
	"context"
	"log"

	"github.com/chris/wulang/internal/db"
)

// ChatLog is the persistence the history adapter sits on.
type ChatLog interface {
	AppendChat(ctx context.Context, rec db.ChatRecord) (int64, error)
	RecentDeliveredChats(ctx context.Context, sender string, limit int) ([]db.ChatRecord, error)
}

// History is best-effort conversation memory. Store failures are logged and
// swallowed: a turn without history or without a record still gets answered.
type History struct {
	log ChatLog
}

func NewHistory(l ChatLog) *History {
	return &History{log: l}
}

// Append persists rec, logging instead of returning errors.
func (h *History) Append(ctx context.Context, rec db.ChatRecord) {
	if _, err := h.log.AppendChat(ctx, rec); err != nil {
		log.Printf("history: saving chat for %s: %v", rec.SenderID, err)
	}
}

// FetchRecent returns up to limit delivered exchanges for sender, oldest
// first, or nothing if the store is unavailable.
func (h *History) FetchRecent(ctx context.Context, sender string, limit int) []db.ChatRecord {
	recs, err := h.log.RecentDeliveredChats(ctx, sender, limit)
	if err != nil {
		log.Printf("history: fetching chat history for %s: %v", sender, err)
		return nil
	}
	out := recs[:0]
	for _, r := range recs {
		if r.Delivered && r.Response != "" {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
