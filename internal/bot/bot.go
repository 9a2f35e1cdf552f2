package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chris/wulang/internal/agent"
	"github.com/chris/wulang/internal/db"
	"github.com/google/uuid"
)

// Apology is sent in place of a reply the model could not produce.
const Apology = "Maaf, terjadi kesalahan saat memproses pesan Anda. Silakan coba lagi nanti."

// ErrEmptyReply means generation finished without any text to send.
var ErrEmptyReply = errors.New("empty reply")

// Replier answers an event on the transport it came from, quoting it.
type Replier interface {
	Reply(ctx context.Context, ev Event, text string) error
}

type Bot struct {
	assembler *agent.Assembler
	agent     *agent.Agent
	tools     *agent.Registry
	history   *agent.History
	replier   Replier
	now       func() time.Time
}

func New(assembler *agent.Assembler, ag *agent.Agent, tools *agent.Registry, history *agent.History, replier Replier) *Bot {
	return &Bot{
		assembler: assembler,
		agent:     ag,
		tools:     tools,
		history:   history,
		replier:   replier,
		now:       time.Now,
	}
}

// HandleTurn answers one accepted event and records the outcome. It never
// returns an error: failures end in an apology and an undelivered record.
func (b *Bot) HandleTurn(ctx context.Context, ev Event) {
	rec := db.ChatRecord{
		TurnID:    uuid.NewString(),
		SenderID:  ev.ConversationKey(),
		Request:   ev.Body,
		CreatedAt: b.now(),
	}
	tag := rec.TurnID[:8]
	log.Printf("bot[%s]: turn from %s in %s", tag, ev.SenderNumber(), rec.SenderID)

	window := b.assembler.Build(ctx, rec.SenderID, ev.Body)
	reply, err := b.agent.Run(ctx, window, b.tools)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		log.Printf("bot[%s]: %v", tag, err)
		if sendErr := b.replier.Reply(ctx, ev, Apology); sendErr != nil {
			log.Printf("bot[%s]: sending apology: %v", tag, sendErr)
		}
		rec.FailureReason = err.Error()
		b.history.Append(ctx, rec)
		return
	}

	rec.Response = reply
	if err := b.replier.Reply(ctx, ev, reply); err != nil {
		log.Printf("bot[%s]: sending reply: %v", tag, err)
		rec.FailureReason = fmt.Sprintf("sending reply: %v", err)
		b.history.Append(ctx, rec)
		return
	}
	rec.Delivered = true
	b.history.Append(ctx, rec)
	log.Printf("bot[%s]: replied (%d chars)", tag, len(reply))
}
