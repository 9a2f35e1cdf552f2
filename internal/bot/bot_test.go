package bot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/chris/wulang/internal/agent"
	"github.com/chris/wulang/internal/db"
	"github.com/chris/wulang/internal/llm"
)

type fakeClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	windows [][]llm.Message
}

func (c *fakeClient) Chat(_ context.Context, _ string, msgs []llm.Message, _ []llm.Tool) (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.windows = append(c.windows, append([]llm.Message(nil), msgs...))
	if c.err != nil {
		return nil, c.err
	}
	if len(c.replies) == 0 {
		return &llm.Response{}, nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return &llm.Response{Content: r}, nil
}

type sent struct {
	to, text string
}

type fakeReplier struct {
	mu   sync.Mutex
	err  error
	sent []sent
}

func (r *fakeReplier) Reply(_ context.Context, ev Event, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{to: ev.From, text: text})
	return r.err
}

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func newTestBot(t *testing.T, c llm.Client, r Replier) (*Bot, *db.DB) {
	t.Helper()
	d := openTestDB(t)
	h := agent.NewHistory(d)
	return New(agent.NewAssembler(h, "sys"), agent.New(c, 5), agent.NewRegistry(), h, r), d
}

func TestHandleTurn_FirstTurnThenHistory(t *testing.T) {
	c := &fakeClient{replies: []string{"halo, ada yang bisa dibantu?", "tentu"}}
	r := &fakeReplier{}
	b, d := newTestBot(t, c, r)
	ctx := context.Background()
	ev := Event{ID: "m1", From: "A@c.us", Body: "wulang halo"}

	b.HandleTurn(ctx, ev)

	// system prompt is split off, so the provider sees only the user message
	if len(c.windows[0]) != 1 || c.windows[0][0].Content != "wulang halo" {
		t.Fatalf("unexpected first window %+v", c.windows[0])
	}
	if len(r.sent) != 1 || r.sent[0].text != "halo, ada yang bisa dibantu?" {
		t.Fatalf("unexpected replies %+v", r.sent)
	}
	recs, err := d.ListChats(ctx, "A@c.us", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if !rec.Delivered || rec.Request != "wulang halo" || rec.Response != "halo, ada yang bisa dibantu?" || rec.TurnID == "" {
		t.Errorf("unexpected record %+v", rec)
	}

	b.HandleTurn(ctx, Event{ID: "m2", From: "A@c.us", Body: "wulang lagi"})
	second := c.windows[1]
	if len(second) != 3 {
		t.Fatalf("expected one prior exchange plus current message, got %d messages", len(second))
	}
	if second[0].Content != "wulang halo" || second[1].Role != llm.RoleAssistant {
		t.Errorf("unexpected history in window %+v", second)
	}
}

func TestHandleTurn_ProviderTimeout(t *testing.T) {
	c := &fakeClient{err: context.DeadlineExceeded}
	r := &fakeReplier{}
	b, d := newTestBot(t, c, r)
	ctx := context.Background()

	b.HandleTurn(ctx, Event{ID: "m1", From: "A@c.us", Body: "wulang halo"})

	if len(r.sent) != 1 || r.sent[0].text != Apology {
		t.Fatalf("expected apology, got %+v", r.sent)
	}
	recs, _ := d.ListChats(ctx, "A@c.us", 10)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Delivered || recs[0].FailureReason == "" || recs[0].Response != "" {
		t.Errorf("expected undelivered record with reason, got %+v", recs[0])
	}
	recent, _ := d.RecentDeliveredChats(ctx, "A@c.us", 5)
	if len(recent) != 0 {
		t.Errorf("failed turn should not be history, got %+v", recent)
	}
}

func TestHandleTurn_EmptyGenerationApologizes(t *testing.T) {
	r := &fakeReplier{}
	b, d := newTestBot(t, &fakeClient{replies: []string{"   "}}, r)
	ctx := context.Background()

	b.HandleTurn(ctx, Event{From: "A@c.us", Body: "wulang ?"})

	if len(r.sent) != 1 || r.sent[0].text != Apology {
		t.Fatalf("expected apology, got %+v", r.sent)
	}
	recs, _ := d.ListChats(ctx, "A@c.us", 10)
	if len(recs) != 1 || recs[0].Delivered || recs[0].FailureReason != ErrEmptyReply.Error() {
		t.Errorf("unexpected record %+v", recs)
	}
}

func TestHandleTurn_SendFailureRecordsUndelivered(t *testing.T) {
	r := &fakeReplier{err: errors.New("not connected")}
	b, d := newTestBot(t, &fakeClient{replies: []string{"oke"}}, r)
	ctx := context.Background()

	b.HandleTurn(ctx, Event{From: "A@c.us", Body: "wulang tes"})

	recs, _ := d.ListChats(ctx, "A@c.us", 10)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Delivered || recs[0].Response != "oke" {
		t.Errorf("expected undelivered record keeping the text, got %+v", recs[0])
	}
	recent, _ := d.RecentDeliveredChats(ctx, "A@c.us", 5)
	if len(recent) != 0 {
		t.Error("undelivered reply leaked into history")
	}
}
