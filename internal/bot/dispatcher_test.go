package bot

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDispatcher_RejectsFilteredEvents(t *testing.T) {
	called := false
	d := NewDispatcher(context.Background(), NewFilter("wulang", []string{"811"}), func(context.Context, Event) {
		called = true
	})
	if d.Dispatch(Event{From: "999@c.us", Body: "wulang"}) {
		t.Error("expected rejection")
	}
	d.Wait()
	if called {
		t.Error("handler ran for rejected event")
	}
}

func TestDispatcher_SerializesPerConversation(t *testing.T) {
	var mu sync.Mutex
	var order []string
	inFlight := map[string]int{}
	overlap := false

	d := NewDispatcher(context.Background(), NewFilter("wulang", []string{"811"}), func(_ context.Context, ev Event) {
		mu.Lock()
		inFlight[ev.From]++
		if inFlight[ev.From] > 1 {
			overlap = true
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight[ev.From]--
		if ev.From == "a@c.us" {
			order = append(order, ev.ID)
		}
		mu.Unlock()
	})

	for _, id := range []string{"1", "2", "3", "4"} {
		d.Dispatch(Event{ID: id, From: "a@c.us", Author: "811@s.whatsapp.net", Body: "wulang " + id})
		d.Dispatch(Event{ID: id, From: "b@c.us", Author: "811@s.whatsapp.net", Body: "wulang " + id})
	}
	d.Wait()

	if overlap {
		t.Error("two turns of one conversation ran at once")
	}
	want := []string{"1", "2", "3", "4"}
	if len(order) != len(want) {
		t.Fatalf("expected %d turns, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected arrival order %v, got %v", want, order)
		}
	}
}

func TestDispatcher_ConversationsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	d := NewDispatcher(context.Background(), NewFilter("wulang", []string{"811"}), func(_ context.Context, ev Event) {
		started <- ev.From
		<-release
	})
	d.Dispatch(Event{From: "811@c.us", Body: "wulang"})
	d.Dispatch(Event{From: "62811@c.us", Body: "wulang"})

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("second conversation blocked behind the first")
		}
	}
	close(release)
	d.Wait()
}

func TestDispatcher_SurvivesPanickingTurn(t *testing.T) {
	var mu sync.Mutex
	var handled []string
	d := NewDispatcher(context.Background(), NewFilter("wulang", []string{"811"}), func(_ context.Context, ev Event) {
		if ev.ID == "boom" {
			panic("nil pointer")
		}
		mu.Lock()
		handled = append(handled, ev.ID)
		mu.Unlock()
	})
	d.Dispatch(Event{ID: "boom", From: "811@c.us", Body: "wulang"})
	d.Dispatch(Event{ID: "ok", From: "811@c.us", Body: "wulang"})
	d.Wait()
	if len(handled) != 1 || handled[0] != "ok" {
		t.Errorf("expected lane to continue after panic, got %v", handled)
	}
}
