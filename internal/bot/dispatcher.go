package bot

import (
	"context"
	"log"
	"sync"
)

// Dispatcher runs accepted events through a handler. Turns of one
// conversation run one at a time in arrival order; different conversations
// proceed in parallel.
type Dispatcher struct {
	ctx    context.Context
	filter *Filter
	handle func(context.Context, Event)

	mu    sync.Mutex
	lanes map[string][]Event // pending events per busy conversation
	wg    sync.WaitGroup
}

func NewDispatcher(ctx context.Context, f *Filter, handle func(context.Context, Event)) *Dispatcher {
	return &Dispatcher{ctx: ctx, filter: f, handle: handle, lanes: make(map[string][]Event)}
}

// Dispatch filters ev and queues it on its conversation's lane. It never
// blocks on the handler and reports whether the event was accepted.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if !d.filter.Accept(ev) {
		return false
	}
	key := ev.ConversationKey()

	d.mu.Lock()
	if pending, busy := d.lanes[key]; busy {
		d.lanes[key] = append(pending, ev)
		d.mu.Unlock()
		return true
	}
	d.lanes[key] = nil
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(key, ev)
	return true
}

func (d *Dispatcher) drain(key string, ev Event) {
	defer d.wg.Done()
	for {
		d.run(ev)

		d.mu.Lock()
		pending := d.lanes[key]
		if len(pending) == 0 {
			delete(d.lanes, key)
			d.mu.Unlock()
			return
		}
		ev, d.lanes[key] = pending[0], pending[1:]
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(ev Event) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("bot: turn for %s panicked: %v", ev.ConversationKey(), p)
		}
	}()
	d.handle(d.ctx, ev)
}

// Wait blocks until every queued turn has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
