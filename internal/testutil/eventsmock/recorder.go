package eventsmock

import (
	"context"
	"sync"

	"smart-loan-recovery/internal/domain/loan"
)

// Recorder collects published events. Err, when set, is returned from every publish
// after the event is recorded.
type Recorder struct {
	mu     sync.Mutex
	events []loan.Event
	Err    error
	closed bool
}

func (r *Recorder) PublishLoanEvent(_ context.Context, ev loan.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Recorder) Events() []loan.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]loan.Event(nil), r.events...)
}

// Kinds lists the routing keys in publish order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
