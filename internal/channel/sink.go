package channel

import (
	"sync"

	"gemmad/pkg/types"
)

// EventSink receives events emitted during a call. Implementations must be
// safe for use from the goroutine running the call.
type EventSink interface {
	Emit(types.Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(types.Event) error

func (f SinkFunc) Emit(e types.Event) error { return f(e) }

// Discard drops every event.
var Discard EventSink = SinkFunc(func(types.Event) error { return nil })

// MemorySink records events in order.
type MemorySink struct {
	mu     sync.Mutex
	events []types.Event
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Emit(e types.Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Event, len(s.events))
	copy(out, s.events)
	return out
}
