package session

// Event is a session lifecycle event: name, model path and optional fields.
type Event struct {
	Name      string
	ModelPath string
	Fields    map[string]any
}

// Lifecycle event names.
const (
	EventInitStart  = "init_start"
	EventInitReady  = "init_ready"
	EventInitFailed = "init_failed"
	EventDisposed   = "disposed"
)

// EventPublisher receives lifecycle events. Publish must not block or panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
