package session

import "github.com/rs/zerolog"

// LogPublisher writes lifecycle events to a zerolog logger.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Log.Info()
	if e.Name == EventInitFailed {
		ev = p.Log.Warn()
	}
	ev.Str("event", e.Name).Str("model_path", e.ModelPath).Fields(e.Fields).Msg("session event")
}
