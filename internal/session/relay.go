package session

import (
	"context"
	"time"

	"gemmad/internal/engine"
	"gemmad/pkg/types"
)

// Emitter receives replay events; channel.EventSink satisfies it.
type Emitter interface {
	Emit(types.Event) error
}

// Generate forwards prompt to the engine and returns its response verbatim.
func (s *Session) Generate(ctx context.Context, prompt string, p engine.Params) (string, error) {
	cur, gctx, release, err := s.begin(ctx)
	if err != nil {
		if IsNotInitialized(err) {
			generationsTotal.WithLabelValues("single", "not_initialized").Inc()
			return "", err
		}
		generationsTotal.WithLabelValues("single", "error").Inc()
		return "", generationError{err: err}
	}
	defer release()

	s.log.Debug().Int("prompt_len", len(prompt)).Msg("generating response")
	start := time.Now()
	out, err := cur.h.Generate(gctx, prompt, p)
	generationDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())
	if err != nil {
		generationsTotal.WithLabelValues("single", "error").Inc()
		s.log.Error().Err(err).Msg("generation failed")
		return "", generationError{err: err}
	}
	generationsTotal.WithLabelValues("single", "ok").Inc()
	return out, nil
}

// GenerateChunked produces the complete response and then replays it to
// out as cumulative onStreamChunk events: an empty chunk up front, one
// chunk per word group spaced by the configured interval, the full text,
// and finally onStreamComplete. On failure it emits onError and returns a
// stream error. Rejection because the session is not ready happens before
// any event is emitted.
func (s *Session) GenerateChunked(ctx context.Context, prompt string, p engine.Params, out Emitter) error {
	cur, gctx, release, err := s.begin(ctx)
	if err != nil {
		if IsNotInitialized(err) {
			generationsTotal.WithLabelValues("chunked", "not_initialized").Inc()
			return err
		}
		generationsTotal.WithLabelValues("chunked", "error").Inc()
		return generationError{err: err, stream: true}
	}
	defer release()

	fail := func(err error) error {
		generationsTotal.WithLabelValues("chunked", "error").Inc()
		s.log.Error().Err(err).Msg("chunked replay failed")
		_ = out.Emit(types.Event{Method: types.EventError, Args: err.Error()})
		return generationError{err: err, stream: true}
	}

	if err := out.Emit(chunk("")); err != nil {
		return fail(err)
	}
	start := time.Now()
	full, err := cur.h.Generate(gctx, prompt, p)
	generationDuration.WithLabelValues("chunked").Observe(time.Since(start).Seconds())
	if err != nil {
		return fail(err)
	}
	for _, text := range ReplayChunks(full, s.cfg.Chunks) {
		if err := out.Emit(chunk(text)); err != nil {
			return fail(err)
		}
		if err := sleep(gctx, s.cfg.ChunkInterval); err != nil {
			return fail(err)
		}
	}
	if err := out.Emit(chunk(full)); err != nil {
		return fail(err)
	}
	if err := out.Emit(types.Event{Method: types.EventStreamComplete, Args: nil}); err != nil {
		return fail(err)
	}
	generationsTotal.WithLabelValues("chunked", "ok").Inc()
	return nil
}

func chunk(text string) types.Event {
	return types.Event{Method: types.EventStreamChunk, Args: text}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
