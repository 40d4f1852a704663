package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"gemmad/internal/common/fsutil"
	"gemmad/internal/engine"
)

// loaded pairs a handle with the count of engine calls currently using it.
type loaded struct {
	h    engine.Handle
	path string
	refs sync.WaitGroup
}

// Session is the engine lifecycle handler.
type Session struct {
	cfg Config
	log zerolog.Logger

	// workers bounds concurrent engine calls (the background pool).
	workers *semaphore.Weighted

	mu       sync.Mutex
	state    State
	cur      *loaded
	loadedAt time.Time
	lastErr  string
	loads    uint64
	gens     uint64
	inflight int

	// base is canceled by Dispose; every engine call runs under it.
	base   context.Context
	cancel context.CancelFunc
	// work counts initializations and generations that may touch a handle.
	work sync.WaitGroup
}

// New returns an uninitialized Session.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()
	base, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "session").Logger(),
		workers: semaphore.NewWeighted(int64(cfg.Workers)),
		state:   StateUninitialized,
		base:    base,
		cancel:  cancel,
	}
	observeState(s.state)
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether generation requests are currently accepted.
func (s *Session) Ready() bool { return s.State() == StateReady }

// Snapshot returns a read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:            s.state,
		LoadedAt:         s.loadedAt,
		LastError:        s.lastErr,
		LoadsTotal:       s.loads,
		GenerationsTotal: s.gens,
		Inflight:         s.inflight,
	}
	if s.cur != nil {
		snap.ModelPath = s.cur.path
	}
	return snap
}

// Initialize loads the model at modelPath. On success the session is ready
// and a previously loaded handle is closed once its in-flight calls finish.
// On failure the session returns to the state it was in before the call.
func (s *Session) Initialize(ctx context.Context, modelPath string) error {
	if !fsutil.PathExists(modelPath) {
		return ErrModelNotFound(modelPath)
	}

	s.mu.Lock()
	switch s.state {
	case StateDisposed:
		s.mu.Unlock()
		return initError{err: errDisposed}
	case StateInitializing:
		s.mu.Unlock()
		return initError{err: errInitInProgress}
	}
	prev := s.state
	s.setStateLocked(StateInitializing)
	s.work.Add(1)
	base := s.base
	s.mu.Unlock()
	defer s.work.Done()

	log := s.log.With().Str("model", modelPath).Logger()
	if mb, err := fsutil.FileSizeMB(modelPath); err == nil {
		log.Info().Int64("size_mb", mb).Msg("loading model")
	}
	s.cfg.Publisher.Publish(Event{Name: EventInitStart, ModelPath: modelPath})

	loadCtx, cancel := mergeCancel(ctx, base)
	defer cancel()
	start := time.Now()
	h, err := s.cfg.Loader.Load(loadCtx, engine.Options{
		ModelPath: modelPath,
		MaxTopK:   s.cfg.MaxTopK,
		CtxSize:   s.cfg.CtxSize,
		Threads:   s.cfg.Threads,
	})
	loadDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		if h != nil {
			_ = h.Close()
		}
		loadsTotal.WithLabelValues("disposed").Inc()
		return initError{err: errDisposed}
	}
	if err == nil && h == nil {
		err = errors.New("engine returned no handle")
	}
	if err != nil {
		s.setStateLocked(prev)
		s.lastErr = err.Error()
		s.mu.Unlock()
		loadsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("model load failed")
		s.cfg.Publisher.Publish(Event{Name: EventInitFailed, ModelPath: modelPath, Fields: map[string]any{"error": err.Error()}})
		return initError{err: err}
	}
	old := s.cur
	s.cur = &loaded{h: h, path: modelPath}
	s.loadedAt = time.Now()
	s.lastErr = ""
	s.loads++
	s.setStateLocked(StateReady)
	s.mu.Unlock()

	loadsTotal.WithLabelValues("ok").Inc()
	log.Info().Dur("dur", time.Since(start)).Msg("model loaded")
	s.cfg.Publisher.Publish(Event{Name: EventInitReady, ModelPath: modelPath})
	if old != nil {
		old.refs.Wait()
		if cerr := old.h.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("previous", old.path).Msg("closing previous model")
		}
	}
	return nil
}

// Dispose moves the session to disposed, cancels outstanding engine work,
// waits for it to return and releases the handle. It is idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateDisposed)
	cur := s.cur
	s.cur = nil
	s.cancel()
	s.mu.Unlock()

	s.work.Wait()
	path := ""
	if cur != nil {
		path = cur.path
		if err := cur.h.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing model")
		}
	}
	s.log.Info().Str("model", path).Msg("session disposed")
	s.cfg.Publisher.Publish(Event{Name: EventDisposed, ModelPath: path})
}

// begin admits one engine call: it checks the state, pins the current
// handle and takes a worker slot. The returned release must be called.
func (s *Session) begin(ctx context.Context) (*loaded, context.Context, func(), error) {
	s.mu.Lock()
	if s.state != StateReady || s.cur == nil {
		st := s.state
		s.mu.Unlock()
		return nil, nil, nil, notInitializedError{state: st}
	}
	cur := s.cur
	cur.refs.Add(1)
	s.work.Add(1)
	s.gens++
	base := s.base
	s.mu.Unlock()

	gctx, cancel := mergeCancel(ctx, base)
	done := func() {
		cancel()
		cur.refs.Done()
		s.work.Done()
	}
	if err := s.workers.Acquire(gctx, 1); err != nil {
		done()
		return nil, nil, nil, err
	}
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	return cur, gctx, func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
		s.workers.Release(1)
		done()
	}, nil
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	observeState(st)
}

// mergeCancel returns a context derived from parent that is also canceled
// when other is done.
func mergeCancel(parent, other context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(other, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
