package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gemmad/internal/bridge"
	"gemmad/internal/config"
	"gemmad/internal/engine"
	"gemmad/internal/httpapi"
	"gemmad/internal/locator"
	"gemmad/internal/session"
	"gemmad/internal/tutor"
)

// app is the channel handler selected by mode plus what it needs at
// startup and shutdown.
type app struct {
	handler httpapi.Service
	sess    *session.Session
	loc     *locator.Locator
	log     zerolog.Logger
}

// buildApp wires the handler for cfg.Mode. loader is only used in engine mode.
func buildApp(cfg config.Config, loader engine.Loader, log zerolog.Logger) (*app, error) {
	a := &app{
		loc: locator.New(cfg.Candidates(), log.With().Str("component", "locator").Logger()),
		log: log,
	}
	switch cfg.Mode {
	case config.ModeEngine:
		a.sess = session.New(session.Config{
			Loader:        loader,
			MaxTopK:       cfg.MaxTopK,
			CtxSize:       cfg.CtxSize,
			Threads:       cfg.Threads,
			Workers:       cfg.Workers,
			Chunks:        cfg.StreamChunks,
			ChunkInterval: time.Duration(cfg.ChunkIntervalMS) * time.Millisecond,
			Logger:        log,
			Publisher:     session.LogPublisher{Log: log.With().Str("component", "session").Logger()},
		})
		a.handler = bridge.NewEngineHandler(cfg.Channel, a.sess)
	case config.ModeDemo:
		table := tutor.DefaultTable()
		if cfg.RulesFile != "" {
			t, err := tutor.LoadTable(cfg.RulesFile)
			if err != nil {
				return nil, fmt.Errorf("load rules: %w", err)
			}
			table = t
		}
		a.handler = bridge.NewDemoHandler(cfg.Channel, tutor.New(table, a.loc, log))
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	return a, nil
}

// preload initializes the session with the located model. A missing model is
// not an error: the client can still call initializeModel later.
func (a *app) preload(ctx context.Context) error {
	if a.sess == nil {
		return nil
	}
	path, ok := a.loc.Locate()
	if !ok {
		a.log.Warn().Msg("preload skipped: model not found in any candidate location")
		return nil
	}
	return a.sess.Initialize(ctx, path)
}

// close releases the engine, if any.
func (a *app) close() {
	if a.sess != nil {
		a.sess.Dispose()
	}
}
