// Package enginetest provides an in-memory engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	"gemmad/internal/engine"
)

// ErrClosed is returned by a Handle used after Close.
var ErrClosed = errors.New("fake engine: handle closed")

// Loader is a scripted engine.Loader. The zero value loads successfully and
// answers every prompt with Response.
type Loader struct {
	mu sync.Mutex

	// LoadErr fails every Load when set.
	LoadErr error
	// Response is returned by Generate unless Respond is set.
	Response string
	// Respond computes a response per prompt.
	Respond func(ctx context.Context, prompt string) (string, error)
	// Block, when non-nil, makes Generate wait until it is closed or ctx ends.
	Block chan struct{}

	loads   []engine.Options
	prompts []string
	handles []*Handle
}

// Load records opts and returns a new Handle.
func (l *Loader) Load(ctx context.Context, opts engine.Options) (engine.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, opts)
	if l.LoadErr != nil {
		return nil, l.LoadErr
	}
	h := &Handle{l: l}
	l.handles = append(l.handles, h)
	return h, nil
}

// Loads returns the options of every Load call.
func (l *Loader) Loads() []engine.Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]engine.Options(nil), l.loads...)
}

// Prompts returns every prompt passed to Generate on any handle.
func (l *Loader) Prompts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.prompts...)
}

// Handles returns every handle produced so far.
func (l *Loader) Handles() []*Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Handle(nil), l.handles...)
}

// Handle is the fake loaded model.
type Handle struct {
	l      *Loader
	mu     sync.Mutex
	closed bool
	params []engine.Params
}

// Generate answers prompt according to the owning Loader's script.
func (h *Handle) Generate(ctx context.Context, prompt string, p engine.Params) (string, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrClosed
	}
	h.params = append(h.params, p)
	h.mu.Unlock()

	h.l.mu.Lock()
	h.l.prompts = append(h.l.prompts, prompt)
	respond, resp, block := h.l.Respond, h.l.Response, h.l.Block
	h.l.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if respond != nil {
		return respond(ctx, prompt)
	}
	return resp, nil
}

// Close marks the handle closed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Closed reports whether Close was called.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Params returns the parameters of every Generate call on h.
func (h *Handle) Params() []engine.Params {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]engine.Params(nil), h.params...)
}
