// Package engine is the narrow boundary to the on-device inference library:
// given a model path and options it produces a loaded handle, and given a
// handle and a prompt it produces a response string.
//
// Build tags:
//
//   - `-tags=llama`: in-process go-llama.cpp (cgo). Files: llama.go, llama_cgo.go.
//   - default: llama_stub.go, which refuses to load so CGO-free builds never
//     pretend to run a model.
package engine

import "context"

// DefaultMaxTopK is the top-K ceiling the bundled model is loaded with.
const DefaultMaxTopK = 64

// Options configure model construction.
type Options struct {
	ModelPath string
	MaxTopK   int
	// CtxSize and Threads are backend hints; zero lets the backend choose.
	CtxSize int
	Threads int
}

// Params are per-request generation parameters.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Loader constructs engine handles. Load may block for a long time (weights
// are read from disk) and should honor ctx where the backend allows it.
type Loader interface {
	Load(ctx context.Context, opts Options) (Handle, error)
}

// Handle is a loaded model. Implementations need not be safe for concurrent
// Generate calls; callers serialize access.
type Handle interface {
	// Generate returns the complete response for prompt.
	Generate(ctx context.Context, prompt string, p Params) (string, error)
	// Close releases the model. Calling Generate after Close is an error.
	Close() error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, opts Options) (Handle, error)

func (f LoaderFunc) Load(ctx context.Context, opts Options) (Handle, error) { return f(ctx, opts) }

// unavailableError signals that the backend is not compiled into this binary.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing engine backend.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
