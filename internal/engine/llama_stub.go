//go:build !llama

package engine

import "context"

// Built reports whether this binary carries the llama backend.
const Built = false

// llamaLoader satisfies Loader but refuses to load without the 'llama' tag.
type llamaLoader struct{}

// NewLlamaLoader returns the llama backend. In this build it always fails.
func NewLlamaLoader() Loader { return llamaLoader{} }

func (llamaLoader) Load(ctx context.Context, opts Options) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable("llama support not built (missing 'llama' build tag)")
}
