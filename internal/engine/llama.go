//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// Built reports whether this binary carries the llama backend.
const Built = true

type llamaLoader struct{}

// NewLlamaLoader returns the in-process go-llama.cpp backend.
func NewLlamaLoader() Loader { return llamaLoader{} }

type llamaHandle struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
	topK    int
}

func (llamaLoader) Load(ctx context.Context, opts Options) (Handle, error) {
	if strings.TrimSpace(opts.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var mo []llama.ModelOption
	if opts.CtxSize > 0 {
		mo = append(mo, llama.SetContext(opts.CtxSize))
	}
	m, err := llama.New(opts.ModelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaHandle{model: m, threads: opts.Threads, topK: opts.MaxTopK}, nil
}

func (h *llamaHandle) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return "", errors.New("llama model not loaded")
	}
	// Returning false from the token callback stops prediction early.
	h.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	defer h.model.SetTokenCallback(nil)
	text, err := h.model.Predict(prompt, predictOptions(p, h.topK, h.threads)...)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (h *llamaHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}

// predictOptions maps request params onto go-llama.cpp options, falling back
// to the library defaults for unset values.
func predictOptions(p Params, topK, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(positive(p.MaxTokens, llama.DefaultOptions.Tokens)),
		llama.SetTopK(positive(topK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(positivef(p.Temperature, llama.DefaultOptions.Temperature)),
	}
	if threads > 0 {
		po = append(po, llama.SetThreads(threads))
	}
	return po
}

func positive(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func positivef(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
