// Package bridge binds channel method calls to the engine session (engine
// mode) or the tutor responder (demo mode), converting every outcome into
// the channel's (code, message) form.
package bridge

import (
	"context"

	"gemmad/internal/channel"
	"gemmad/internal/engine"
	"gemmad/internal/session"
	"gemmad/pkg/types"
)

// Engine-mode method names.
const (
	MethodInitializeModel    = "initializeModel"
	MethodGenerateText       = "generateText"
	MethodGenerateTextStream = "generateTextStream"
	MethodDispose            = "dispose"
)

// DefaultEngineChannel is the engine-mode channel name.
const DefaultEngineChannel = "com.example.noor/gemma"

// Lifecycle is the subset of *session.Session used by EngineHandler.
type Lifecycle interface {
	Initialize(ctx context.Context, modelPath string) error
	Generate(ctx context.Context, prompt string, p engine.Params) (string, error)
	GenerateChunked(ctx context.Context, prompt string, p engine.Params, out session.Emitter) error
	Dispose()
	Ready() bool
	Snapshot() session.Snapshot
}

// EngineHandler serves the engine-mode channel.
type EngineHandler struct {
	name string
	s    Lifecycle
}

// NewEngineHandler returns a handler for channel name (DefaultEngineChannel
// when empty) backed by s.
func NewEngineHandler(name string, s Lifecycle) *EngineHandler {
	if name == "" {
		name = DefaultEngineChannel
	}
	return &EngineHandler{name: name, s: s}
}

func (h *EngineHandler) Name() string { return h.name }

// Mode identifies the handler for status reporting.
func (h *EngineHandler) Mode() string { return "engine" }

// Ready reports whether the session accepts generation.
func (h *EngineHandler) Ready() bool { return h.s.Ready() }

// Status fills the mode-specific part of a status response.
func (h *EngineHandler) Status() types.StatusResponse {
	snap := h.s.Snapshot()
	st := types.StatusResponse{
		Channel:          h.name,
		Mode:             h.Mode(),
		State:            string(snap.State),
		ModelPath:        snap.ModelPath,
		Ready:            snap.State == session.StateReady,
		LastError:        snap.LastError,
		LoadsTotal:       snap.LoadsTotal,
		GenerationsTotal: snap.GenerationsTotal,
		Inflight:         snap.Inflight,
	}
	if !snap.LoadedAt.IsZero() {
		st.LoadedAtUnix = snap.LoadedAt.Unix()
	}
	return st
}

// FallbackCode is the generic code for unexpected failures.
func (h *EngineHandler) FallbackCode() string { return channel.CodeGenerationError }

func (h *EngineHandler) Invoke(ctx context.Context, call types.MethodCall, sink channel.EventSink) (any, error) {
	args := channel.Args(call.Args)
	switch call.Method {
	case MethodInitializeModel:
		path, ok := args.String("modelPath")
		if !ok || path == "" {
			return nil, channel.NewError(channel.CodeInvalidArgument, "Model path is required")
		}
		if err := h.s.Initialize(ctx, path); err != nil {
			return nil, engineError(err, channel.CodeInitError)
		}
		return true, nil

	case MethodGenerateText:
		out, err := h.s.Generate(ctx, args.StringOr("prompt", ""), generationParams(args))
		if err != nil {
			return nil, engineError(err, channel.CodeGenerationError)
		}
		return out, nil

	case MethodGenerateTextStream:
		if err := h.s.GenerateChunked(ctx, args.StringOr("prompt", ""), generationParams(args), sink); err != nil {
			return nil, engineError(err, channel.CodeStreamError)
		}
		return nil, nil

	case MethodDispose:
		h.s.Dispose()
		return nil, nil

	default:
		return nil, channel.NotImplemented(call.Method)
	}
}

func generationParams(args channel.Args) engine.Params {
	return engine.Params{
		MaxTokens:   args.IntOr("maxTokens", session.DefaultMaxTokens),
		Temperature: float32(args.FloatOr("temperature", session.DefaultTemperature)),
	}
}

// engineError converts a session error into its channel code. Anything the
// session does not classify is reported under fallback.
func engineError(err error, fallback string) *channel.Error {
	switch {
	case session.IsModelNotFound(err):
		return channel.NewError(channel.CodeModelNotFound, err.Error())
	case session.IsNotInitialized(err):
		return channel.NewError(channel.CodeNotInitialized, err.Error())
	case session.IsInitError(err):
		return channel.NewError(channel.CodeInitError, err.Error())
	case session.IsStreamError(err):
		return channel.NewError(channel.CodeStreamError, err.Error())
	case session.IsGenerationError(err):
		return channel.NewError(channel.CodeGenerationError, err.Error())
	default:
		return channel.NewError(fallback, err.Error())
	}
}
