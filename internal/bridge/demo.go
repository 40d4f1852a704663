package bridge

import (
	"context"

	"gemmad/internal/channel"
	"gemmad/pkg/types"
)

// Demo-mode method names (generateText is shared with engine mode).
const MethodIsModelReady = "isModelReady"

// DefaultDemoChannel is the demo-mode channel name.
const DefaultDemoChannel = "com.example.noor/gemini"

// Responder is the subset of *tutor.Responder used by DemoHandler.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
	Ready() bool
	ModelPath() string
}

// DemoHandler serves the demo channel: canned answers, no engine.
type DemoHandler struct {
	name string
	r    Responder
}

// NewDemoHandler returns a handler for channel name (DefaultDemoChannel when
// empty) backed by r.
func NewDemoHandler(name string, r Responder) *DemoHandler {
	if name == "" {
		name = DefaultDemoChannel
	}
	return &DemoHandler{name: name, r: r}
}

func (h *DemoHandler) Name() string { return h.name }

func (h *DemoHandler) Mode() string { return "demo" }

func (h *DemoHandler) Ready() bool { return h.r.Ready() }

func (h *DemoHandler) Status() types.StatusResponse {
	path := h.r.ModelPath()
	return types.StatusResponse{
		Channel:   h.name,
		Mode:      h.Mode(),
		ModelPath: path,
		Ready:     path != "",
	}
}

func (h *DemoHandler) FallbackCode() string { return channel.CodeGenerationError }

func (h *DemoHandler) Invoke(ctx context.Context, call types.MethodCall, _ channel.EventSink) (any, error) {
	args := channel.Args(call.Args)
	switch call.Method {
	case MethodGenerateText:
		prompt, ok := args.String("prompt")
		if !ok {
			return nil, channel.NewError(channel.CodeInvalidArgument, "Prompt cannot be null")
		}
		out, err := h.r.Respond(ctx, prompt)
		if err != nil {
			ce := channel.NewError(channel.CodeGenerationError, "Failed to generate text: "+err.Error())
			ce.Details = err.Error()
			return nil, ce
		}
		return out, nil

	case MethodIsModelReady:
		return h.r.Ready(), nil

	default:
		return nil, channel.NotImplemented(call.Method)
	}
}
