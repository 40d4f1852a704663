package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemmad/internal/channel"
	"gemmad/internal/engine"
	"gemmad/internal/engine/enginetest"
	"gemmad/internal/session"
	"gemmad/internal/tutor"
	"gemmad/pkg/types"
)

func newEngineHandler(t *testing.T, l *enginetest.Loader) *EngineHandler {
	t.Helper()
	s := session.New(session.Config{Loader: l, ChunkInterval: time.Millisecond, Logger: zerolog.Nop()})
	t.Cleanup(s.Dispose)
	return NewEngineHandler("", s)
}

func modelFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "gemma.task")
	require.NoError(t, os.WriteFile(p, []byte("bundle"), 0o644))
	return p
}

func call(t *testing.T, h channel.Handler, method string, args map[string]any) (types.MethodReply, *channel.MemorySink) {
	t.Helper()
	sink := channel.NewMemorySink()
	reply := channel.Dispatch(context.Background(), h, types.MethodCall{Method: method, Args: args}, sink, channel.CodeGenerationError)
	return reply, sink
}

func requireCode(t *testing.T, reply types.MethodReply, code string) {
	t.Helper()
	require.NotNil(t, reply.Error, "expected error %s, got result %v", code, reply.Result)
	assert.Equal(t, code, reply.Error.Code)
}

func TestEngineHandler_Name(t *testing.T) {
	h := newEngineHandler(t, &enginetest.Loader{})
	assert.Equal(t, DefaultEngineChannel, h.Name())
	assert.Equal(t, "engine", h.Mode())
	assert.Equal(t, "x/y", NewEngineHandler("x/y", nil).Name())
}

func TestEngineHandler_GenerateBeforeInit(t *testing.T) {
	l := &enginetest.Loader{Response: "X"}
	h := newEngineHandler(t, l)

	reply, _ := call(t, h, MethodGenerateText, map[string]any{"prompt": "hello"})
	requireCode(t, reply, channel.CodeNotInitialized)
	reply, sink := call(t, h, MethodGenerateTextStream, map[string]any{"prompt": "hello"})
	requireCode(t, reply, channel.CodeNotInitialized)
	assert.Empty(t, sink.Events())
	assert.Empty(t, l.Prompts())
}

func TestEngineHandler_InitAndGenerate(t *testing.T) {
	l := &enginetest.Loader{Response: "X"}
	h := newEngineHandler(t, l)

	reply, _ := call(t, h, MethodInitializeModel, map[string]any{"modelPath": modelFile(t)})
	require.Nil(t, reply.Error)
	assert.Equal(t, true, reply.Result)
	assert.True(t, h.Ready())

	reply, _ = call(t, h, MethodGenerateText, map[string]any{"prompt": "hello"})
	require.Nil(t, reply.Error)
	assert.Equal(t, "X", reply.Result)

	params := l.Handles()[0].Params()
	require.Len(t, params, 1)
	assert.Equal(t, 512, params[0].MaxTokens)
	assert.InDelta(t, 0.8, params[0].Temperature, 1e-6)

	reply, _ = call(t, h, MethodGenerateText, map[string]any{"prompt": "hi", "maxTokens": float64(64), "temperature": 0.1})
	require.Nil(t, reply.Error)
	params = l.Handles()[0].Params()
	assert.Equal(t, engine.Params{MaxTokens: 64, Temperature: 0.1}, params[1])

	st := h.Status()
	assert.Equal(t, "ready", st.State)
	assert.True(t, st.Ready)
	assert.Equal(t, uint64(2), st.GenerationsTotal)
	assert.NotZero(t, st.LoadedAtUnix)
}

func TestEngineHandler_InitErrors(t *testing.T) {
	l := &enginetest.Loader{LoadErr: errors.New("unsupported bundle")}
	h := newEngineHandler(t, l)

	reply, _ := call(t, h, MethodInitializeModel, nil)
	requireCode(t, reply, channel.CodeInvalidArgument)

	reply, _ = call(t, h, MethodInitializeModel, map[string]any{"modelPath": filepath.Join(t.TempDir(), "none.task")})
	requireCode(t, reply, channel.CodeModelNotFound)

	reply, _ = call(t, h, MethodInitializeModel, map[string]any{"modelPath": modelFile(t)})
	requireCode(t, reply, channel.CodeInitError)
	assert.Contains(t, reply.Error.Message, "unsupported bundle")
	assert.False(t, h.Ready())
}

func TestEngineHandler_GenerationError(t *testing.T) {
	l := &enginetest.Loader{Respond: func(context.Context, string) (string, error) { return "", errors.New("oom") }}
	h := newEngineHandler(t, l)
	reply, _ := call(t, h, MethodInitializeModel, map[string]any{"modelPath": modelFile(t)})
	require.Nil(t, reply.Error)

	reply, _ = call(t, h, MethodGenerateText, map[string]any{"prompt": "p"})
	requireCode(t, reply, channel.CodeGenerationError)
	assert.Contains(t, reply.Error.Message, "oom")

	reply, sink := call(t, h, MethodGenerateTextStream, map[string]any{"prompt": "p"})
	requireCode(t, reply, channel.CodeStreamError)
	evs := sink.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, types.EventError, evs[len(evs)-1].Method)
}

func TestEngineHandler_Stream(t *testing.T) {
	l := &enginetest.Loader{Response: "one two three"}
	h := newEngineHandler(t, l)
	reply, _ := call(t, h, MethodInitializeModel, map[string]any{"modelPath": modelFile(t)})
	require.Nil(t, reply.Error)

	reply, sink := call(t, h, MethodGenerateTextStream, map[string]any{"prompt": "count"})
	require.Nil(t, reply.Error)
	assert.Nil(t, reply.Result)

	var got []any
	for _, e := range sink.Events() {
		got = append(got, e.Args)
	}
	assert.Equal(t, []any{"", "one", "one two", "one two three", "one two three", nil}, got)
}

func TestEngineHandler_DisposeThenGenerate(t *testing.T) {
	l := &enginetest.Loader{Response: "X"}
	h := newEngineHandler(t, l)
	reply, _ := call(t, h, MethodInitializeModel, map[string]any{"modelPath": modelFile(t)})
	require.Nil(t, reply.Error)

	reply, _ = call(t, h, MethodDispose, nil)
	require.Nil(t, reply.Error)
	assert.Nil(t, reply.Result)
	reply, _ = call(t, h, MethodDispose, nil)
	require.Nil(t, reply.Error)

	reply, _ = call(t, h, MethodGenerateText, map[string]any{"prompt": "hello"})
	requireCode(t, reply, channel.CodeNotInitialized)
	assert.Equal(t, "disposed", h.Status().State)
}

func TestEngineHandler_UnknownMethod(t *testing.T) {
	reply, _ := call(t, newEngineHandler(t, &enginetest.Loader{}), "isModelReady", nil)
	requireCode(t, reply, channel.CodeNotImplemented)
}

type stubLocator struct{ path string }

func (s stubLocator) Locate() (string, bool) { return s.path, s.path != "" }

func TestDemoHandler(t *testing.T) {
	h := NewDemoHandler("", tutor.New(tutor.DefaultTable(), stubLocator{}, zerolog.Nop()))
	assert.Equal(t, DefaultDemoChannel, h.Name())

	reply, _ := call(t, h, MethodGenerateText, map[string]any{"prompt": "What is 2+2?"})
	require.Nil(t, reply.Error)
	assert.Contains(t, reply.Result, "2 + 2 = 4")

	reply, _ = call(t, h, MethodGenerateText, map[string]any{"prompt": "TELL ME A JOKE"})
	require.Nil(t, reply.Error)
	want, _ := tutor.DefaultTable().Match("")
	assert.Equal(t, want, reply.Result)

	reply, _ = call(t, h, MethodGenerateText, map[string]any{})
	requireCode(t, reply, channel.CodeInvalidArgument)
	reply, _ = call(t, h, MethodGenerateText, map[string]any{"prompt": nil})
	requireCode(t, reply, channel.CodeInvalidArgument)

	reply, _ = call(t, h, MethodIsModelReady, nil)
	require.Nil(t, reply.Error)
	assert.Equal(t, false, reply.Result)

	reply, _ = call(t, h, MethodInitializeModel, nil)
	requireCode(t, reply, channel.CodeNotImplemented)
}

func TestDemoHandler_ReadyFromLocator(t *testing.T) {
	h := NewDemoHandler("x", tutor.New(tutor.DefaultTable(), stubLocator{path: "/m.task"}, zerolog.Nop()))
	reply, _ := call(t, h, MethodIsModelReady, nil)
	assert.Equal(t, true, reply.Result)
	st := h.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, "/m.task", st.ModelPath)
	assert.Equal(t, "demo", st.Mode)
}

func TestDemoHandler_GenerationError(t *testing.T) {
	h := NewDemoHandler("", tutor.New(tutor.DefaultTable(), nil, zerolog.Nop()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reply := channel.Dispatch(ctx, h, types.MethodCall{Method: MethodGenerateText, Args: map[string]any{"prompt": "x"}}, nil, h.FallbackCode())
	requireCode(t, reply, channel.CodeGenerationError)
	assert.NotNil(t, reply.Error.Details)
}
