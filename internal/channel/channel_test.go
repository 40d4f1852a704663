package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemmad/pkg/types"
)

type handlerFunc func(ctx context.Context, call types.MethodCall, sink EventSink) (any, error)

func (f handlerFunc) Name() string { return "test/channel" }
func (f handlerFunc) Invoke(ctx context.Context, call types.MethodCall, sink EventSink) (any, error) {
	return f(ctx, call, sink)
}

func TestDispatch_Success(t *testing.T) {
	h := handlerFunc(func(ctx context.Context, call types.MethodCall, sink EventSink) (any, error) {
		require.NoError(t, sink.Emit(types.Event{Method: types.EventStreamChunk, Args: "a"}))
		return "ok", nil
	})
	sink := NewMemorySink()
	reply := Dispatch(context.Background(), h, types.MethodCall{ID: "1", Method: "m"}, sink, CodeGenerationError)
	assert.Equal(t, "1", reply.ID)
	assert.Equal(t, "ok", reply.Result)
	assert.Nil(t, reply.Error)
	assert.Len(t, sink.Events(), 1)
}

func TestDispatch_TypedAndForeignErrors(t *testing.T) {
	typed := handlerFunc(func(context.Context, types.MethodCall, EventSink) (any, error) {
		return nil, NewError(CodeNotInitialized, "Model not initialized")
	})
	reply := Dispatch(context.Background(), typed, types.MethodCall{Method: "m"}, nil, CodeGenerationError)
	require.NotNil(t, reply.Error)
	assert.Equal(t, CodeNotInitialized, reply.Error.Code)
	assert.Equal(t, "Model not initialized", reply.Error.Message)

	foreign := handlerFunc(func(context.Context, types.MethodCall, EventSink) (any, error) {
		return nil, errors.New("boom")
	})
	reply = Dispatch(context.Background(), foreign, types.MethodCall{Method: "m"}, nil, CodeGenerationError)
	require.NotNil(t, reply.Error)
	assert.Equal(t, CodeGenerationError, reply.Error.Code)
	assert.Equal(t, "boom", reply.Error.Message)
}

func TestDispatch_RecoversPanic(t *testing.T) {
	h := handlerFunc(func(context.Context, types.MethodCall, EventSink) (any, error) {
		panic("kaboom")
	})
	reply := Dispatch(context.Background(), h, types.MethodCall{ID: "9", Method: "m"}, nil, CodeStreamError)
	require.NotNil(t, reply.Error)
	assert.Equal(t, "9", reply.ID)
	assert.Equal(t, CodeStreamError, reply.Error.Code)
	assert.Contains(t, reply.Error.Message, "kaboom")
}

func TestError_StatusCode(t *testing.T) {
	cases := map[string]int{
		CodeInvalidArgument: http.StatusBadRequest,
		CodeModelNotFound:   http.StatusNotFound,
		CodeNotInitialized:  http.StatusConflict,
		CodeNotImplemented:  http.StatusNotImplemented,
		CodeInitError:       http.StatusInternalServerError,
		CodeStreamError:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, NewError(code, "x").StatusCode(), code)
	}
	assert.Equal(t, CodeNotImplemented, NotImplemented("foo").Code)
	assert.Nil(t, AsError(nil, CodeInitError))
}

func TestArgs(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"prompt":"hi","maxTokens":256,"temperature":0.2,"bad":"x","nil":null}`), &decoded))
	a := Args(decoded)

	s, ok := a.String("prompt")
	assert.True(t, ok)
	assert.Equal(t, "hi", s)
	_, ok = a.String("nil")
	assert.False(t, ok)
	_, ok = a.String("maxTokens")
	assert.False(t, ok)
	assert.Equal(t, "def", a.StringOr("missing", "def"))

	assert.Equal(t, 256, a.IntOr("maxTokens", 512))
	assert.Equal(t, 512, a.IntOr("missing", 512))
	assert.Equal(t, 512, a.IntOr("bad", 512))
	assert.InDelta(t, 0.2, a.FloatOr("temperature", 0.8), 1e-9)
	assert.InDelta(t, 0.8, a.FloatOr("missing", 0.8), 1e-9)
	assert.Equal(t, 3, Args{"n": json.Number("3")}.IntOr("n", 0))
}
