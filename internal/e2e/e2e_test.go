package e2e

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemmad/internal/bridge"
	"gemmad/internal/channel"
	"gemmad/internal/engine/enginetest"
	"gemmad/pkg/types"
)

func TestE2E_EngineLifecycle(t *testing.T) {
	loader := &enginetest.Loader{Response: "the quick brown fox jumps over the lazy dog"}
	srv, _ := newEngineServer(t, loader)
	url := invokeURL(srv, bridge.DefaultEngineChannel)
	model := createModelFile(t, t.TempDir(), "gemma.task")

	resp, _ := httpGet(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "/readyz before init")

	resp, body := call(t, url, bridge.MethodGenerateText, map[string]any{"prompt": "hi"})
	expectCode(t, resp, body, http.StatusConflict, channel.CodeNotInitialized)

	resp, body = call(t, url, bridge.MethodInitializeModel, nil)
	expectCode(t, resp, body, http.StatusBadRequest, channel.CodeInvalidArgument)

	resp, body = call(t, url, bridge.MethodInitializeModel, map[string]any{"modelPath": "/does/not/exist.task"})
	expectCode(t, resp, body, http.StatusNotFound, channel.CodeModelNotFound)
	assert.Contains(t, decodeReply(t, body).Error.Message, "/does/not/exist.task")

	resp, body = call(t, url, bridge.MethodInitializeModel, map[string]any{"modelPath": model})
	expectCode(t, resp, body, http.StatusOK, "")
	assert.Equal(t, true, decodeReply(t, body).Result)

	resp, _ = httpGet(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "/readyz after init")

	resp, body = call(t, url, bridge.MethodGenerateText, map[string]any{"prompt": "tell me", "maxTokens": 16, "temperature": 0.2})
	expectCode(t, resp, body, http.StatusOK, "")
	assert.Equal(t, loader.Response, decodeReply(t, body).Result)

	hs := loader.Handles()
	require.Len(t, hs, 1)
	p := hs[0].Params()
	require.Len(t, p, 1)
	assert.Equal(t, 16, p[0].MaxTokens)
	assert.Equal(t, float32(0.2), p[0].Temperature)

	resp, body = call(t, url, bridge.MethodDispose, nil)
	expectCode(t, resp, body, http.StatusOK, "")
	assert.True(t, hs[0].Closed(), "dispose closes the engine handle")

	resp, body = call(t, url, bridge.MethodGenerateText, map[string]any{"prompt": "again"})
	expectCode(t, resp, body, http.StatusConflict, channel.CodeNotInitialized)

	resp, body = httpGet(t, srv.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"state":"disposed"`)
}

func TestE2E_ChunkedReplayOverInvoke(t *testing.T) {
	full := "one two three four five six seven eight"
	srv, sess := newEngineServer(t, &enginetest.Loader{Response: full})
	require.NoError(t, sess.Initialize(context.Background(), createModelFile(t, t.TempDir(), "m.task")))

	resp, body := call(t, invokeURL(srv, bridge.DefaultEngineChannel), bridge.MethodGenerateTextStream, map[string]any{"prompt": "count"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%s", body)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	events, reply := readFrames(t, body)
	assert.Nil(t, reply.Error)
	assert.Nil(t, reply.Result)
	// "" + 4 word groups + full text + complete
	require.Len(t, events, 7)
	assert.Equal(t, types.EventStreamChunk, events[0].Method)
	assert.Equal(t, "", events[0].Args)

	prev := ""
	for _, e := range events[1:6] {
		s, _ := e.Args.(string)
		assert.Equal(t, types.EventStreamChunk, e.Method)
		assert.True(t, strings.HasPrefix(s, prev), "chunks grow cumulatively: prev=%q got=%q", prev, s)
		assert.True(t, len(s) > len(prev) || s == full, "chunks grow cumulatively: prev=%q got=%q", prev, s)
		prev = s
	}
	assert.Equal(t, full, prev)
	assert.Equal(t, types.EventStreamComplete, events[6].Method)
	assert.Nil(t, events[6].Args)
}

func TestE2E_StreamFailureEmitsOnError(t *testing.T) {
	loader := &enginetest.Loader{Respond: func(context.Context, string) (string, error) {
		return "", errors.New("decoder exploded")
	}}
	srv, sess := newEngineServer(t, loader)
	require.NoError(t, sess.Initialize(context.Background(), createModelFile(t, t.TempDir(), "m.task")))
	url := invokeURL(srv, bridge.DefaultEngineChannel)

	resp, body := call(t, url, bridge.MethodGenerateText, map[string]any{"prompt": "x"})
	expectCode(t, resp, body, http.StatusInternalServerError, channel.CodeGenerationError)

	resp, body = call(t, url, bridge.MethodGenerateTextStream, map[string]any{"prompt": "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events, reply := readFrames(t, body)
	require.NotNil(t, reply.Error)
	assert.Equal(t, channel.CodeStreamError, reply.Error.Code)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, types.EventError, last.Method)
	msg, _ := last.Args.(string)
	assert.Contains(t, msg, "decoder exploded")
	for _, e := range events {
		assert.NotEqual(t, types.EventStreamComplete, e.Method, "onStreamComplete must not follow a failure")
	}
}

func TestE2E_StreamBeforeInitRejectedWithoutEvents(t *testing.T) {
	srv, _ := newEngineServer(t, &enginetest.Loader{})
	resp, body := call(t, invokeURL(srv, bridge.DefaultEngineChannel), bridge.MethodGenerateTextStream, map[string]any{"prompt": "x"})
	expectCode(t, resp, body, http.StatusConflict, channel.CodeNotInitialized)
}

func TestE2E_InitFailure(t *testing.T) {
	srv, _ := newEngineServer(t, &enginetest.Loader{LoadErr: errors.New("bad bundle")})
	model := createModelFile(t, t.TempDir(), "m.task")
	resp, body := call(t, invokeURL(srv, bridge.DefaultEngineChannel), bridge.MethodInitializeModel, map[string]any{"modelPath": model})
	expectCode(t, resp, body, http.StatusInternalServerError, channel.CodeInitError)
	assert.Contains(t, decodeReply(t, body).Error.Message, "bad bundle")
}

func TestE2E_InitPathUnderRegularFile(t *testing.T) {
	loader := &enginetest.Loader{}
	srv, _ := newEngineServer(t, loader)
	file := createModelFile(t, t.TempDir(), "plain")
	resp, body := call(t, invokeURL(srv, bridge.DefaultEngineChannel), bridge.MethodInitializeModel, map[string]any{"modelPath": file + "/m.task"})
	expectCode(t, resp, body, http.StatusNotFound, channel.CodeModelNotFound)
	assert.Empty(t, loader.Loads())
}

func TestE2E_UnknownMethodAndChannel(t *testing.T) {
	srv, _ := newEngineServer(t, &enginetest.Loader{})
	resp, body := call(t, invokeURL(srv, bridge.DefaultEngineChannel), "summarize", nil)
	expectCode(t, resp, body, http.StatusNotImplemented, channel.CodeNotImplemented)

	resp, _ = call(t, invokeURL(srv, bridge.DefaultDemoChannel), bridge.MethodGenerateText, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "demo channel on engine server")
}

func TestE2E_DemoChannel(t *testing.T) {
	dir := t.TempDir()
	srv := newDemoServer(t, dir)
	url := invokeURL(srv, bridge.DefaultDemoChannel)

	resp, body := call(t, url, bridge.MethodGenerateText, map[string]any{"prompt": "How does PHOTOSYNTHESIS work?"})
	expectCode(t, resp, body, http.StatusOK, "")
	answer, _ := decodeReply(t, body).Result.(string)
	assert.True(t, strings.HasPrefix(answer, "Photosynthesis is how plants"), answer)

	resp, body = call(t, url, bridge.MethodGenerateText, nil)
	expectCode(t, resp, body, http.StatusBadRequest, channel.CodeInvalidArgument)

	resp, body = call(t, url, bridge.MethodIsModelReady, nil)
	expectCode(t, resp, body, http.StatusOK, "")
	assert.Equal(t, false, decodeReply(t, body).Result, "isModelReady without model")
	resp, _ = httpGet(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "/readyz without model")

	createModelFile(t, dir, "m.task")
	_, body = call(t, url, bridge.MethodIsModelReady, nil)
	assert.Equal(t, true, decodeReply(t, body).Result, "isModelReady with model")
	resp, _ = httpGet(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "/readyz with model")

	resp, body = call(t, url, bridge.MethodInitializeModel, map[string]any{"modelPath": "x"})
	expectCode(t, resp, body, http.StatusNotImplemented, channel.CodeNotImplemented)
}

func TestE2E_WebSocketStream(t *testing.T) {
	srv, sess := newEngineServer(t, &enginetest.Loader{Response: "alpha beta gamma"})
	require.NoError(t, sess.Initialize(context.Background(), createModelFile(t, t.TempDir(), "m.task")))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/channels/" + bridge.DefaultEngineChannel + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	mc := types.MethodCall{ID: "42", Method: bridge.MethodGenerateTextStream, Args: map[string]any{"prompt": "go"}}
	require.NoError(t, conn.WriteJSON(types.Frame{Type: types.FrameCall, Payload: mc}))

	var chunks []string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var f struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&f))
		require.Equal(t, "42", f.Payload["id"], "frame not correlated: %+v", f)
		if f.Type == types.FrameReply {
			require.Nil(t, f.Payload["error"])
			break
		}
		if f.Payload["method"] == types.EventStreamChunk {
			s, _ := f.Payload["args"].(string)
			chunks = append(chunks, s)
		}
	}
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "", chunks[0])
	assert.Equal(t, "alpha beta gamma", chunks[len(chunks)-1])
}
