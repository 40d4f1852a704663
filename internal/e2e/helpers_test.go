package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemmad/internal/bridge"
	"gemmad/internal/engine/enginetest"
	"gemmad/internal/httpapi"
	"gemmad/internal/locator"
	"gemmad/internal/session"
	"gemmad/internal/tutor"
	"gemmad/pkg/types"
)

// createModelFile writes an empty model bundle and returns its path.
func createModelFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(""), 0o644))
	return p
}

func newEngineServer(t *testing.T, loader *enginetest.Loader) (*httptest.Server, *session.Session) {
	t.Helper()
	sess := session.New(session.Config{
		Loader:        loader,
		Chunks:        4,
		ChunkInterval: time.Millisecond,
		Logger:        zerolog.Nop(),
	})
	t.Cleanup(sess.Dispose)
	srv := httptest.NewServer(httpapi.NewMux(bridge.NewEngineHandler("", sess)))
	t.Cleanup(srv.Close)
	return srv, sess
}

func newDemoServer(t *testing.T, modelDir string) *httptest.Server {
	t.Helper()
	loc := locator.New(locator.DefaultCandidates(modelDir, "m.task", nil), zerolog.Nop())
	h := bridge.NewDemoHandler("", tutor.New(tutor.DefaultTable(), loc, zerolog.Nop()))
	srv := httptest.NewServer(httpapi.NewMux(h))
	t.Cleanup(srv.Close)
	return srv
}

func invokeURL(srv *httptest.Server, channel string) string {
	return srv.URL + "/channels/" + channel + "/invoke"
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// call posts one method call and returns the HTTP status and raw body.
func call(t *testing.T, url, method string, args map[string]any) (*http.Response, []byte) {
	t.Helper()
	payload, _ := json.Marshal(types.MethodCall{Method: method, Args: args})
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func decodeReply(t *testing.T, body []byte) types.MethodReply {
	t.Helper()
	var r types.MethodReply
	require.NoError(t, json.Unmarshal(body, &r), "body=%s", body)
	return r
}

func expectCode(t *testing.T, resp *http.Response, body []byte, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode, "body=%s", body)
	r := decodeReply(t, body)
	if code == "" {
		assert.Nil(t, r.Error)
		return
	}
	require.NotNil(t, r.Error, "want code %s", code)
	assert.Equal(t, code, r.Error.Code)
}

type rawFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readFrames splits an NDJSON body into events and the trailing reply.
func readFrames(t *testing.T, body []byte) ([]types.Event, types.MethodReply) {
	t.Helper()
	var (
		events []types.Event
		reply  types.MethodReply
		seen   bool
	)
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		var f rawFrame
		require.NoError(t, json.Unmarshal(sc.Bytes(), &f), "line=%s", sc.Text())
		switch f.Type {
		case types.FrameEvent:
			require.False(t, seen, "event after reply: %s", sc.Text())
			var e types.Event
			require.NoError(t, json.Unmarshal(f.Payload, &e))
			events = append(events, e)
		case types.FrameReply:
			reply = decodeReply(t, f.Payload)
			seen = true
		default:
			require.Failf(t, "unexpected frame type", "%q", f.Type)
		}
	}
	require.True(t, seen, "no reply frame in %s", body)
	return events, reply
}
