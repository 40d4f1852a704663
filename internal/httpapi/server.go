// Package httpapi exposes a channel handler over HTTP: a request/response
// invoke endpoint that switches to NDJSON frames when the call emits events,
// a WebSocket endpoint carrying calls, replies and events, and the usual
// health, status and metrics endpoints.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gemmad/internal/channel"
	"gemmad/pkg/types"
)

// Service is the channel handler served by the HTTP layer.
type Service interface {
	channel.Handler
	// Mode names the handler kind reported by /status.
	Mode() string
	// Ready backs /readyz.
	Ready() bool
	Status() types.StatusResponse
	// FallbackCode is reported for failures the handler did not classify.
	FallbackCode() string
}

const (
	invokeSuffix = "/invoke"
	wsSuffix     = "/ws"
)

func NewMux(svc Service) http.Handler {
	started := time.Now()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	// Channel names contain slashes, so the channel is taken from the
	// wildcard minus the endpoint suffix. Escaped slashes work too.
	r.Post("/channels/*", func(w http.ResponseWriter, r *http.Request) {
		name, ok := channelFromPath(r, invokeSuffix)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if name != svc.Name() {
			writeJSONError(w, http.StatusNotFound, "unknown channel: "+name)
			return
		}
		serveInvoke(svc, w, r)
	})
	r.Get("/channels/*", func(w http.ResponseWriter, r *http.Request) {
		name, ok := channelFromPath(r, wsSuffix)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if name != svc.Name() {
			writeJSONError(w, http.StatusNotFound, "unknown channel: "+name)
			return
		}
		serveWS(svc, w, r)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		st := svc.Status()
		now := time.Now()
		st.UptimeSeconds = int64(now.Sub(started).Seconds())
		st.ServerTimeUnix = now.Unix()
		writeJSON(w, http.StatusOK, st)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func channelFromPath(r *http.Request, suffix string) (string, bool) {
	rest := chi.URLParam(r, "*")
	if !strings.HasSuffix(rest, suffix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimSuffix(rest, suffix))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// serveInvoke runs one method call. Without events the reply is a plain JSON
// object whose HTTP status follows the error code. Once the call emits an
// event the response is committed as NDJSON frames and the reply arrives as
// the last frame.
func serveInvoke(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var call types.MethodCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(call.Method) == "" {
		writeJSONError(w, http.StatusBadRequest, "method is required")
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	logCall(r, lvl, "invoke start", svc.Name(), call.Method, 0, time.Time{}, nil)

	// Shutdown cancels the call as well as a client disconnect.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	sink := newFrameSink(w, lvl)
	reply := channel.Dispatch(ctx, svc, call, sink, svc.FallbackCode())
	channelCallsTotal.WithLabelValues("invoke", call.Method, replyCode(reply)).Inc()
	if r.Context().Err() != nil {
		return
	}

	var callErr error
	if reply.Error != nil {
		callErr = &channel.Error{Code: reply.Error.Code, Message: reply.Error.Message}
	}
	if sink.committed() {
		_ = sink.write(types.Frame{Type: types.FrameReply, Payload: reply})
		logCall(r, lvl, "invoke end", svc.Name(), call.Method, http.StatusOK, start, callErr)
		return
	}
	status := replyStatus(reply)
	writeJSON(w, status, reply)
	logCall(r, lvl, "invoke end", svc.Name(), call.Method, status, start, callErr)
}

// frameSink commits the response to NDJSON on the first event.
type frameSink struct {
	mu    sync.Mutex
	w     http.ResponseWriter
	enc   *json.Encoder
	flush func()
	open  bool
}

func newFrameSink(w http.ResponseWriter, lvl LogLevel) *frameSink {
	out := io.Writer(w)
	if lvl >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{prefix: "invoke"})
	}
	s := &frameSink{w: w, enc: json.NewEncoder(out)}
	if f, ok := w.(http.Flusher); ok {
		s.flush = f.Flush
	}
	return s
}

func (s *frameSink) Emit(e types.Event) error {
	channelEventsTotal.WithLabelValues("invoke", e.Method).Inc()
	return s.write(types.Frame{Type: types.FrameEvent, Payload: e})
}

func (s *frameSink) write(f types.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.w.WriteHeader(http.StatusOK)
		s.open = true
	}
	if err := s.enc.Encode(f); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}

func (s *frameSink) committed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
