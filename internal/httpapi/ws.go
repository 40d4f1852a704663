package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gemmad/internal/channel"
	"gemmad/pkg/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts any origin unless CORS is enabled with an explicit
// origin list.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if !corsEnabled || origin == "" || len(corsAllowedOrigins) == 0 {
		return true
	}
	for _, o := range corsAllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

var errConnClosed = errors.New("websocket connection closed")

// wsConn is one client connection. Calls run on their own goroutines; all
// outbound frames go through send and are written by a single writer, so the
// client sees events and replies in the order they were produced.
type wsConn struct {
	id    string
	conn  *websocket.Conn
	svc   Service
	send  chan []byte
	ctx   context.Context
	calls sync.WaitGroup
	log   zerolog.Logger
}

func serveWS(svc Service, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		if zlog != nil {
			zlog.Warn().Err(err).Msg("websocket upgrade failed")
		}
		return
	}
	// The request context ends when this handler returns, which is when the
	// read loop sees the connection close.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	c := &wsConn{
		id:   uuid.NewString(),
		conn: conn,
		svc:  svc,
		send: make(chan []byte, 64),
		ctx:  ctx,
		log:  zerolog.Nop(),
	}
	if zlog != nil {
		c.log = zlog.With().Str("conn_id", c.id).Str("channel", svc.Name()).Logger()
	}
	wsConnections.Inc()
	c.log.Info().Msg("websocket connected")

	written := make(chan struct{})
	go func() {
		c.writePump()
		close(written)
	}()
	c.readPump()
	cancel()
	<-written
	c.calls.Wait()
	_ = conn.Close()
	wsConnections.Dec()
	c.log.Info().Msg("websocket disconnected")
}

func (c *wsConn) readPump() {
	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		var f struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg, &f); err != nil {
			c.sendError(http.StatusBadRequest, "invalid JSON frame")
			continue
		}
		if f.Type != types.FrameCall {
			c.sendError(http.StatusBadRequest, "unsupported frame type: "+f.Type)
			continue
		}
		var call types.MethodCall
		if err := json.Unmarshal(f.Payload, &call); err != nil {
			c.sendError(http.StatusBadRequest, "invalid call payload")
			continue
		}
		if call.Method == "" {
			c.sendError(http.StatusBadRequest, "method is required")
			continue
		}
		c.calls.Add(1)
		go c.handle(call)
	}
}

func (c *wsConn) handle(call types.MethodCall) {
	defer c.calls.Done()
	c.log.Debug().Str("method", call.Method).Str("call_id", call.ID).Msg("call")
	sink := channel.SinkFunc(func(e types.Event) error {
		e.ID = call.ID
		channelEventsTotal.WithLabelValues("ws", e.Method).Inc()
		return c.enqueue(types.Frame{Type: types.FrameEvent, Payload: e})
	})
	reply := channel.Dispatch(c.ctx, c.svc, call, sink, c.svc.FallbackCode())
	channelCallsTotal.WithLabelValues("ws", call.Method, replyCode(reply)).Inc()
	if err := c.enqueue(types.Frame{Type: types.FrameReply, Payload: reply}); err != nil {
		c.log.Debug().Str("method", call.Method).Msg("reply dropped, connection closed")
	}
}

func (c *wsConn) sendError(status int, msg string) {
	_ = c.enqueue(types.Frame{Type: types.FrameError, Payload: types.ErrorResponse{Error: msg, Code: status}})
}

func (c *wsConn) enqueue(f types.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case c.send <- b:
		return nil
	case <-c.ctx.Done():
		return errConnClosed
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				// Unblock the reader; it cancels the connection's calls.
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			// Server shutdown: the reader is still blocked, so close the socket.
			_ = c.conn.Close()
			return
		}
	}
}
