package types

// MethodCall is a request sent by the client over a channel.
type MethodCall struct {
	// Optional correlation id echoed on the reply (WebSocket transport).
	// example: 7
	ID string `json:"id,omitempty" example:"7"`
	// Method name.
	// example: generateText
	Method string `json:"method" example:"generateText"`
	// Method arguments.
	Args map[string]any `json:"args,omitempty"`
}

// CallError is the error half of a reply.
type CallError struct {
	// Stable machine-readable code.
	// example: NOT_INITIALIZED
	Code string `json:"code" example:"NOT_INITIALIZED"`
	// Human-readable message, usually carrying the underlying error.
	// example: Model not initialized
	Message string `json:"message" example:"Model not initialized"`
	// Optional extra detail.
	Details any `json:"details,omitempty"`
}

// MethodReply is the single result of a MethodCall: Result on success,
// Error otherwise.
type MethodReply struct {
	ID     string     `json:"id,omitempty" example:"7"`
	Result any        `json:"result"`
	Error  *CallError `json:"error,omitempty"`
}

// Event is an out-of-band message pushed from the daemon to the client on
// the same channel (e.g. onStreamChunk).
type Event struct {
	// Correlation id of the emitting call (WebSocket transport only).
	ID string `json:"id,omitempty" example:"7"`
	// example: onStreamChunk
	Method string `json:"method" example:"onStreamChunk"`
	Args   any    `json:"args"`
}

// Outbound event names.
const (
	EventStreamChunk    = "onStreamChunk"
	EventStreamComplete = "onStreamComplete"
	EventError          = "onError"
)

// Frame types used by the NDJSON and WebSocket transports.
const (
	FrameCall  = "call"
	FrameReply = "reply"
	FrameEvent = "event"
	FrameError = "error"
)

// Frame wraps a call, reply or event for framed transports.
type Frame struct {
	// example: reply
	Type    string `json:"type" example:"reply"`
	Payload any    `json:"payload"`
}

// ErrorResponse is a transport-level JSON error payload (bad body, unknown
// channel), as opposed to a CallError inside a reply.
type ErrorResponse struct {
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Channel served by this process.
	// example: com.example.noor/gemma
	Channel string `json:"channel" example:"com.example.noor/gemma"`
	// Handler mode: engine or demo.
	// example: engine
	Mode string `json:"mode" example:"engine"`
	// Session state (engine mode): uninitialized, initializing, ready, disposed.
	// example: ready
	State string `json:"state,omitempty" example:"ready"`
	// Model file in use (engine mode) or located (demo mode).
	ModelPath string `json:"model_path,omitempty"`
	// Whether a usable model is available.
	Ready bool `json:"ready"`
	// Last error observed by the session, if any.
	LastError string `json:"last_error,omitempty"`
	// Unix time of the last successful model load.
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty"`
	// Total successful model loads.
	LoadsTotal uint64 `json:"loads_total"`
	// Total generation requests accepted.
	GenerationsTotal uint64 `json:"generations_total"`
	// Generations currently running on the engine.
	Inflight int `json:"inflight"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}
