package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for invoke calls.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// WebSocket keepalive and size limits.
var (
	wsReadLimit  int64 = 512 * 1024
	wsPongWait         = 60 * time.Second
	wsPingPeriod       = 30 * time.Second
	wsWriteWait        = 10 * time.Second
)

// SetWSKeepalive sets the pong wait; pings are sent at half that interval.
// Non-positive values restore the default of 60s.
func SetWSKeepalive(pongWait time.Duration) {
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	wsPongWait = pongWait
	wsPingPeriod = pongWait / 2
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty method
// and header lists fall back to what the channel endpoints need.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
	if len(corsAllowedMethods) == 0 {
		corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(corsAllowedHeaders) == 0 {
		corsAllowedHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
	}
}
