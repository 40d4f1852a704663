package httpapi

import (
	"encoding/json"
	"net/http"

	"gemmad/internal/channel"
	"gemmad/pkg/types"
)

// writeJSONError writes a transport-level JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// replyStatus maps a reply onto the HTTP status of a plain invoke response.
func replyStatus(reply types.MethodReply) int {
	if reply.Error == nil {
		return http.StatusOK
	}
	return channel.StatusForCode(reply.Error.Code)
}

// replyCode is the metrics label for a reply outcome.
func replyCode(reply types.MethodReply) string {
	if reply.Error == nil {
		return "OK"
	}
	return reply.Error.Code
}
