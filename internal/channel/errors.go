package channel

import (
	"errors"
	"net/http"
)

// Error codes reported across the channel boundary.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeModelNotFound   = "MODEL_NOT_FOUND"
	CodeInitError       = "INIT_ERROR"
	CodeNotInitialized  = "NOT_INITIALIZED"
	CodeGenerationError = "GENERATION_ERROR"
	CodeStreamError     = "STREAM_ERROR"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
)

// Error is a failure converted to its (code, message) form.
type Error struct {
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// StatusCode maps the code onto an HTTP status for the invoke endpoint.
func (e *Error) StatusCode() int { return StatusForCode(e.Code) }

// StatusForCode maps an error code onto an HTTP status. Unknown codes are
// server errors.
func StatusForCode(code string) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeModelNotFound:
		return http.StatusNotFound
	case CodeNotInitialized:
		return http.StatusConflict
	case CodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// NewError returns an *Error with the given code and message.
func NewError(code, msg string) *Error { return &Error{Code: code, Message: msg} }

// NotImplemented reports an unknown method.
func NotImplemented(method string) *Error {
	return &Error{Code: CodeNotImplemented, Message: "method not implemented: " + method}
}

// AsError returns err as an *Error, wrapping foreign errors under fallbackCode.
func AsError(err error, fallbackCode string) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Code: fallbackCode, Message: err.Error()}
}
