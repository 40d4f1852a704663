// Package channel defines the method-channel contract shared by every
// transport: a named pathway carrying a method name plus argument map in,
// and a single result or (code, message) error out, with optional events
// pushed back to the caller while the call runs.
package channel

import (
	"context"
	"fmt"

	"gemmad/pkg/types"
)

// Handler serves the methods of one named channel.
type Handler interface {
	// Name is the channel name, e.g. "com.example.noor/gemma".
	Name() string
	// Invoke runs call. Events emitted on sink before Invoke returns belong
	// to this call. The returned error should be an *Error; anything else is
	// reported under the handler's generic code by Dispatch.
	Invoke(ctx context.Context, call types.MethodCall, sink EventSink) (any, error)
}

// Dispatch invokes h and converts the outcome into a reply. It never panics:
// a panicking handler is reported as fallbackCode.
func Dispatch(ctx context.Context, h Handler, call types.MethodCall, sink EventSink, fallbackCode string) (reply types.MethodReply) {
	reply.ID = call.ID
	defer func() {
		if r := recover(); r != nil {
			reply.Result = nil
			reply.Error = &types.CallError{Code: fallbackCode, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	if sink == nil {
		sink = Discard
	}
	res, err := h.Invoke(ctx, call, sink)
	if err != nil {
		ce := AsError(err, fallbackCode)
		reply.Error = &types.CallError{Code: ce.Code, Message: ce.Message, Details: ce.Details}
		return reply
	}
	reply.Result = res
	return reply
}
