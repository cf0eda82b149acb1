// Package dispatch routes decoded JSON-RPC requests to registered handlers.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"cib/internal/errors"
	"cib/internal/jsonrpc"
	"cib/internal/logging"
)

// Handler processes the params of a single request and returns a result
// value or a typed failure
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Dispatcher maps method names to handlers. Registration happens once at
// composition time; Dispatch is then read-only, so concurrent sessions
// can share one Dispatcher without locking.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *logging.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a handler to a method name
func (d *Dispatcher) Register(method string, handler Handler) {
	d.handlers[method] = handler
}

// Dispatch invokes the handler for the message's method and converts the
// outcome into a response message. Unknown methods and handler failures
// become error responses; they never take down the connection. A
// notification (no id) produces no response, so Dispatch returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *jsonrpc.Message) *jsonrpc.Message {
	handler, ok := d.handlers[msg.Method]
	if !ok {
		d.logger.Warn("Unknown method", map[string]interface{}{
			"method": msg.Method,
		})
		if msg.Id == nil {
			return nil
		}
		return jsonrpc.NewErrorResponse(msg.Id, jsonrpc.MethodNotFound,
			fmt.Sprintf("unknown method: %s", msg.Method))
	}

	result, err := handler(ctx, msg.Params)

	if msg.Id == nil {
		// Notification: the result has nowhere to go.
		return nil
	}

	if err != nil {
		d.logger.Debug("Handler returned error", map[string]interface{}{
			"method": msg.Method,
			"error":  err.Error(),
		})
		return jsonrpc.NewErrorResponse(msg.Id, rpcCode(err), err.Error())
	}

	return jsonrpc.NewResponse(msg.Id, result)
}

// rpcCode maps a typed handler failure to a JSON-RPC error code
func rpcCode(err error) int {
	switch errors.CodeOf(err) {
	case errors.ValidationFailed:
		return jsonrpc.InvalidParams
	case errors.SymbolNotFound:
		// Application-level code outside the reserved -32000..-32768 band.
		return -31404
	default:
		return jsonrpc.InternalError
	}
}
