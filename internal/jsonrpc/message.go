// Package jsonrpc implements the minimal JSON-RPC message model and the
// Content-Length stream framing used by the pipe transport.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Message represents a JSON-RPC 2.0 message
type Message struct {
	Jsonrpc string          `json:"jsonrpc,omitempty"`
	Id      *int            `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RpcError       `json:"error,omitempty"`
}

// RpcError represents a JSON-RPC error
type RpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// IsRequest reports whether the message carries a method to invoke
func (m *Message) IsRequest() bool {
	return m.Method != ""
}

// IsResponse reports whether the message answers an earlier request
func (m *Message) IsResponse() bool {
	return m.Method == "" && m.Id != nil
}

// NewRequest builds a request message, marshalling params in place
func NewRequest(id int, method string, params interface{}) (*Message, error) {
	msg := &Message{
		Jsonrpc: "2.0",
		Id:      &id,
		Method:  method,
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		msg.Params = raw
	}

	return msg, nil
}

// NewResponse builds a success response correlated with the request id
func NewResponse(id *int, result interface{}) *Message {
	return &Message{
		Jsonrpc: "2.0",
		Id:      id,
		Result:  result,
	}
}

// NewErrorResponse builds an error response correlated with the request id
func NewErrorResponse(id *int, code int, message string) *Message {
	return &Message{
		Jsonrpc: "2.0",
		Id:      id,
		Error: &RpcError{
			Code:    code,
			Message: message,
		},
	}
}
