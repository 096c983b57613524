package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the JSON-RPC version stamped on outbound messages.
const ProtocolVersion = "2.0"

// Message is the raw JSON representation of an outbound JSON-RPC message.
type Message []byte

// Request is an inbound request. The jsonrpc member is written by clients
// built on this package but is never required when decoding.
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc,omitempty"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// HasParams reports whether the request carried a non-null params member.
func (r *Request) HasParams() bool {
	return len(r.Params) > 0
}

// DecodeRequest parses a single request document. The only structural
// requirements are that data is a JSON object and that it carries a string
// method; unknown members are ignored. Member names are matched exactly, so
// {"METHOD": ...} has no method.
func DecodeRequest(data []byte) (*Request, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC request: %w", err)
	}

	rawMethod, ok := members["method"]
	if !ok || isNull(rawMethod) {
		return nil, ErrMissingMethod
	}
	var method string
	if err := json.Unmarshal(rawMethod, &method); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC method: %w", err)
	}

	var id *RequestID
	if rawID, ok := members["id"]; ok && !isNull(rawID) {
		id = &RequestID{}
		if err := id.UnmarshalJSON(rawID); err != nil {
			return nil, err
		}
	}

	var params json.RawMessage
	if rawParams, ok := members["params"]; ok && !isNull(rawParams) {
		params = rawParams
	}

	return &Request{
		Method: method,
		Params: params,
		ID:     id,
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Response is an outbound response. Every member is always present on the
// wire: id is null when the request had none, and exactly one of Result or
// Error is set while the other is written as null.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	ID             *RequestID      `json:"id"`
	Result         json.RawMessage `json:"result"`
	Error          *Error          `json:"error"`
}

// NewResultResponse builds a successful JSON-RPC response object.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Result:         resultBytes,
		ID:             id,
	}, nil
}

// NewErrorResponse builds an error JSON-RPC response with the given code.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// Notification is a server-initiated message without an id.
type Notification struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
}

// NewNotification encodes a notification for method with optional params.
func NewNotification(method string, params any) (Message, error) {
	n := Notification{JSONRPCVersion: ProtocolVersion, Method: method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		n.Params = b
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return b, nil
}
