package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RequestID is the correlation id of a request. The server never interprets
// it: whatever JSON value the client sent is echoed back byte for byte.
type RequestID struct {
	raw json.RawMessage
}

// NewRequestID marshals value into a RequestID. It is mostly useful to
// clients and tests; the server only ever decodes ids.
func NewRequestID(value any) *RequestID {
	b, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return &RequestID{raw: b}
}

// String returns a log-friendly form of the id: strings are unquoted, every
// other JSON value is returned as its compact text.
func (id *RequestID) String() string {
	if id.IsNil() {
		return ""
	}
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, id.raw); err != nil {
		return string(id.raw)
	}
	return buf.String()
}

// Raw returns the id exactly as it appeared on the wire.
func (id *RequestID) Raw() json.RawMessage {
	if id == nil {
		return nil
	}
	return id.raw
}

// IsNil reports whether the request carried no id (or an explicit null).
func (id *RequestID) IsNil() bool {
	if id == nil {
		return true
	}
	return len(id.raw) == 0 || bytes.Equal(id.raw, []byte("null"))
}

// MarshalJSON implements json.Marshaler.
func (id *RequestID) MarshalJSON() ([]byte, error) {
	if id.IsNil() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON-RPC id: %s", string(data))
	}
	id.raw = append(id.raw[:0], data...)
	return nil
}
