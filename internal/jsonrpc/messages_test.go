package jsonrpc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantErr    error
		anyErr     bool
		wantMethod string
		wantParams bool
		wantID     string
	}{
		{name: "full", in: `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`, wantMethod: "tools/list", wantParams: true, wantID: "1"},
		{name: "no jsonrpc member", in: `{"id":"a","method":"initialize"}`, wantMethod: "initialize", wantID: "a"},
		{name: "numeric jsonrpc member ignored", in: `{"jsonrpc":2,"method":"initialize"}`, wantMethod: "initialize"},
		{name: "null params", in: `{"method":"tools/call","params":null}`, wantMethod: "tools/call"},
		{name: "object id", in: `{"method":"x","id":{"k":[1,2]}}`, wantMethod: "x", wantID: `{"k":[1,2]}`},
		{name: "empty method is still a method", in: `{"method":""}`, wantMethod: ""},
		{name: "missing method", in: `{"id":1}`, wantErr: ErrMissingMethod},
		{name: "null method", in: `{"method":null}`, wantErr: ErrMissingMethod},
		{name: "json null document", in: `null`, wantErr: ErrMissingMethod},
		{name: "numeric method", in: `{"method":7}`, anyErr: true},
		{name: "array document", in: `[{"method":"initialize"}]`, anyErr: true},
		{name: "not json", in: `hello there`, anyErr: true},
		{name: "upper-case member names", in: `{"ID":7,"METHOD":"tools/list"}`, wantErr: ErrMissingMethod},
		{name: "mixed-case method member", in: `{"Method":"initialize"}`, wantErr: ErrMissingMethod},
		{name: "upper-case id ignored", in: `{"ID":7,"method":"tools/list"}`, wantMethod: "tools/list"},
		{name: "upper-case params ignored", in: `{"method":"tools/call","Params":{}}`, wantMethod: "tools/call"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tc.in))
			if tc.wantErr != nil || tc.anyErr {
				if err == nil {
					t.Fatalf("expected error, got request %+v", req)
				}
				if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeRequest: %v", err)
			}
			if req.Method != tc.wantMethod {
				t.Fatalf("method: got %q want %q", req.Method, tc.wantMethod)
			}
			if req.HasParams() != tc.wantParams {
				t.Fatalf("params presence: got %v want %v", req.HasParams(), tc.wantParams)
			}
			if got := req.ID.String(); got != tc.wantID {
				t.Fatalf("id: got %q want %q", got, tc.wantID)
			}
		})
	}
}

func TestResponseEchoesIDVerbatim(t *testing.T) {
	ids := []string{`"x"`, `42`, `4.5`, `{"a":"b"}`, `[1,"two"]`}
	for _, raw := range ids {
		req, err := DecodeRequest([]byte(`{"method":"m","id":` + raw + `}`))
		if err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		b, err := json.Marshal(NewErrorResponse(req.ID, ErrorCodeMethodNotFound, "nope", nil))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if string(out.ID) != raw {
			t.Fatalf("id not echoed: got %s want %s", out.ID, raw)
		}
	}
}

func TestResponseWithoutIDWritesNull(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"method":"initialize"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, err := NewResultResponse(req.ID, map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("NewResultResponse: %v", err)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(m["id"]) != "null" {
		t.Fatalf("expected null id, got %s", m["id"])
	}
	if got, ok := m["error"]; !ok || string(got) != "null" {
		t.Fatalf("result response must carry error:null: %s", b)
	}
	if string(m["jsonrpc"]) != `"2.0"` {
		t.Fatalf("expected jsonrpc 2.0, got %s", m["jsonrpc"])
	}
}

func TestNewNotification(t *testing.T) {
	msg, err := NewNotification("notifications/tools/list_changed", nil)
	if err != nil {
		t.Fatalf("NewNotification: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["id"]; ok {
		t.Fatalf("notification must not carry an id: %s", msg)
	}
	if _, ok := m["params"]; ok {
		t.Fatalf("expected params to be omitted: %s", msg)
	}
	if string(m["method"]) != `"notifications/tools/list_changed"` {
		t.Fatalf("unexpected method: %s", m["method"])
	}
}

func TestErrorResponseWritesNullResult(t *testing.T) {
	b, err := json.Marshal(NewErrorResponse(NewRequestID("x"), ErrorCodeMethodNotFound, "Method not found: unknown/method", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := m["result"]; !ok || string(got) != "null" {
		t.Fatalf("error response must carry result:null: %s", b)
	}
	if got := string(m["error"]); got == "" || got == "null" {
		t.Fatalf("expected error object: %s", b)
	}
}
