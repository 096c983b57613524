package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandler_AddsContextGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(Handler{slog.NewJSONHandler(&buf, nil)})

	ctx := WithSessionData(context.Background(), &SessionData{SessionID: "s1", RemoteAddr: "127.0.0.1:1", State: "streaming"})
	ctx = WithRPCMessage(ctx, &RPCMessage{Method: "tools/list", ID: "7"})
	log.InfoContext(ctx, "engine.handle_request.ok")

	var rec struct {
		Msg  string            `json:"msg"`
		Sess map[string]string `json:"sess"`
		RPC  map[string]string `json:"rpc"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec.Sess["id"] != "s1" || rec.Sess["state"] != "streaming" {
		t.Fatalf("unexpected sess group: %v", rec.Sess)
	}
	if rec.RPC["method"] != "tools/list" || rec.RPC["id"] != "7" {
		t.Fatalf("unexpected rpc group: %v", rec.RPC)
	}
}

func TestHandler_WithAttrsKeepsDecoration(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(Handler{slog.NewJSONHandler(&buf, nil)}).With(slog.String("component", "ws"))

	ctx := WithSessionData(context.Background(), &SessionData{SessionID: "s2"})
	log.InfoContext(ctx, "ws.session.open")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["component"] != "ws" {
		t.Fatalf("expected component attr, got %v", rec)
	}
	if _, ok := rec["sess"]; !ok {
		t.Fatalf("expected sess group after With, got %v", rec)
	}
}

func TestHandler_AddsRequestGroup(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(Handler{slog.NewJSONHandler(&buf, nil)})

	ctx := WithRequestData(context.Background(), &RequestData{Method: "POST", Path: "/tools", RemoteAddr: "10.0.0.1:5"})
	log.InfoContext(ctx, "control.register_tool.ok")

	var rec struct {
		Req map[string]string `json:"req"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec.Req["method"] != "POST" || rec.Req["path"] != "/tools" {
		t.Fatalf("unexpected req group: %v", rec.Req)
	}
}
