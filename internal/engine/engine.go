package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
	"github.com/ggoodman/katulong-mcp-host/internal/logctx"
	"github.com/ggoodman/katulong-mcp-host/mcp"
)

const (
	defaultServerName    = "katulong-mcp-host"
	defaultServerVersion = "0.1.0"

	toolCallPlaceholder     = "Tool execution not implemented yet"
	resourceReadPlaceholder = "Resource content not implemented yet"
	resourceReadURI         = "example://resource"
	resourceReadMimeType    = "text/plain"
)

// Lister is the read side of a registry.
type Lister interface {
	List() []json.RawMessage
}

// Engine maps a decoded request onto a response. It holds no per-connection
// state and is safe for concurrent use by every session.
type Engine struct {
	tools     Lister
	resources Lister
	log       *slog.Logger

	serverName      string
	serverVersion   string
	protocolVersion string
	listChanged     bool
}

func NewEngine(tools, resources Lister, opts ...EngineOption) *Engine {
	e := &Engine{
		tools:           tools,
		resources:       resources,
		log:             slog.Default(),
		serverName:      defaultServerName,
		serverVersion:   defaultServerVersion,
		protocolVersion: mcp.LatestProtocolVersion,
		listChanged:     true,
	}

	// Apply options (order matters; later options override earlier ones).
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithServerInfo overrides the name and version reported by initialize.
// Empty values keep the defaults.
func WithServerInfo(name, version string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.serverName = name
		}
		if version != "" {
			e.serverVersion = version
		}
	}
}

// WithProtocolVersion overrides the protocol revision reported by initialize.
func WithProtocolVersion(v string) EngineOption {
	return func(e *Engine) {
		if v != "" {
			e.protocolVersion = v
		}
	}
}

// WithListChanged controls the listChanged flag advertised for tools and
// resources.
func WithListChanged(enabled bool) EngineOption {
	return func(e *Engine) { e.listChanged = enabled }
}

// HandleRequest dispatches req and always returns a well-formed response
// carrying the request's id. Protocol failures are reported in the
// response's error member, never as a Go error.
func (e *Engine) HandleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String()})

	switch req.Method {
	case string(mcp.InitializeMethod):
		return e.handleInitialize(ctx, req)
	case string(mcp.ToolsListMethod):
		return e.handleToolsList(ctx, req)
	case string(mcp.ToolsCallMethod):
		return e.handleToolCall(ctx, req)
	case string(mcp.ResourcesListMethod):
		return e.handleResourcesList(ctx, req)
	case string(mcp.ResourcesReadMethod):
		return e.handleResourcesRead(ctx, req)
	}

	e.log.InfoContext(ctx, "engine.handle_request.unsupported", slog.String("method", req.Method))
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
}

// InitializeResult returns the handshake payload advertised by this engine.
func (e *Engine) InitializeResult() *mcp.InitializeResult {
	return &mcp.InitializeResult{
		ProtocolVersion: e.protocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools:     &mcp.ToolsCapability{ListChanged: e.listChanged},
			Resources: &mcp.ResourcesCapability{ListChanged: e.listChanged},
		},
		ServerInfo: mcp.ImplementationInfo{
			Name:    e.serverName,
			Version: e.serverVersion,
		},
	}
}

func (e *Engine) handleInitialize(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	// Client info is informational; a malformed params object is not fatal.
	var params mcp.InitializeRequest
	if req.HasParams() {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.DebugContext(ctx, "engine.handle_request.params_ignored", slog.String("err", err.Error()))
		}
	}

	log.InfoContext(ctx, "engine.handle_request.ok",
		slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_protocol_version", params.ProtocolVersion),
	)
	return e.result(ctx, log, req, e.InitializeResult())
}

func (e *Engine) handleToolsList(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	result := &mcp.ListToolsResult{Tools: e.tools.List()}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("tool_count", len(result.Tools)))
	return e.result(ctx, log, req, result)
}

func (e *Engine) handleToolCall(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.CallToolRequest
	switch {
	case !req.HasParams():
		log.WarnContext(ctx, "engine.handle_request.missing_params")
	default:
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.WarnContext(ctx, "engine.handle_request.invalid_params", slog.String("err", err.Error()))
		}
	}

	result := &mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: toolCallPlaceholder}},
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.String("tool", params.Name))
	return e.result(ctx, log, req, result)
}

func (e *Engine) handleResourcesList(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	result := &mcp.ListResourcesResult{Resources: e.resources.List()}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.Int("resource_count", len(result.Resources)))
	return e.result(ctx, log, req, result)
}

func (e *Engine) handleResourcesRead(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	var params mcp.ReadResourceRequest
	if req.HasParams() {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			log.DebugContext(ctx, "engine.handle_request.params_ignored", slog.String("err", err.Error()))
		}
	}

	result := &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{{
			URI:      resourceReadURI,
			MimeType: resourceReadMimeType,
			Text:     resourceReadPlaceholder,
		}},
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()), slog.String("uri", params.URI))
	return e.result(ctx, log, req, result)
}

func (e *Engine) result(ctx context.Context, log *slog.Logger, req *jsonrpc.Request, v any) *jsonrpc.Response {
	res, err := jsonrpc.NewResultResponse(req.ID, v)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return res
}
