// Package host assembles the katulong MCP host: the tool and resource
// registries, the request dispatcher, the WebSocket server and the optional
// control API and catalog watcher. Host also implements the control surface
// the desktop shell drives.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/ggoodman/katulong-mcp-host/catalog"
	"github.com/ggoodman/katulong-mcp-host/controlhttp"
	"github.com/ggoodman/katulong-mcp-host/internal/engine"
	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
	"github.com/ggoodman/katulong-mcp-host/internal/session"
	"github.com/ggoodman/katulong-mcp-host/mcp"
	"github.com/ggoodman/katulong-mcp-host/registry"
	"github.com/ggoodman/katulong-mcp-host/wsserver"
	"golang.org/x/sync/errgroup"
)

// DefaultAddr is the WebSocket listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8888"

var (
	// ErrEmptyName is returned when registering a definition without a name.
	ErrEmptyName = fmt.Errorf("%w: name must not be empty", controlhttp.ErrInvalidRegistration)
	// ErrInvalidDefinition is returned when a definition is not valid JSON.
	ErrInvalidDefinition = fmt.Errorf("%w: definition must be valid JSON", controlhttp.ErrInvalidRegistration)
)

// Host owns every long-lived component of the server.
type Host struct {
	tools     *registry.Registry
	resources *registry.Registry
	sessions  *session.Set
	engine    *engine.Engine
	server    *wsserver.Server
	log       *slog.Logger

	addr         string
	ln           net.Listener
	wsPath       string
	listChanged  bool
	controlAddr  string
	catalogDir   string
	catalogWatch bool
	serverName   string
	version      string

	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets a custom logger for the Host and every component it builds.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithAddr sets the WebSocket listen address.
func WithAddr(addr string) Option {
	return func(h *Host) {
		if addr != "" {
			h.addr = addr
		}
	}
}

// WithListener makes Run serve on ln instead of binding the configured
// address.
func WithListener(ln net.Listener) Option {
	return func(h *Host) { h.ln = ln }
}

// WithPath sets the HTTP path of the WebSocket handshake.
func WithPath(p string) Option {
	return func(h *Host) { h.wsPath = p }
}

// WithServerInfo overrides the name and version reported to clients.
func WithServerInfo(name, version string) Option {
	return func(h *Host) {
		h.serverName = name
		h.version = version
	}
}

// WithListChanged toggles list_changed notifications after registrations.
func WithListChanged(enabled bool) Option {
	return func(h *Host) { h.listChanged = enabled }
}

// WithControlAddr enables the control HTTP API on addr.
func WithControlAddr(addr string) Option {
	return func(h *Host) { h.controlAddr = addr }
}

// WithCatalog loads definitions from dir at startup and, if watch is set,
// whenever a catalog file changes.
func WithCatalog(dir string, watch bool) Option {
	return func(h *Host) {
		h.catalogDir = dir
		h.catalogWatch = watch
	}
}

// New builds a host. Nothing is bound until Run.
func New(opts ...Option) *Host {
	h := &Host{
		tools:       registry.New(),
		resources:   registry.New(),
		sessions:    session.NewSet(),
		log:         slog.Default(),
		addr:        DefaultAddr,
		listChanged: true,
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	h.engine = engine.NewEngine(h.tools, h.resources,
		engine.WithLogger(h.log),
		engine.WithServerInfo(h.serverName, h.version),
		engine.WithListChanged(h.listChanged),
	)
	h.server = wsserver.NewServer(h.engine, h.sessions,
		wsserver.WithLogger(h.log),
		wsserver.WithPath(h.wsPath),
	)
	return h
}

// RegisterTool stores definition under name, replacing any previous tool of
// the same name.
func (h *Host) RegisterTool(name string, definition json.RawMessage) (string, error) {
	if err := validate(name, definition); err != nil {
		return "", err
	}
	h.tools.Put(name, definition)
	h.log.Info("host.register_tool.ok", slog.String("name", name))
	return fmt.Sprintf("Tool '%s' registered successfully", name), nil
}

// RegisterResource stores definition under name, replacing any previous
// resource of the same name.
func (h *Host) RegisterResource(name string, definition json.RawMessage) (string, error) {
	if err := validate(name, definition); err != nil {
		return "", err
	}
	h.resources.Put(name, definition)
	h.log.Info("host.register_resource.ok", slog.String("name", name))
	return fmt.Sprintf("Resource '%s' registered successfully", name), nil
}

// ServerStatus reports the address the WebSocket server runs on.
func (h *Host) ServerStatus() string {
	return fmt.Sprintf("MCP Server running on %s", h.Addr())
}

// Status implements controlhttp.Surface.
func (h *Host) Status() controlhttp.Status {
	return controlhttp.Status{
		Status:    h.ServerStatus(),
		Sessions:  h.sessions.Len(),
		Tools:     h.tools.Len(),
		Resources: h.resources.Len(),
	}
}

// Addr is the bound WebSocket address once serving, the configured address
// before.
func (h *Host) Addr() string {
	if a := h.server.Addr(); a != nil {
		return a.String()
	}
	if h.ln != nil {
		return h.ln.Addr().String()
	}
	return h.addr
}

// Ready is closed once Run has loaded the catalog and started serving
// components. It stays open if Run fails before that point.
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Run serves until ctx is cancelled or a component fails. The catalog, when
// configured, is loaded before the first connection is accepted.
func (h *Host) Run(ctx context.Context) error {
	defer h.tools.Close()
	defer h.resources.Close()

	var loader *catalog.Loader
	if h.catalogDir != "" {
		loader = catalog.NewLoader(h.catalogDir, h, catalog.WithLogger(h.log))
		if _, err := loader.Load(); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if h.listChanged {
		toolChanges := h.tools.Subscribe()
		resourceChanges := h.resources.Subscribe()
		g.Go(func() error {
			return h.fanOut(ctx, toolChanges, mcp.ToolsListChangedNotificationMethod)
		})
		g.Go(func() error {
			return h.fanOut(ctx, resourceChanges, mcp.ResourcesListChangedNotificationMethod)
		})
	}

	g.Go(func() error {
		if h.ln != nil {
			return h.server.Serve(ctx, h.ln)
		}
		return h.server.ListenAndServe(ctx, h.addr)
	})

	if h.controlAddr != "" {
		handler := controlhttp.NewHandler(h, controlhttp.WithLogger(h.log))
		g.Go(func() error {
			return controlhttp.ListenAndServe(ctx, h.controlAddr, handler, h.log)
		})
	}

	if loader != nil && h.catalogWatch {
		g.Go(func() error {
			if err := loader.Watch(ctx); err != nil {
				// Registrations through the other surfaces keep working.
				h.log.WarnContext(ctx, "host.catalog_watch.fail", slog.String("err", err.Error()))
			}
			return nil
		})
	}

	h.readyOnce.Do(func() { close(h.ready) })

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// fanOut broadcasts a list_changed notification to every session each time
// changes fires.
func (h *Host) fanOut(ctx context.Context, changes <-chan struct{}, method mcp.Method) error {
	note, err := jsonrpc.NewNotification(string(method), mcp.ListChangedNotification{})
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			n := h.server.Broadcast(note)
			h.log.DebugContext(ctx, "host.list_changed.broadcast", slog.String("method", string(method)), slog.Int("sessions", n))
		}
	}
}

func validate(name string, definition json.RawMessage) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(definition) == 0 || !json.Valid(definition) {
		return ErrInvalidDefinition
	}
	return nil
}
