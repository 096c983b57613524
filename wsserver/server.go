// Package wsserver exposes the request dispatcher over WebSocket. Every
// accepted connection becomes a session with its own outbound queue; text
// frames are decoded as JSON-RPC requests and answered on the same
// connection in arrival order.
package wsserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
	"github.com/ggoodman/katulong-mcp-host/internal/session"
	"golang.org/x/net/websocket"
)

const defaultPath = "/"

// ErrServerClosed is returned by Serve when the server is already serving
// or has been shut down. A Server serves at most once.
var ErrServerClosed = errors.New("wsserver: server closed")

// RequestHandler answers one decoded request. Implementations must be safe
// for concurrent use and must always return a response.
type RequestHandler interface {
	HandleRequest(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response
}

// Server accepts WebSocket connections and pumps JSON-RPC traffic between
// them and a RequestHandler.
type Server struct {
	handler  RequestHandler
	sessions *session.Set
	log      *slog.Logger
	path     string

	mu      sync.Mutex
	addr    net.Addr
	serving bool
	closed  bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets a custom logger for the Server.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPath sets the HTTP path the WebSocket handshake is served on.
func WithPath(p string) ServerOption {
	return func(s *Server) {
		if p != "" {
			s.path = p
		}
	}
}

// NewServer returns a server that dispatches to h and tracks live sessions
// in set.
func NewServer(h RequestHandler, set *session.Set, opts ...ServerOption) *Server {
	s := &Server{
		handler:  h,
		sessions: set,
		log:      slog.Default(),
		path:     defaultPath,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ListenAndServe binds addr and serves until ctx is cancelled. A bind failure
// is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or accepting fails.
// Cancellation closes the listener and every live connection and returns
// nil. Serve takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed || s.serving {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.serving = true
	s.addr = ln.Addr()
	s.mu.Unlock()

	httpSrv := &http.Server{
		Handler:     s.mux(ctx),
		BaseContext: func(net.Listener) context.Context { return ctx },
		ErrorLog:    slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}

	s.log.InfoContext(ctx, "ws.server.listening", slog.String("addr", ln.Addr().String()), slog.String("path", s.path))

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	var err error
	select {
	case <-ctx.Done():
		_ = httpSrv.Close()
		<-errCh
	case err = <-errCh:
		_ = httpSrv.Close()
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	// Upgraded connections are hijacked, so http.Server.Close does not
	// reach them.
	s.sessions.CloseAll()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.ErrorContext(ctx, "ws.server.accept.fail", slog.String("err", err.Error()))
		return fmt.Errorf("accept: %w", err)
	}
	s.log.InfoContext(ctx, "ws.server.stopped")
	return nil
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Broadcast enqueues msg on every live session and returns the number of
// sessions that accepted it.
func (s *Server) Broadcast(msg jsonrpc.Message) int {
	return s.sessions.Broadcast(msg)
}

func (s *Server) mux(ctx context.Context) http.Handler {
	ws := websocket.Server{
		// Any origin is accepted; local desktop clients rarely send one.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			s.serveConn(ctx, conn)
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, func(w http.ResponseWriter, r *http.Request) {
		s.log.DebugContext(r.Context(), "ws.handshake.begin", slog.String("remote_addr", r.RemoteAddr))
		ws.ServeHTTP(w, r)
	})
	return mux
}
