// Package controlhttp serves the host's control surface over HTTP so that
// an external shell can register tools and resources and query status.
package controlhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/katulong-mcp-host/internal/logctx"
)

const maxBodyBytes = 4 << 20

var jsonMediaType = contenttype.NewMediaType("application/json")

// Status is the body of GET /status.
type Status struct {
	Status    string `json:"status"`
	Sessions  int    `json:"sessions"`
	Tools     int    `json:"tools"`
	Resources int    `json:"resources"`
}

// Surface is the set of control operations exposed over HTTP.
type Surface interface {
	RegisterTool(name string, definition json.RawMessage) (string, error)
	RegisterResource(name string, definition json.RawMessage) (string, error)
	Status() Status
}

// ErrInvalidRegistration marks a registration the surface refused because
// of its content. Such errors are reported as 400.
var ErrInvalidRegistration = errors.New("invalid registration")

type registration struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
}

// Handler routes control requests to a Surface.
type Handler struct {
	surface Surface
	log     *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets a custom logger for the Handler.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler returns an http.Handler serving POST /tools, POST /resources
// and GET /status.
func NewHandler(s Surface, opts ...Option) *Handler {
	h := &Handler{surface: s, log: slog.Default(), mux: http.NewServeMux()}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	h.mux.HandleFunc("POST /tools", func(w http.ResponseWriter, r *http.Request) {
		h.handleRegister(w, r, "tool", h.surface.RegisterTool)
	})
	h.mux.HandleFunc("POST /resources", func(w http.ResponseWriter, r *http.Request) {
		h.handleRegister(w, r, "resource", h.surface.RegisterResource)
	})
	h.mux.HandleFunc("GET /status", h.handleStatus)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
	})))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request, kind string, register func(string, json.RawMessage) (string, error)) {
	ctx := r.Context()

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		h.log.WarnContext(ctx, "control.content_type.unsupported")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read body")
		h.log.WarnContext(ctx, "control.body.read.fail", slog.String("err", err.Error()))
		return
	}

	var reg registration
	if err := json.Unmarshal(body, &reg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		h.log.InfoContext(ctx, "control.register.invalid", slog.String("kind", kind), slog.String("err", err.Error()))
		return
	}

	msg, err := register(reg.Name, reg.Definition)
	if err != nil {
		if errors.Is(err, ErrInvalidRegistration) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			h.log.InfoContext(ctx, "control.register.invalid", slog.String("kind", kind), slog.String("err", err.Error()))
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		h.log.ErrorContext(ctx, "control.register.fail", slog.String("kind", kind), slog.String("err", err.Error()))
		return
	}

	h.log.InfoContext(ctx, "control.register.ok", slog.String("kind", kind), slog.String("name", reg.Name))
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.surface.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// ListenAndServe serves h on addr until ctx is cancelled. A bind failure is
// returned immediately; cancellation returns nil.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return ctx },
		ErrorLog:    slog.NewLogLogger(log.Handler(), slog.LevelDebug),
	}

	log.InfoContext(ctx, "control.server.listening", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control api: %w", err)
	}
}
