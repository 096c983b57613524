package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
	"github.com/ggoodman/katulong-mcp-host/internal/logctx"
	"github.com/ggoodman/katulong-mcp-host/internal/session"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

// serveConn runs one connection from handshake to teardown. It blocks for
// the lifetime of the connection.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	start := time.Now()
	remote := ""
	if r := conn.Request(); r != nil {
		remote = r.RemoteAddr
	}

	sess := session.New(remote)
	s.sessions.Add(sess)

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{
		SessionID:  sess.ID(),
		RemoteAddr: remote,
		State:      session.StateStreaming.String(),
	})
	log := s.log.With(slog.String("component", "ws"))

	defer func() {
		s.sessions.Remove(sess.ID())
		sess.Close()
		_ = conn.Close()
		log.InfoContext(ctx, "ws.session.closed", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	}()

	sess.Advance(session.StateStreaming)
	log.InfoContext(ctx, "ws.session.open")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx, log, sess, conn) })
	g.Go(func() error { return s.writeLoop(gctx, log, sess, conn) })
	if err := g.Wait(); err != nil {
		log.WarnContext(ctx, "ws.session.fail", slog.String("err", err.Error()))
	}
}

// readLoop decodes and dispatches inbound frames until the peer closes or
// the transport fails. On exit the session leaves the set and its queue is
// closed, which stops the writer.
func (s *Server) readLoop(ctx context.Context, log *slog.Logger, sess *session.Session, conn *websocket.Conn) error {
	defer func() {
		sess.Advance(session.StateClosing)
		s.sessions.Remove(sess.ID())
		sess.Close()
	}()

	for {
		var f frame
		err := frameCodec.Receive(conn, &f)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			log.DebugContext(ctx, "ws.session.peer_closed")
			return nil
		case errors.Is(err, websocket.ErrFrameTooLarge):
			log.DebugContext(ctx, "ws.frame.dropped", slog.String("err", err.Error()))
			continue
		default:
			if sess.State() >= session.StateClosing {
				return nil
			}
			log.WarnContext(ctx, "ws.session.read.fail", slog.String("err", err.Error()))
			return fmt.Errorf("read: %w", err)
		}

		if f.kind != websocket.TextFrame {
			log.DebugContext(ctx, "ws.frame.ignored", slog.Int("opcode", int(f.kind)))
			continue
		}

		req, err := jsonrpc.DecodeRequest(f.data)
		if err != nil {
			log.DebugContext(ctx, "ws.frame.dropped", slog.String("err", err.Error()), slog.Int("bytes", len(f.data)))
			continue
		}

		res := s.handler.HandleRequest(ctx, req)
		b, err := json.Marshal(res)
		if err != nil {
			log.ErrorContext(ctx, "ws.response.encode.fail", slog.String("err", err.Error()))
			continue
		}
		if !sess.Send(b) {
			return nil
		}
	}
}

// writeLoop drains the session queue onto the socket. Closing the socket on
// exit unblocks a reader still waiting for a frame.
func (s *Server) writeLoop(ctx context.Context, log *slog.Logger, sess *session.Session, conn *websocket.Conn) error {
	defer func() {
		sess.Advance(session.StateClosing)
		_ = conn.Close()
	}()

	for {
		msg, err := sess.Queue().Next(ctx)
		if err != nil {
			return nil
		}
		if err := frameCodec.Send(conn, msg); err != nil {
			log.WarnContext(ctx, "ws.session.write.fail", slog.String("err", err.Error()))
			return fmt.Errorf("write: %w", err)
		}
	}
}
