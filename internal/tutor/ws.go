package tutor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/p-n-ai/codemaster/internal/ai"
)

const (
	wsReadLimit    = 64 << 10
	wsWriteTimeout = 10 * time.Second
)

// ChatRequest is the body of a chat message over HTTP or WebSocket.
type ChatRequest struct {
	Messages []ai.Message `json:"messages"`
}

// WebSocketHandler serves a chat session: every text frame carrying a
// ChatRequest is answered with one Reply frame. allowedOrigins uses the
// same values as the CORS configuration; "*" accepts any origin.
func (s *Service) WebSocketHandler(allowedOrigins []string) http.Handler {
	opts := &websocket.AcceptOptions{}
	for _, o := range allowedOrigins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			continue
		}
		opts.OriginPatterns = append(opts.OriginPatterns, hostPattern(o))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			slog.Warn("websocket accept failed", "error", err)
			return
		}
		defer func() { _ = conn.CloseNow() }()
		conn.SetReadLimit(wsReadLimit)

		session := uuid.NewString()
		slog.Info("tutor session opened", "session_id", session, "remote", r.RemoteAddr)

		n, err := s.serveSession(r.Context(), conn)
		switch {
		case err == nil, isClosed(err):
			_ = conn.Close(websocket.StatusNormalClosure, "")
			slog.Info("tutor session closed", "session_id", session, "messages", n)
		default:
			slog.Warn("tutor session ended", "session_id", session, "messages", n, "error", err)
		}
	})
}

func (s *Service) serveSession(ctx context.Context, conn *websocket.Conn) (int, error) {
	n := 0
	for {
		var req ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			return n, err
		}
		n++

		reply := s.Chat(ctx, req.Messages)

		wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		err := wsjson.Write(wctx, conn, reply)
		cancel()
		if err != nil {
			return n, err
		}
	}
}

func isClosed(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}

// hostPattern reduces an origin URL to the host pattern websocket.Accept matches.
func hostPattern(origin string) string {
	if i := strings.Index(origin, "://"); i >= 0 {
		origin = origin[i+3:]
	}
	return strings.TrimRight(origin, "/")
}
