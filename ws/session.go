// Package ws adapts a gorilla/websocket connection to the session contract
// consumed by the broadcaster.
package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/errors"
)

const (
	defaultSendTimeout = 10 * time.Second
	maxMessageSize     = 1024 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Session owns one client connection exclusively, from handshake to close.
// Create sessions with NewSession and complete the handshake with Accept
// before any other call.
type Session struct {
	id string
	w  http.ResponseWriter
	r  *http.Request

	conn *websocket.Conn

	// Fan-outs from sibling sessions call Send concurrently; gorilla
	// allows a single writer at a time.
	writeMu  sync.Mutex
	sendWait time.Duration

	log *slog.Logger
}

func NewSession(log *slog.Logger, w http.ResponseWriter, r *http.Request,
	sendTimeout time.Duration) *Session {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Session{
		id:       uuid.NewString(),
		w:        w,
		r:        r,
		sendWait: sendTimeout,
		log:      log,
	}
}

// ID identifies this session in a room's member set. It is unique per
// channel instance, so one identity connected twice holds two handles.
func (s *Session) ID() string { return s.id }

// Accept completes the websocket handshake. A refusal from the transport is
// reported as ErrHandshake; no session state is created on failure.
func (s *Session) Accept() error {
	conn, err := upgrader.Upgrade(s.w, s.r, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrHandshake, err)
	}
	conn.SetReadLimit(maxMessageSize)
	s.conn = conn
	return nil
}

// ReceiveNext blocks until the next inbound text frame arrives. ok reports
// false once the client has disconnected, gracefully or abruptly; that is
// the session's normal terminal signal, not an error. Non-text frames are
// skipped.
func (s *Session) ReceiveNext() (string, bool) {
	for {
		kind, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.log.Debug("session closed unexpectedly",
					"session", s.id, "error", err)
			}
			return "", false
		}
		if kind != websocket.TextMessage {
			continue
		}
		return string(payload), true
	}
}

// Send pushes one text frame to this session's client. A write error or a
// write that misses the per-send deadline is reported as ErrSendFailed; the
// caller decides whether that makes the handle stale.
func (s *Session) Send(body string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.sendWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(body)); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrSendFailed, err)
	}
	return nil
}

// Close tears down the transport. Closing is the only cancellation
// mechanism a session has; a blocked ReceiveNext returns once the
// underlying connection is gone. Safe to call before Accept and more than
// once.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
