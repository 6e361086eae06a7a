package connection

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is the subset of a websocket connection the session needs.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// DispatchFunc routes a parsed incoming message to its handler and
// returns the response to send. A non-nil error means an internal
// invariant failure, not a protocol rejection.
type DispatchFunc func(ctx context.Context, session *Session, msg IncomingMessage) (Response, error)

// Session wraps one live connection. It serializes message processing
// with a busy flag, numbers outbound frames, tracks activity for idle
// eviction, and holds the uuid of the player bound to the connection.
// Sessions are in-memory only and rebuilt on every connection.
type Session struct {
	id            string
	conn          Conn
	dispatch      DispatchFunc
	logger        *zap.Logger
	devStage      bool
	createdAt     time.Time
	busy          atomic.Bool
	sequence      atomic.Uint64
	lastMessageAt atomic.Int64
	closed        atomic.Bool

	mu         sync.Mutex
	playerUuid string
}

func NewSession(conn Conn, dispatch DispatchFunc, logger *zap.Logger, devStage bool) *Session {
	s := &Session{
		id:        uuid.NewString(),
		conn:      conn,
		dispatch:  dispatch,
		logger:    logger,
		devStage:  devStage,
		createdAt: time.Now(),
	}
	s.lastMessageAt.Store(time.Now().UnixNano())
	return s
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) PlayerUuid() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerUuid
}

func (s *Session) BindPlayer(playerUuid string) {
	s.mu.Lock()
	s.playerUuid = playerUuid
	s.mu.Unlock()
}

func (s *Session) LastMessageAt() time.Time {
	return time.Unix(0, s.lastMessageAt.Load())
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Close shuts the underlying connection. Safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("closing session connection", zap.String("session", s.id), zap.Error(err))
	}
}

// Send writes one outbound frame with the next sequence number.
func (s *Session) Send(msgType string, data any) error {
	if s.closed.Load() {
		s.logger.Warn("attempted send on closed session",
			zap.String("session", s.id),
			zap.String("msgType", msgType),
		)
		return nil
	}

	msg := OutgoingMessage{
		Type:     msgType,
		Data:     data,
		Sequence: s.sequence.Add(1),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// ProcessMessage handles one raw inbound frame. If a previous message
// is still being processed the frame is rejected immediately with a
// please-wait response instead of being queued, keeping the connection
// responsive. The busy flag is always released, whatever the handler
// outcome.
func (s *Session) ProcessMessage(ctx context.Context, raw []byte) {
	if !s.busy.CompareAndSwap(false, true) {
		if err := s.Send(MsgTypePleaseWait, InfoPayload{Info: "still processing your previous message"}); err != nil {
			s.logger.Warn("failed to send please-wait", zap.String("session", s.id), zap.Error(err))
		}
		return
	}
	defer s.busy.Store(false)

	s.lastMessageAt.Store(time.Now().UnixNano())

	var msg IncomingMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Debug("malformed frame", zap.String("session", s.id), zap.Error(err))
		if err := s.Send(MsgTypeBadPayload, InfoPayload{Info: "payload must be JSON with type and data fields"}); err != nil {
			s.logger.Warn("failed to send bad-payload", zap.String("session", s.id), zap.Error(err))
		}
		return
	}

	resp, err := s.dispatch(ctx, s, msg)
	if err != nil {
		s.logger.Error("message handler failed",
			zap.String("session", s.id),
			zap.String("msgType", msg.Type),
			zap.String("player", s.PlayerUuid()),
			zap.Error(err),
		)

		info := "there was an error processing your payload"
		if s.devStage {
			info = err.Error()
		}
		resp = NewInfoResponse(MsgTypeServerError, info)
	}

	if err := s.Send(resp.Type, resp.Data); err != nil {
		s.logger.Warn("failed to write response",
			zap.String("session", s.id),
			zap.String("respType", resp.Type),
			zap.Error(err),
		)
	}
}
