package connection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSweepInterval     = time.Second * 30
	defaultHeartbeatInterval = time.Second * 25
)

// SessionManager is the explicit, owned registry of live sessions.
// Insertion happens on upgrade and removal on close; nothing else
// touches the map. All state here is process-local.
type SessionManager struct {
	idleTimeout       time.Duration
	sweepInterval     time.Duration
	heartbeatInterval time.Duration
	logger            *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(idleTimeout time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		idleTimeout:       idleTimeout,
		sweepInterval:     defaultSweepInterval,
		heartbeatInterval: defaultHeartbeatInterval,
		logger:            logger,
		sessions:          make(map[string]*Session, 10),
	}
}

func (sm *SessionManager) Add(session *Session) {
	sm.mu.Lock()
	sm.sessions[session.Id()] = session
	sm.mu.Unlock()
}

func (sm *SessionManager) Remove(session *Session) {
	sm.mu.Lock()
	delete(sm.sessions, session.Id())
	sm.mu.Unlock()
}

func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ByPlayerUuid finds the live session bound to a player, if any.
func (sm *SessionManager) ByPlayerUuid(playerUuid string) *Session {
	if playerUuid == "" {
		return nil
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, session := range sm.sessions {
		if session.PlayerUuid() == playerUuid {
			return session
		}
	}
	return nil
}

// Bind associates a session with a player uuid. Any other live session
// already bound to that uuid is force-closed first, so at most one
// session per player exists at any time.
func (sm *SessionManager) Bind(session *Session, playerUuid string) {
	sm.mu.Lock()
	for id, other := range sm.sessions {
		if other.PlayerUuid() == playerUuid && other.Id() != session.Id() {
			sm.logger.Info("closing superseded session for reconnecting player",
				zap.String("player", playerUuid),
				zap.String("oldSession", other.Id()),
				zap.String("newSession", session.Id()),
			)
			other.Close()
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	session.BindPlayer(playerUuid)
}

// EvictIdleSessions closes every session whose last inbound message is
// older than the idle threshold and returns how many were evicted.
func (sm *SessionManager) EvictIdleSessions() int {
	now := time.Now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	var evicted int
	for id, session := range sm.sessions {
		if now.Sub(session.LastMessageAt()) <= sm.idleTimeout {
			continue
		}

		sm.logger.Info("evicting idle session",
			zap.String("session", id),
			zap.String("player", session.PlayerUuid()),
			zap.Time("lastMessageAt", session.LastMessageAt()),
		)
		session.Close()
		delete(sm.sessions, id)
		evicted++
	}
	return evicted
}

// RunIdleEviction sweeps on a fixed interval independent of message
// traffic until the context is cancelled.
func (sm *SessionManager) RunIdleEviction(ctx context.Context) {
	ticker := time.NewTicker(sm.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.EvictIdleSessions()
		}
	}
}

// Heartbeat pushes a heartbeat frame to every live session.
func (sm *SessionManager) Heartbeat() {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sm.mu.RUnlock()

	for _, session := range sessions {
		if err := session.Send(MsgTypeHeartbeat, struct{}{}); err != nil {
			sm.logger.Debug("heartbeat send failed", zap.String("session", session.Id()), zap.Error(err))
		}
	}
}

func (sm *SessionManager) RunHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(sm.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.Heartbeat()
		}
	}
}
