package store

import (
	"sync"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// SessionStore is a thread-safe in-memory store for trading sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.TradingSession
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*domain.TradingSession)}
}

// Create adds a session to the store.
func (s *SessionStore) Create(sess *domain.TradingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
}

// Get retrieves a session by ID. It returns domain.ErrSessionNotFound
// if the session does not exist.
func (s *SessionStore) Get(id string) (*domain.TradingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// ActiveSessions returns all sessions not yet in a terminal phase.
func (s *SessionStore) ActiveSessions() []*domain.TradingSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradingSession
	for _, sess := range s.sessions {
		if !sess.Phase.Terminal() {
			out = append(out, sess)
		}
	}
	return out
}
