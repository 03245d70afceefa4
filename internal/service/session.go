package service

import (
	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/engine"
	"github.com/oddsfair/slipexchange/internal/store"
)

// SessionService exposes trading-session lifecycle operations over the
// session manager.
type SessionService struct {
	manager  *engine.SessionManager
	sessions *store.SessionStore
}

// NewSessionService creates a new SessionService.
func NewSessionService(manager *engine.SessionManager, sessions *store.SessionStore) *SessionService {
	return &SessionService{manager: manager, sessions: sessions}
}

// Create prepares a session for a match.
func (s *SessionService) Create(matchID string) (*domain.TradingSession, error) {
	if !idRegex.MatchString(matchID) {
		return nil, &domain.ValidationError{
			Message: "match_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	return s.manager.Create(matchID), nil
}

// StartCollecting opens a session's order-collection window.
func (s *SessionService) StartCollecting(sessionID string) (*domain.TradingSession, error) {
	return s.manager.StartCollecting(sessionID)
}

// TriggerMatching ends collection early and runs the batch pass.
func (s *SessionService) TriggerMatching(sessionID string) (*domain.TradingSession, error) {
	return s.manager.TriggerMatching(sessionID)
}

// Cancel forces a session to cancelled.
func (s *SessionService) Cancel(sessionID string) (*domain.TradingSession, error) {
	return s.manager.Cancel(sessionID)
}

// Get returns a session by ID.
func (s *SessionService) Get(sessionID string) (*domain.TradingSession, error) {
	return s.sessions.Get(sessionID)
}
