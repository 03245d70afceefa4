package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/service"
)

// SessionHandler handles HTTP requests for trading-session endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// createSessionRequest is the JSON request body for POST /sessions.
type createSessionRequest struct {
	MatchID string `json:"match_id"`
}

// sessionResponse is the JSON representation of a trading session.
type sessionResponse struct {
	SessionID      string  `json:"session_id"`
	MatchID        string  `json:"match_id"`
	Phase          string  `json:"phase"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	CollectedCount int     `json:"collected_count"`
	MatchedCount   int     `json:"matched_count"`
	SuspendedSince *string `json:"suspended_since"`
	CreatedAt      string  `json:"created_at"`
}

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess, err := h.sessionSvc.Create(req.MatchID)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildSessionResponse(sess))
}

// StartCollecting handles POST /sessions/{session_id}/collect.
func (h *SessionHandler) StartCollecting(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.StartCollecting(chi.URLParam(r, "session_id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSessionResponse(sess))
}

// TriggerMatching handles POST /sessions/{session_id}/match.
func (h *SessionHandler) TriggerMatching(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.TriggerMatching(chi.URLParam(r, "session_id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSessionResponse(sess))
}

// Cancel handles POST /sessions/{session_id}/cancel.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.Cancel(chi.URLParam(r, "session_id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSessionResponse(sess))
}

// Get handles GET /sessions/{session_id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionSvc.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSessionResponse(sess))
}

func buildSessionResponse(sess *domain.TradingSession) sessionResponse {
	resp := sessionResponse{
		SessionID:      sess.SessionID,
		MatchID:        sess.MatchID,
		Phase:          string(sess.Phase),
		CollectedCount: len(sess.CollectedOrderIDs),
		MatchedCount:   sess.MatchedCount,
		SuspendedSince: formatTimePtr(sess.SuspendedSince),
		CreatedAt:      formatTime(sess.CreatedAt),
	}
	if !sess.StartTime.IsZero() {
		s := formatTime(sess.StartTime)
		resp.StartTime = &s
	}
	if !sess.EndTime.IsZero() {
		s := formatTime(sess.EndTime)
		resp.EndTime = &s
	}
	return resp
}
