package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/service"
)

// SuspensionHandler handles HTTP requests from the external event feed
// and operators.
type SuspensionHandler struct {
	suspensionSvc *service.SuspensionService
}

// NewSuspensionHandler creates a new SuspensionHandler.
func NewSuspensionHandler(suspensionSvc *service.SuspensionService) *SuspensionHandler {
	return &SuspensionHandler{suspensionSvc: suspensionSvc}
}

// triggerSuspensionRequest is the JSON request body for POST /suspensions.
type triggerSuspensionRequest struct {
	MatchID   string `json:"match_id"`
	Type      string `json:"type"`
	NewOrders bool   `json:"new_orders"`
	Matching  bool   `json:"matching"`
	CashOut   bool   `json:"cash_out"`
	Duration  string `json:"duration"` // Go duration string, e.g. "5m"
	Reason    string `json:"reason"`
}

// suspensionResponse is the JSON representation of a suspension record.
type suspensionResponse struct {
	SuspensionID string  `json:"suspension_id"`
	MatchID      string  `json:"match_id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	NewOrders    bool    `json:"new_orders"`
	Matching     bool    `json:"matching"`
	CashOut      bool    `json:"cash_out"`
	Reason       string  `json:"reason"`
	SuspendedAt  string  `json:"suspended_at"`
	Duration     string  `json:"duration"`
	ResumedAt    *string `json:"resumed_at"`
}

// Trigger handles POST /suspensions.
func (h *SuspensionHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerSuspensionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "duration must be a valid duration string")
		return
	}

	sp, err := h.suspensionSvc.Trigger(service.TriggerSuspensionRequest{
		MatchID:   req.MatchID,
		Type:      domain.SuspensionType(req.Type),
		NewOrders: req.NewOrders,
		Matching:  req.Matching,
		CashOut:   req.CashOut,
		Duration:  duration,
		Reason:    req.Reason,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildSuspensionResponse(sp))
}

// Resume handles POST /matches/{match_id}/resume.
func (h *SuspensionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "match_id")

	resumed, err := h.suspensionSvc.Resume(matchID)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"match_id": matchID,
		"resumed":  resumed,
	})
}

// Status handles GET /matches/{match_id}/suspension.
func (h *SuspensionHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.suspensionSvc.Status(chi.URLParam(r, "match_id"))

	records := make([]suspensionResponse, len(st.Suspensions))
	for i, sp := range st.Suspensions {
		records[i] = buildSuspensionResponse(sp)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"match_id":    st.MatchID,
		"new_orders":  st.NewOrders,
		"matching":    st.Matching,
		"cash_out":    st.CashOut,
		"suspensions": records,
	})
}

func buildSuspensionResponse(sp *domain.Suspension) suspensionResponse {
	return suspensionResponse{
		SuspensionID: sp.SuspensionID,
		MatchID:      sp.MatchID,
		Type:         string(sp.Type),
		Status:       string(sp.Status),
		NewOrders:    sp.NewOrders,
		Matching:     sp.Matching,
		CashOut:      sp.CashOut,
		Reason:       sp.Reason,
		SuspendedAt:  formatTime(sp.SuspendedAt),
		Duration:     sp.Duration.String(),
		ResumedAt:    formatTimePtr(sp.ResumedAt),
	}
}
