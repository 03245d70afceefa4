package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/port"
	"github.com/oddsfair/slipexchange/internal/service"
)

// SlipHandler handles HTTP requests for slip listing, ownership, and
// market-data endpoints.
type SlipHandler struct {
	ownershipSvc *service.OwnershipService
	marketSvc    *service.MarketService
}

// NewSlipHandler creates a new SlipHandler.
func NewSlipHandler(ownershipSvc *service.OwnershipService, marketSvc *service.MarketService) *SlipHandler {
	return &SlipHandler{ownershipSvc: ownershipSvc, marketSvc: marketSvc}
}

// registerSlipRequest is the JSON request body for POST /slips.
type registerSlipRequest struct {
	SlipID    string `json:"slip_id"`
	MatchID   string `json:"match_id"`
	OwnerID   string `json:"owner_id"`
	ListPrice int64  `json:"list_price"`
}

// slipResponse is the JSON representation of a listed slip.
type slipResponse struct {
	SlipID   string `json:"slip_id"`
	MatchID  string `json:"match_id"`
	ListedAt string `json:"listed_at"`
}

// ownershipRecordResponse is one ownership fragment on the wire.
type ownershipRecordResponse struct {
	RecordID      string `json:"record_id"`
	SlipID        string `json:"slip_id"`
	OwnerID       string `json:"owner_id"`
	PercentageBP  int64  `json:"percentage_bp"`
	AcquiredPrice int64  `json:"acquired_price"`
	AcquiredAt    string `json:"acquired_at"`
	Active        bool   `json:"active"`
}

// RegisterSlip handles POST /slips.
func (h *SlipHandler) RegisterSlip(w http.ResponseWriter, r *http.Request) {
	var req registerSlipRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	slip, seed, err := h.ownershipSvc.RegisterSlip(service.RegisterSlipRequest{
		SlipID:    req.SlipID,
		MatchID:   req.MatchID,
		OwnerID:   req.OwnerID,
		ListPrice: req.ListPrice,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"slip":      buildSlipResponse(slip),
		"ownership": buildOwnershipResponse(seed),
	})
}

// GetSlip handles GET /slips/{slip_id}.
func (h *SlipHandler) GetSlip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.ownershipSvc.GetSlip(chi.URLParam(r, "slip_id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSlipResponse(slip))
}

// GetOwnership handles GET /slips/{slip_id}/ownership. With an owner_id
// query parameter it returns that owner's position; otherwise the
// slip's active ownership table.
func (h *SlipHandler) GetOwnership(w http.ResponseWriter, r *http.Request) {
	slipID := chi.URLParam(r, "slip_id")

	if ownerID := r.URL.Query().Get("owner_id"); ownerID != "" {
		active, held, records, err := h.ownershipSvc.TraderOwnership(slipID, ownerID)
		if err != nil {
			mapDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"slip_id":   slipID,
			"owner_id":  ownerID,
			"active_bp": active,
			"held_bp":   held,
			"records":   buildOwnershipResponses(records),
		})
		return
	}

	records, err := h.ownershipSvc.SlipOwnership(slipID)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"slip_id": slipID,
		"records": buildOwnershipResponses(records),
	})
}

// splitRequest is the JSON request body for POST /slips/{id}/split.
type splitRequest struct {
	OwnerID       string `json:"owner_id"`
	FractionCount int64  `json:"fraction_count"`
}

// Split handles POST /slips/{slip_id}/split.
func (h *SlipHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	records, err := h.ownershipSvc.Split(chi.URLParam(r, "slip_id"), req.OwnerID, req.FractionCount)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"records": buildOwnershipResponses(records),
	})
}

// mergeRequest is the JSON request body for POST /slips/{id}/merge.
type mergeRequest struct {
	OwnerID string `json:"owner_id"`
}

// Merge handles POST /slips/{slip_id}/merge.
func (h *SlipHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	record, err := h.ownershipSvc.Merge(chi.URLParam(r, "slip_id"), req.OwnerID)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOwnershipResponse(record))
}

// depthLevelResponse is one aggregated price level on the wire.
type depthLevelResponse struct {
	Price         int64 `json:"price"`
	TotalQuantity int64 `json:"total_quantity"`
	OrderCount    int   `json:"order_count"`
}

// depthResponse is the JSON response for GET /slips/{id}/depth.
type depthResponse struct {
	SlipID     string               `json:"slip_id"`
	Bids       []depthLevelResponse `json:"bids"`
	Asks       []depthLevelResponse `json:"asks"`
	BestBid    *int64               `json:"best_bid"`
	BestAsk    *int64               `json:"best_ask"`
	Spread     *int64               `json:"spread"`
	TradeCount int                  `json:"trade_count"`
}

// GetDepth handles GET /slips/{slip_id}/depth.
func (h *SlipHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	slipID := chi.URLParam(r, "slip_id")

	ov, err := h.marketSvc.Overview(r.Context(), slipID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, depthResponse{
		SlipID:     slipID,
		Bids:       buildDepthLevels(ov.Depth.Bids),
		Asks:       buildDepthLevels(ov.Depth.Asks),
		BestBid:    ov.BestBid,
		BestAsk:    ov.BestAsk,
		Spread:     ov.Spread,
		TradeCount: ov.TradeCount,
	})
}

// GetTrades handles GET /slips/{slip_id}/trades.
func (h *SlipHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	slipID := chi.URLParam(r, "slip_id")

	trades, err := h.marketSvc.Trades(slipID)
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"slip_id": slipID,
		"trades":  buildTradeResponses(trades),
	})
}

func buildSlipResponse(s *domain.Slip) slipResponse {
	return slipResponse{
		SlipID:   s.SlipID,
		MatchID:  s.MatchID,
		ListedAt: formatTime(s.ListedAt),
	}
}

func buildOwnershipResponse(rec *domain.OwnershipRecord) ownershipRecordResponse {
	return ownershipRecordResponse{
		RecordID:      rec.RecordID,
		SlipID:        rec.SlipID,
		OwnerID:       rec.OwnerID,
		PercentageBP:  rec.PercentageBP,
		AcquiredPrice: rec.AcquiredPrice,
		AcquiredAt:    formatTime(rec.AcquiredAt),
		Active:        rec.Active,
	}
}

func buildOwnershipResponses(records []*domain.OwnershipRecord) []ownershipRecordResponse {
	out := make([]ownershipRecordResponse, len(records))
	for i, rec := range records {
		out[i] = buildOwnershipResponse(rec)
	}
	return out
}

func buildDepthLevels(levels []port.DepthLevel) []depthLevelResponse {
	out := make([]depthLevelResponse, len(levels))
	for i, lv := range levels {
		out[i] = depthLevelResponse{
			Price:         lv.Price,
			TotalQuantity: lv.TotalQuantity,
			OrderCount:    lv.OrderCount,
		}
	}
	return out
}
