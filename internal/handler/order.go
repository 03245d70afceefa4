package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// placeOrderRequest is the JSON request body for POST /orders.
// Price is in cents per full slip; quantity in basis points.
type placeOrderRequest struct {
	TraderID     string `json:"trader_id"`
	SlipID       string `json:"slip_id"`
	Side         string `json:"side"`
	Price        int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	AllowPartial *bool  `json:"allow_partial"`
	ExpiresAt    string `json:"expires_at"`
}

// orderResponse is the JSON representation of an order. Nullable
// fields use pointers.
type orderResponse struct {
	OrderID           string          `json:"order_id"`
	SlipID            string          `json:"slip_id"`
	MatchID           string          `json:"match_id"`
	TraderID          string          `json:"trader_id"`
	Side              string          `json:"side"`
	Price             int64           `json:"price"`
	Quantity          int64           `json:"quantity"`
	FilledQuantity    int64           `json:"filled_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	CancelledQuantity int64           `json:"cancelled_quantity"`
	AllowPartial      bool            `json:"allow_partial"`
	Frozen            bool            `json:"frozen"`
	Status            string          `json:"status"`
	ExpiresAt         string          `json:"expires_at"`
	CreatedAt         string          `json:"created_at"`
	CancelledAt       *string         `json:"cancelled_at"`
	ExpiredAt         *string         `json:"expired_at"`
	AveragePrice      *int64          `json:"average_price"`
	Trades            []tradeResponse `json:"trades"`
}

// tradeResponse is a single trade in order and history responses.
type tradeResponse struct {
	TradeID      string `json:"trade_id"`
	SlipID       string `json:"slip_id"`
	BuyOrderID   string `json:"buy_order_id"`
	SellOrderID  string `json:"sell_order_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit int64  `json:"price_per_unit"`
	Fee          int64  `json:"fee"`
	Status       string `json:"status"`
	ExecutedAt   string `json:"executed_at"`
}

// PlaceOrder handles POST /orders.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "expires_at must be a valid RFC 3339 timestamp")
		return
	}

	allowPartial := true
	if req.AllowPartial != nil {
		allowPartial = *req.AllowPartial
	}

	order, _, err := h.orderSvc.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		TraderID:     req.TraderID,
		SlipID:       req.SlipID,
		Side:         domain.OrderSide(req.Side),
		Price:        req.Price,
		Quantity:     req.Quantity,
		AllowPartial: allowPartial,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orderSvc.GetOrder(orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelOrder handles DELETE /orders/{order_id}. The requesting trader
// is identified by the X-Trader-Id header.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	requester := r.Header.Get("X-Trader-Id")
	if requester == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "X-Trader-Id header is required")
		return
	}

	order, err := h.orderSvc.CancelOrder(orderID, requester)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// listOrdersResponse is the JSON response for GET /traders/{id}/orders.
type listOrdersResponse struct {
	Orders []any `json:"orders"`
	Total  int   `json:"total"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
}

// ListOrders handles GET /traders/{trader_id}/orders with optional
// status, page, and limit query parameters.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	traderID := chi.URLParam(r, "trader_id")

	var status *domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.OrderStatus(s)
		status = &st
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be an integer")
			return
		}
		page = v
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = v
	}

	orders, total, err := h.orderSvc.ListOrders(traderID, status, page, limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := listOrdersResponse{
		Orders: make([]any, 0, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, buildOrderResponse(o))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// buildOrderResponse converts a domain order to its wire form.
func buildOrderResponse(o *domain.Order) orderResponse {
	var avgPrice *int64
	if avg, ok := o.AveragePrice(); ok {
		avgPrice = &avg
	}

	return orderResponse{
		OrderID:           o.OrderID,
		SlipID:            o.SlipID,
		MatchID:           o.MatchID,
		TraderID:          o.TraderID,
		Side:              string(o.Side),
		Price:             o.Price,
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		CancelledQuantity: o.CancelledQuantity,
		AllowPartial:      o.AllowPartial,
		Frozen:            o.Frozen,
		Status:            string(o.Status),
		ExpiresAt:         formatTime(o.ExpiresAt),
		CreatedAt:         formatTime(o.CreatedAt),
		CancelledAt:       formatTimePtr(o.CancelledAt),
		ExpiredAt:         formatTimePtr(o.ExpiredAt),
		AveragePrice:      avgPrice,
		Trades:            buildTradeResponses(o.Trades),
	}
}

// buildTradeResponses converts domain trades to response trades.
func buildTradeResponses(trades []*domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = buildTradeResponse(t)
	}
	return result
}

func buildTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:      t.TradeID,
		SlipID:       t.SlipID,
		BuyOrderID:   t.BuyOrderID,
		SellOrderID:  t.SellOrderID,
		BuyerID:      t.BuyerID,
		SellerID:     t.SellerID,
		Quantity:     t.Quantity,
		PricePerUnit: t.PricePerUnit,
		Fee:          t.Fee,
		Status:       string(t.Status),
		ExecutedAt:   formatTime(t.ExecutedAt),
	}
}
