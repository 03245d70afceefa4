package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/oddsfair/slipexchange/internal/client"
	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/engine"
	"github.com/oddsfair/slipexchange/internal/store"
)

var traderIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidOrderStatuses lists all valid order status values for validation.
var ValidOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:         true,
	domain.OrderStatusPartiallyFilled: true,
	domain.OrderStatusFilled:          true,
	domain.OrderStatusCancelled:       true,
	domain.OrderStatusExpired:         true,
}

// PlaceOrderRequest represents the input for order submission. Price is
// in cents per full slip, Quantity in basis points.
type PlaceOrderRequest struct {
	TraderID     string
	SlipID       string
	Side         domain.OrderSide
	Price        int64
	Quantity     int64
	AllowPartial bool
	ExpiresAt    time.Time
}

// OrderService handles order submission, retrieval, cancellation, and
// listing. The risk check and all persistence happen strictly outside
// the per-slip lock.
type OrderService struct {
	matcher    *engine.Matcher
	expiry     *engine.ExpiryManager
	sessions   *engine.SessionManager
	slips      *domain.SlipRegistry
	guard      *store.SuspensionStore
	orderStore *store.OrderStore
	risk       client.RiskChecker
	recorder   *Recorder
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(
	matcher *engine.Matcher,
	expiry *engine.ExpiryManager,
	sessions *engine.SessionManager,
	slips *domain.SlipRegistry,
	guard *store.SuspensionStore,
	orderStore *store.OrderStore,
	risk client.RiskChecker,
	recorder *Recorder,
) *OrderService {
	return &OrderService{
		matcher:    matcher,
		expiry:     expiry,
		sessions:   sessions,
		slips:      slips,
		guard:      guard,
		orderStore: orderStore,
		risk:       risk,
		recorder:   recorder,
	}
}

// PlaceOrder validates the request, checks the suspension guard and the
// risk service, and admits the order. When the slip's match has a
// session collecting, the order joins the session snapshot and rests
// unmatched until the batch pass; otherwise it matches continuously.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, []*domain.Trade, error) {
	if !traderIDRegex.MatchString(req.TraderID) {
		return nil, nil, &domain.ValidationError{
			Message: "trader_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return nil, nil, &domain.ValidationError{
			Message: "side must be 'buy' or 'sell'",
		}
	}
	if req.Price <= 0 {
		return nil, nil, &domain.ValidationError{
			Message: "price must be a positive integer (cents per full slip)",
		}
	}
	if req.Quantity <= 0 || req.Quantity > domain.FullOwnershipBP {
		return nil, nil, &domain.ValidationError{
			Message: fmt.Sprintf("quantity must be between 1 and %d basis points", domain.FullOwnershipBP),
		}
	}
	if !req.ExpiresAt.After(time.Now()) {
		return nil, nil, &domain.ValidationError{
			Message: "expires_at must be a future timestamp",
		}
	}

	matchID, err := s.slips.MatchID(req.SlipID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if s.guard.IsSuspended(matchID, domain.SuspendNewOrders, now) {
		return nil, nil, domain.ErrMarketSuspended
	}
	if req.Side == domain.OrderSideSell && s.guard.IsSuspended(matchID, domain.SuspendCashOut, now) {
		return nil, nil, domain.ErrMarketSuspended
	}

	restricted, err := s.risk.IsRestricted(ctx, req.TraderID)
	if err != nil {
		return nil, nil, err
	}
	if restricted {
		return nil, nil, domain.ErrTraderRestricted
	}

	// A collecting session takes the order into its snapshot instead of
	// matching it immediately. A matching suspension also defers: the
	// order rests and crossable pairs wait for resumption.
	sess := s.sessions.CollectingSession(matchID)
	matchNow := sess == nil && !s.guard.IsSuspended(matchID, domain.SuspendMatching, now)

	order := &domain.Order{
		SlipID:       req.SlipID,
		MatchID:      matchID,
		TraderID:     req.TraderID,
		Side:         req.Side,
		Price:        req.Price,
		Quantity:     req.Quantity,
		AllowPartial: req.AllowPartial,
		ExpiresAt:    req.ExpiresAt,
	}

	trades, err := s.matcher.Place(order, matchNow)
	if err != nil {
		return nil, nil, err
	}

	if sess != nil {
		_ = s.sessions.CollectOrder(sess.SessionID, order.OrderID)
	}
	if !order.Status.Terminal() && !order.Frozen {
		s.expiry.Add(order)
	}

	s.recorder.OrderChanged(order)
	s.recordCounterparties(order, trades)
	s.recorder.TradesExecuted(order.SlipID, trades)

	return order, trades, nil
}

// recordCounterparties writes through the resting orders touched by a
// continuous match.
func (s *OrderService) recordCounterparties(incoming *domain.Order, trades []*domain.Trade) {
	seen := make(map[string]bool, len(trades))
	for _, t := range trades {
		other := t.BuyOrderID
		if other == incoming.OrderID {
			other = t.SellOrderID
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		if o, err := s.orderStore.Get(other); err == nil {
			s.recorder.OrderChanged(o)
		}
	}
}

// GetOrder retrieves an order by ID with all its trades.
func (s *OrderService) GetOrder(orderID string) (*domain.Order, error) {
	return s.orderStore.Get(orderID)
}

// CancelOrder cancels a pending or partially filled order on behalf of
// requester.
func (s *OrderService) CancelOrder(orderID, requester string) (*domain.Order, error) {
	order, err := s.matcher.CancelOrder(orderID, requester)
	if err != nil {
		return nil, err
	}

	s.expiry.Remove(orderID)
	s.recorder.OrderChanged(order)
	s.recorder.InvalidateDepth(order.SlipID)
	return order, nil
}

// ListOrders returns a paginated list of a trader's orders with optional
// status filtering.
func (s *OrderService) ListOrders(traderID string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int, error) {
	if !traderIDRegex.MatchString(traderID) {
		return nil, 0, &domain.ValidationError{
			Message: "trader_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if status != nil && !ValidOrderStatuses[*status] {
		return nil, 0, &domain.ValidationError{
			Message: fmt.Sprintf("Invalid status filter: '%s'. Must be one of: pending, partially_filled, filled, cancelled, expired", *status),
		}
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{
			Message: "page must be >= 1",
		}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{
			Message: "limit must be between 1 and 100",
		}
	}

	orders, total := s.orderStore.ListByTrader(traderID, status, page, limit)
	return orders, total, nil
}
