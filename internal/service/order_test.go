package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/engine"
	"github.com/oddsfair/slipexchange/internal/ledger"
	"github.com/oddsfair/slipexchange/internal/store"
)

// stubRisk is a controllable RiskChecker for tests.
type stubRisk struct {
	restricted map[string]bool
	err        error
	calls      int
}

func (s *stubRisk) IsRestricted(_ context.Context, traderID string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.restricted[traderID], nil
}

type fixture struct {
	orders      *OrderService
	ownership   *OwnershipService
	suspensions *SuspensionService
	sessionSvc  *SessionService
	sessions    *engine.SessionManager
	ledger      *ledger.Ledger
	guard       *store.SuspensionStore
	orderStore  *store.OrderStore
	risk        *stubRisk
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	books := engine.NewBookManager()
	lg := ledger.New()
	slips := domain.NewSlipRegistry()
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()
	faultStore := store.NewFaultStore()
	guard := store.NewSuspensionStore()

	matcher := engine.NewMatcher(books, lg, orderStore, tradeStore, faultStore, 25, 2, 0)
	expiry := engine.NewExpiryManager(time.Second, matcher, nil)
	sessionStore := store.NewSessionStore()
	sessions := engine.NewSessionManager(
		sessionStore, orderStore, matcher, slips, guard, expiry,
		30*time.Second, 10*time.Minute, time.Second, nil, nil)

	recorder := NewRecorder(nil, nil, nil, lg, slips, logger, time.Second)
	risk := &stubRisk{restricted: make(map[string]bool)}

	return &fixture{
		orders:      NewOrderService(matcher, expiry, sessions, slips, guard, orderStore, risk, recorder),
		ownership:   NewOwnershipService(lg, slips, recorder),
		suspensions: NewSuspensionService(guard, logger, time.Second),
		sessionSvc:  NewSessionService(sessions, sessionStore),
		sessions:    sessions,
		ledger:      lg,
		guard:       guard,
		orderStore:  orderStore,
		risk:        risk,
	}
}

// listSlip registers slip-1 for match-1 owned by the given trader.
func (f *fixture) listSlip(t *testing.T, owner string) {
	t.Helper()
	_, _, err := f.ownership.RegisterSlip(RegisterSlipRequest{
		SlipID:    "slip-1",
		MatchID:   "match-1",
		OwnerID:   owner,
		ListPrice: 1000,
	})
	if err != nil {
		t.Fatalf("register slip failed: %v", err)
	}
}

func placeReq(trader string, side domain.OrderSide, price, qty int64) PlaceOrderRequest {
	return PlaceOrderRequest{
		TraderID:     trader,
		SlipID:       "slip-1",
		Side:         side,
		Price:        price,
		Quantity:     qty,
		AllowPartial: true,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	tests := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"empty trader", placeReq("", domain.OrderSideBuy, 1000, 5000)},
		{"bad trader characters", placeReq("not valid!", domain.OrderSideBuy, 1000, 5000)},
		{"bad side", PlaceOrderRequest{TraderID: "buyer", SlipID: "slip-1", Side: "hold", Price: 1000, Quantity: 5000, ExpiresAt: time.Now().Add(time.Hour)}},
		{"zero price", placeReq("buyer", domain.OrderSideBuy, 0, 5000)},
		{"negative price", placeReq("buyer", domain.OrderSideBuy, -5, 5000)},
		{"zero quantity", placeReq("buyer", domain.OrderSideBuy, 1000, 0)},
		{"quantity above full slip", placeReq("buyer", domain.OrderSideBuy, 1000, 10001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.orders.PlaceOrder(context.Background(), tt.req)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	t.Run("past expiry", func(t *testing.T) {
		req := placeReq("buyer", domain.OrderSideBuy, 1000, 5000)
		req.ExpiresAt = time.Now().Add(-time.Minute)
		_, _, err := f.orders.PlaceOrder(context.Background(), req)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})

	t.Run("unknown slip", func(t *testing.T) {
		req := placeReq("buyer", domain.OrderSideBuy, 1000, 5000)
		req.SlipID = "missing"
		_, _, err := f.orders.PlaceOrder(context.Background(), req)
		if !errors.Is(err, domain.ErrSlipNotFound) {
			t.Errorf("expected ErrSlipNotFound, got %v", err)
		}
	})
}

func TestPlaceOrder_MatchesImmediately(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	sell, trades, err := f.orders.PlaceOrder(context.Background(), placeReq("seller", domain.OrderSideSell, 1000, 6000))
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}
	if len(trades) != 0 {
		t.Fatalf("expected no trades yet, got %d", len(trades))
	}

	buy, trades, err := f.orders.PlaceOrder(context.Background(), placeReq("buyer", domain.OrderSideBuy, 1000, 6000))
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if len(trades) != 1 || trades[0].Quantity != 6000 {
		t.Fatalf("expected one 6000 bp trade, got %+v", trades)
	}
	if buy.Status != domain.OrderStatusFilled || sell.Status != domain.OrderStatusFilled {
		t.Errorf("expected both filled, got buy=%s sell=%s", buy.Status, sell.Status)
	}
	if got := f.ledger.GetActiveOwnership("slip-1", "buyer"); got != 6000 {
		t.Errorf("expected buyer to hold 6000, got %d", got)
	}
}

func TestPlaceOrder_NewOrdersSuspensionBlocks(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	resting, _, err := f.orders.PlaceOrder(context.Background(), placeReq("seller", domain.OrderSideSell, 1000, 5000))
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	if _, err := f.suspensions.Trigger(TriggerSuspensionRequest{
		MatchID:   "match-1",
		Type:      domain.SuspensionGoal,
		NewOrders: true,
		Duration:  time.Hour,
	}); err != nil {
		t.Fatalf("trigger error: %v", err)
	}

	_, _, err = f.orders.PlaceOrder(context.Background(), placeReq("buyer", domain.OrderSideBuy, 1000, 5000))
	if !errors.Is(err, domain.ErrMarketSuspended) {
		t.Fatalf("expected ErrMarketSuspended, got %v", err)
	}

	// The pre-existing order is untouched.
	if resting.Status != domain.OrderStatusPending || resting.Frozen {
		t.Errorf("resting order disturbed: status=%s frozen=%v", resting.Status, resting.Frozen)
	}
	if got := f.ledger.HeldBy("slip-1", "seller"); got != 5000 {
		t.Errorf("hold must survive the suspension, got %d", got)
	}
}

func TestPlaceOrder_CashOutSuspensionBlocksOnlySells(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	if _, err := f.suspensions.Trigger(TriggerSuspensionRequest{
		MatchID:  "match-1",
		Type:     domain.SuspensionManual,
		CashOut:  true,
		Duration: time.Hour,
	}); err != nil {
		t.Fatalf("trigger error: %v", err)
	}

	_, _, err := f.orders.PlaceOrder(context.Background(), placeReq("seller", domain.OrderSideSell, 1000, 5000))
	if !errors.Is(err, domain.ErrMarketSuspended) {
		t.Errorf("expected sells blocked, got %v", err)
	}

	if _, _, err := f.orders.PlaceOrder(context.Background(), placeReq("buyer", domain.OrderSideBuy, 1000, 5000)); err != nil {
		t.Errorf("buys must pass a cash_out suspension, got %v", err)
	}
}

func TestPlaceOrder_MatchingSuspensionDefers(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	if _, err := f.suspensions.Trigger(TriggerSuspensionRequest{
		MatchID:  "match-1",
		Type:     domain.SuspensionRedCard,
		Matching: true,
		Duration: time.Hour,
	}); err != nil {
		t.Fatalf("trigger error: %v", err)
	}

	if _, _, err := f.orders.PlaceOrder(context.Background(), placeReq("seller", domain.OrderSideSell, 1000, 5000)); err != nil {
		t.Fatalf("sell error: %v", err)
	}
	buy, trades, err := f.orders.PlaceOrder(context.Background(), placeReq("buyer", domain.OrderSideBuy, 1000, 5000))
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("matching is suspended, got %d trades", len(trades))
	}
	if buy.Status != domain.OrderStatusPending {
		t.Errorf("expected buy resting, got %s", buy.Status)
	}
}

func TestPlaceOrder_RestrictedTrader(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")
	f.risk.restricted["buyer"] = true

	_, _, err := f.orders.PlaceOrder(context.Background(), placeReq("buyer", domain.OrderSideBuy, 1000, 5000))
	if !errors.Is(err, domain.ErrTraderRestricted) {
		t.Errorf("expected ErrTraderRestricted, got %v", err)
	}
	if f.risk.calls != 1 {
		t.Errorf("expected 1 risk check, got %d", f.risk.calls)
	}
}

func TestPlaceOrder_CollectingSessionDefersToBatch(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	sess, err := f.sessionSvc.Create("match-1")
	if err != nil {
		t.Fatalf("create session error: %v", err)
	}
	if _, err := f.sessionSvc.StartCollecting(sess.SessionID); err != nil {
		t.Fatalf("start collecting error: %v", err)
	}

	sell, trades, err := f.orders.PlaceOrder(context.Background(), placeReq("seller", domain.OrderSideSell, 1000, 4000))
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}
	buy, trades2, err := f.orders.PlaceOrder(context.Background(), placeReq("buyer", domain.OrderSideBuy, 1000, 4000))
	if err != nil {
		t.Fatalf("buy error: %v", err)
	}
	if len(trades) != 0 || len(trades2) != 0 {
		t.Fatal("collected orders must not match immediately")
	}

	closed, err := f.sessionSvc.TriggerMatching(sess.SessionID)
	if err != nil {
		t.Fatalf("trigger matching error: %v", err)
	}
	if closed.MatchedCount != 1 {
		t.Errorf("expected matched count 1, got %d", closed.MatchedCount)
	}
	if sell.Status != domain.OrderStatusFilled || buy.Status != domain.OrderStatusFilled {
		t.Errorf("expected both filled after batch, got sell=%s buy=%s", sell.Status, buy.Status)
	}
}

func TestCancelOrder_ThroughService(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "seller")

	order, _, err := f.orders.PlaceOrder(context.Background(), placeReq("seller", domain.OrderSideSell, 1000, 5000))
	if err != nil {
		t.Fatalf("sell error: %v", err)
	}

	cancelled, err := f.orders.CancelOrder(order.OrderID, "seller")
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if got := f.ledger.HeldBy("slip-1", "seller"); got != 0 {
		t.Errorf("hold must be released, still %d", got)
	}
}

func TestListOrders_Validation(t *testing.T) {
	f := newFixture(t)

	if _, _, err := f.orders.ListOrders("bad trader!", nil, 1, 10); err == nil {
		t.Error("expected error for invalid trader_id")
	}
	bogus := domain.OrderStatus("bogus")
	if _, _, err := f.orders.ListOrders("alice", &bogus, 1, 10); err == nil {
		t.Error("expected error for invalid status")
	}
	if _, _, err := f.orders.ListOrders("alice", nil, 0, 10); err == nil {
		t.Error("expected error for page 0")
	}
	if _, _, err := f.orders.ListOrders("alice", nil, 1, 101); err == nil {
		t.Error("expected error for limit above 100")
	}

	orders, total, err := f.orders.ListOrders("alice", nil, 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 0 || total != 0 {
		t.Errorf("expected empty result, got %v total=%d", orders, total)
	}
}
