package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/ledger"
	"github.com/oddsfair/slipexchange/internal/store"
)

// Matcher implements price-time priority matching over per-slip books.
// It runs in two modes: continuously, on every marketable incoming
// order, and as a single batch pass over a trading session's snapshot.
//
// Trades execute at the sell side's limit price. The ledger transfer
// commits before any order state changes, so a refused transfer leaves
// both orders exactly as they were.
type Matcher struct {
	books      *BookManager
	ledger     *ledger.Ledger
	orderStore *store.OrderStore
	tradeStore *store.TradeStore
	faultStore *store.FaultStore

	feeRateBP     int64
	retryAttempts int
	retryBackoff  time.Duration
}

// NewMatcher creates a Matcher with the given dependencies. feeRateBP
// is the trade fee in basis points of notional; retryAttempts and
// retryBackoff bound the internal retry of ledger conflicts.
func NewMatcher(
	books *BookManager,
	lg *ledger.Ledger,
	orderStore *store.OrderStore,
	tradeStore *store.TradeStore,
	faultStore *store.FaultStore,
	feeRateBP int64,
	retryAttempts int,
	retryBackoff time.Duration,
) *Matcher {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Matcher{
		books:         books,
		ledger:        lg,
		orderStore:    orderStore,
		tradeStore:    tradeStore,
		faultStore:    faultStore,
		feeRateBP:     feeRateBP,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
	}
}

// Place admits an order to the exchange. For sell orders it first
// places a ledger hold for the full quantity, so the same percentage
// can never back two open sells. When matchNow is true the order runs
// through the continuous matching loop before any remainder rests on
// the book; a session in its collection phase passes matchNow=false so
// orders rest untouched until the batch pass.
//
// The caller must provide TraderID, SlipID, MatchID, Side, Price,
// Quantity, AllowPartial, and ExpiresAt. The matcher assigns OrderID
// and CreatedAt and manages all status transitions.
//
// The per-slip lock is held for the entire matching pass.
func (m *Matcher) Place(order *domain.Order, matchNow bool) ([]*domain.Trade, error) {
	book := m.books.GetOrCreate(order.SlipID)

	book.mu.Lock()
	defer book.mu.Unlock()

	if order.Side == domain.OrderSideSell {
		if err := m.ledger.Reserve(order.SlipID, order.TraderID, order.Quantity); err != nil {
			return nil, err
		}
	}

	order.OrderID = uuid.New().String()
	order.CreatedAt = time.Now()
	order.RemainingQuantity = order.Quantity
	order.FilledQuantity = 0
	order.CancelledQuantity = 0
	order.Status = domain.OrderStatusPending
	order.Trades = []*domain.Trade{}

	m.orderStore.Create(order)

	var trades []*domain.Trade
	if matchNow {
		trades = m.matchIncoming(book, order)
	}

	if order.RemainingQuantity > 0 && !order.Frozen {
		book.Insert(BookEntry{
			Price:     order.Price,
			CreatedAt: order.CreatedAt,
			OrderID:   order.OrderID,
			Order:     order,
		})
	}

	return trades, nil
}

// matchIncoming runs the continuous match loop for one incoming order.
// Candidates are visited in price-time priority; self-trades, frozen
// orders, and all-or-nothing orders that cannot be covered whole are
// skipped without disturbing the priority of everyone else. Caller
// holds the book lock.
func (m *Matcher) matchIncoming(book *Book, order *domain.Order) []*domain.Trade {
	var trades []*domain.Trade

	for order.RemainingQuantity > 0 && !order.Frozen {
		resting := m.nextCandidate(book, order)
		if resting == nil {
			break
		}

		trade, faulted := m.execute(book, order, resting)
		if faulted {
			break
		}
		if trade != nil {
			trades = append(trades, trade)
		}
	}
	return trades
}

// nextCandidate walks the opposite side in priority order and returns
// the first order the incoming one may trade with, or nil when no
// crossable candidate remains. Caller holds the book lock.
func (m *Matcher) nextCandidate(book *Book, order *domain.Order) *domain.Order {
	var found *domain.Order
	walk := func(entry BookEntry) bool {
		resting := entry.Order

		// Past the crossing price: nothing deeper can match either.
		if order.Side == domain.OrderSideBuy {
			if order.Price < entry.Price {
				return false
			}
		} else {
			if entry.Price < order.Price {
				return false
			}
		}

		if !m.compatible(order, resting) {
			return true // skip, keep walking
		}
		found = resting
		return false
	}

	if order.Side == domain.OrderSideBuy {
		book.WalkSells(walk)
	} else {
		book.WalkBuys(walk)
	}
	return found
}

// compatible applies the non-price match rules: no self-trade, no
// frozen or terminal counterparty, and all-or-nothing orders only fill
// when one counterparty covers the whole remainder.
func (m *Matcher) compatible(order, resting *domain.Order) bool {
	if resting.TraderID == order.TraderID {
		return false
	}
	if resting.Frozen || resting.Status.Terminal() {
		return false
	}
	fill := minQty(order.RemainingQuantity, resting.RemainingQuantity)
	if fill <= 0 {
		return false
	}
	if !order.AllowPartial && fill < order.RemainingQuantity {
		return false
	}
	if !resting.AllowPartial && fill < resting.RemainingQuantity {
		return false
	}
	return true
}

// execute settles one fill between a buy and a sell on the same slip.
// The ownership transfer commits first; only then do order quantities
// and statuses advance and the trade get recorded. A transfer the
// ledger still refuses after the bounded retries becomes a
// MatchingFault: both orders are frozen and pulled from the book, and
// the fill is abandoned with no state change. Caller holds the book
// lock. Returns (trade, faulted).
func (m *Matcher) execute(book *Book, a, b *domain.Order) (*domain.Trade, bool) {
	buy, sell := a, b
	if a.Side == domain.OrderSideSell {
		buy, sell = b, a
	}

	fill := minQty(buy.RemainingQuantity, sell.RemainingQuantity)
	price := sell.Price // trades clear at the sell side's limit

	var err error
	for attempt := 0; attempt < m.retryAttempts; attempt++ {
		err = m.ledger.TransferReserved(sell.SlipID, sell.TraderID, buy.TraderID, fill, price)
		if err != domain.ErrLedgerConflict {
			break
		}
		if m.retryBackoff > 0 {
			time.Sleep(m.retryBackoff)
		}
	}
	if err != nil {
		m.fault(book, buy, sell, fill, price, err)
		return nil, true
	}

	buy.RemainingQuantity -= fill
	buy.FilledQuantity += fill
	sell.RemainingQuantity -= fill
	sell.FilledQuantity += fill

	advanceFillStatus(buy)
	advanceFillStatus(sell)

	notional := price * fill / domain.FullOwnershipBP
	trade := &domain.Trade{
		TradeID:      uuid.New().String(),
		SlipID:       sell.SlipID,
		BuyOrderID:   buy.OrderID,
		SellOrderID:  sell.OrderID,
		BuyerID:      buy.TraderID,
		SellerID:     sell.TraderID,
		Quantity:     fill,
		PricePerUnit: price,
		Fee:          domain.FeeFor(notional, m.feeRateBP),
		Status:       domain.TradeStatusCompleted,
		ExecutedAt:   time.Now(),
	}

	buy.Trades = append(buy.Trades, trade)
	sell.Trades = append(sell.Trades, trade)
	m.tradeStore.Append(trade)

	if buy.RemainingQuantity == 0 {
		book.Remove(buy.OrderID)
	}
	if sell.RemainingQuantity == 0 {
		book.Remove(sell.OrderID)
	}

	return trade, false
}

// fault freezes both sides of a refused execution and records it for
// manual reconciliation. Neither order's fill state has changed at this
// point. Caller holds the book lock.
func (m *Matcher) fault(book *Book, buy, sell *domain.Order, fill, price int64, cause error) {
	buy.Frozen = true
	sell.Frozen = true
	book.Remove(buy.OrderID)
	book.Remove(sell.OrderID)

	m.faultStore.Append(&store.MatchingFault{
		FaultID:     uuid.New().String(),
		SlipID:      sell.SlipID,
		BuyOrderID:  buy.OrderID,
		SellOrderID: sell.OrderID,
		Quantity:    fill,
		Price:       price,
		Reason:      cause.Error(),
		OccurredAt:  time.Now(),
	})
}

// BatchMatch runs one matching pass over a session's order snapshot for
// a single slip. Orders outside the snapshot are untouched even when
// marketable; orders that went terminal since the snapshot are skipped.
// The pass is deterministic from the snapshot and exhausts every
// crossable pair: running it again immediately produces zero trades.
//
// The per-slip lock is held for the whole pass.
func (m *Matcher) BatchMatch(slipID string, snapshotOrderIDs []string) []*domain.Trade {
	book := m.books.GetOrCreate(slipID)

	book.mu.Lock()
	defer book.mu.Unlock()

	inSnapshot := make(map[string]bool, len(snapshotOrderIDs))
	for _, id := range snapshotOrderIDs {
		inSnapshot[id] = true
	}

	var buys, sells []*domain.Order
	for _, o := range m.orderStore.OpenBySlip(slipID) {
		if !inSnapshot[o.OrderID] {
			continue
		}
		if o.Side == domain.OrderSideBuy {
			buys = append(buys, o)
		} else {
			sells = append(sells, o)
		}
	}

	sort.SliceStable(buys, func(i, j int) bool {
		if buys[i].Price != buys[j].Price {
			return buys[i].Price > buys[j].Price
		}
		return buys[i].CreatedAt.Before(buys[j].CreatedAt)
	})
	sort.SliceStable(sells, func(i, j int) bool {
		if sells[i].Price != sells[j].Price {
			return sells[i].Price < sells[j].Price
		}
		return sells[i].CreatedAt.Before(sells[j].CreatedAt)
	})

	var trades []*domain.Trade
	for _, buy := range buys {
		if buy.Frozen || buy.Status.Terminal() {
			continue
		}
		for _, sell := range sells {
			if buy.RemainingQuantity == 0 || buy.Frozen {
				break
			}
			if buy.Price < sell.Price {
				break // sells are price-ascending; nothing deeper crosses
			}
			if !m.compatible(buy, sell) {
				continue
			}
			trade, faulted := m.execute(book, buy, sell)
			if faulted {
				break
			}
			if trade != nil {
				trades = append(trades, trade)
			}
		}
	}
	return trades
}

// CancelOrder cancels a pending or partially filled order on behalf of
// requester, who must be the order's trader. It acquires the per-slip
// lock, re-checks status, removes the order from the book, and releases
// any remaining sell hold.
//
// Returns ErrOrderNotFound, ErrNotOrderOwner, or ErrOrderNotCancellable.
func (m *Matcher) CancelOrder(orderID, requester string) (*domain.Order, error) {
	order, err := m.orderStore.Get(orderID)
	if err != nil {
		return nil, err
	}

	book := m.books.GetOrCreate(order.SlipID)
	book.mu.Lock()
	defer book.mu.Unlock()

	// Status is only mutated under the per-slip lock, so check it here;
	// a concurrent fill may have completed the order.
	if order.TraderID != requester {
		return nil, domain.ErrNotOrderOwner
	}
	if order.Status.Terminal() {
		return nil, domain.ErrOrderNotCancellable
	}

	book.Remove(order.OrderID)

	now := time.Now()
	order.CancelledQuantity = order.RemainingQuantity
	order.RemainingQuantity = 0
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now

	if order.Side == domain.OrderSideSell && order.CancelledQuantity > 0 {
		m.ledger.Release(order.SlipID, order.TraderID, order.CancelledQuantity)
	}

	return order, nil
}

// ExpireOrder transitions an order past its deadline to expired,
// releasing any remaining hold. Used by the expiry sweep and by forced
// session cancellation. Returns false when the order was no longer
// expirable. The per-slip lock is held for the transition.
func (m *Matcher) ExpireOrder(order *domain.Order) bool {
	book := m.books.GetOrCreate(order.SlipID)
	book.mu.Lock()
	defer book.mu.Unlock()

	if order.Status.Terminal() {
		return false
	}

	order.CancelledQuantity = order.RemainingQuantity
	order.RemainingQuantity = 0
	order.Status = domain.OrderStatusExpired
	at := order.ExpiresAt
	order.ExpiredAt = &at

	book.Remove(order.OrderID)

	if order.Side == domain.OrderSideSell && order.CancelledQuantity > 0 {
		m.ledger.Release(order.SlipID, order.TraderID, order.CancelledQuantity)
	}
	return true
}

// RestoreOpenOrder reinstates a reloaded open order on the book at
// startup, re-placing the sell-side hold that backs it.
func (m *Matcher) RestoreOpenOrder(order *domain.Order) error {
	book := m.books.GetOrCreate(order.SlipID)
	book.mu.Lock()
	defer book.mu.Unlock()

	if order.Side == domain.OrderSideSell {
		if err := m.ledger.Reserve(order.SlipID, order.TraderID, order.RemainingQuantity); err != nil {
			return err
		}
	}
	m.orderStore.Create(order)
	book.Insert(BookEntry{
		Price:     order.Price,
		CreatedAt: order.CreatedAt,
		OrderID:   order.OrderID,
		Order:     order,
	})
	return nil
}

// advanceFillStatus moves an order's status forward after a fill.
// Terminal states are never regressed.
func advanceFillStatus(o *domain.Order) {
	if o.Status.Terminal() {
		return
	}
	if o.RemainingQuantity == 0 {
		o.Status = domain.OrderStatusFilled
	} else if o.FilledQuantity > 0 {
		o.Status = domain.OrderStatusPartiallyFilled
	}
}

func minQty(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
