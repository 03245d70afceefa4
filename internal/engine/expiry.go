package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// ExpiredHook is called after an order has been expired, outside the
// per-slip lock. The order service uses it to persist the transition.
type ExpiredHook func(order *domain.Order)

// ExpiryManager tracks open orders sorted by expires_at and sweeps
// past-due ones to expired on a fixed interval. Expiry is cooperative:
// an order past its deadline stays matchable until the next sweep.
type ExpiryManager struct {
	interval     time.Duration
	matcher      *Matcher
	onExpired    ExpiredHook
	activeOrders []*domain.Order // sorted by expires_at ASC
	mu           sync.Mutex      // protects activeOrders slice
}

// NewExpiryManager creates an ExpiryManager. onExpired may be nil.
func NewExpiryManager(interval time.Duration, matcher *Matcher, onExpired ExpiredHook) *ExpiryManager {
	return &ExpiryManager{
		interval:     interval,
		matcher:      matcher,
		onExpired:    onExpired,
		activeOrders: make([]*domain.Order, 0),
	}
}

// Add inserts an order into the sorted activeOrders slice, maintaining
// expires_at ASC order. Only call this for orders resting on a book.
func (e *ExpiryManager) Add(order *domain.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := sort.Search(len(e.activeOrders), func(i int) bool {
		return e.activeOrders[i].ExpiresAt.After(order.ExpiresAt)
	})
	e.activeOrders = append(e.activeOrders, nil)
	copy(e.activeOrders[idx+1:], e.activeOrders[idx:])
	e.activeOrders[idx] = order
}

// Remove deletes an order from the activeOrders slice by order ID.
func (e *ExpiryManager) Remove(orderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, o := range e.activeOrders {
		if o.OrderID == orderID {
			e.activeOrders = append(e.activeOrders[:i], e.activeOrders[i+1:]...)
			return
		}
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and expires orders. It stops when ctx is cancelled.
func (e *ExpiryManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				e.Sweep(t)
			}
		}
	}()
}

// Sweep expires every tracked order with expires_at <= now. Exposed for
// tests and for forced session cancellation.
func (e *ExpiryManager) Sweep(now time.Time) {
	e.mu.Lock()
	var toExpire []*domain.Order
	cutoff := 0
	for cutoff < len(e.activeOrders) {
		o := e.activeOrders[cutoff]
		if o.ExpiresAt.After(now) {
			break
		}
		toExpire = append(toExpire, o)
		cutoff++
	}
	if cutoff > 0 {
		e.activeOrders = e.activeOrders[cutoff:]
	}
	e.mu.Unlock()

	for _, order := range toExpire {
		if e.matcher.ExpireOrder(order) && e.onExpired != nil {
			e.onExpired(order)
		}
	}
}

// ActiveOrderCount returns the number of orders currently tracked for
// expiration. Useful for testing.
func (e *ExpiryManager) ActiveOrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.activeOrders)
}
