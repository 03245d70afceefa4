package store

import (
	"sync"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders, with a
// primary index by order_id and secondary indexes by trader and slip.
type OrderStore struct {
	mu           sync.RWMutex
	orders       map[string]*domain.Order
	traderOrders map[string][]*domain.Order // trader_id → orders (append-only)
	slipOrders   map[string][]*domain.Order // slip_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:       make(map[string]*domain.Order),
		traderOrders: make(map[string][]*domain.Order),
		slipOrders:   make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and its secondary indexes.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.traderOrders[o.TraderID] = append(s.traderOrders[o.TraderID], o)
	s.slipOrders[o.SlipID] = append(s.slipOrders[o.SlipID], o)
}

// Get retrieves an order by ID. It returns domain.ErrOrderNotFound if
// the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListBySlip returns all orders placed against a slip in submission
// order, optionally filtered by status.
func (s *OrderStore) ListBySlip(slipID string, status *domain.OrderStatus) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range s.slipOrders[slipID] {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ListByTrader returns a trader's orders newest-first, optionally
// filtered by status. Pagination is 1-based; the second return value is
// the total count before pagination.
func (s *OrderStore) ListByTrader(traderID string, status *domain.OrderStatus, page, limit int) ([]*domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.traderOrders[traderID]
	filtered := make([]*domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if status != nil && all[i].Status != *status {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start >= total {
		return []*domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// OpenBySlip returns the slip's orders still open for matching
// (pending or partially filled, not frozen), in submission order.
func (s *OrderStore) OpenBySlip(slipID string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range s.slipOrders[slipID] {
		if o.Frozen || o.Status.Terminal() {
			continue
		}
		out = append(out, o)
	}
	return out
}
