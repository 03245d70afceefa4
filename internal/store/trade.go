package store

import (
	"sync"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// TradeStore is the append-only transaction log of executed trades,
// keyed by slip. Completed trades are handed off to external settlement
// through the publisher; this store is the in-process record.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[string][]*domain.Trade // slip_id → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{trades: make(map[string][]*domain.Trade)}
}

// Append adds a trade to the slip's chronological log.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[t.SlipID] = append(s.trades[t.SlipID], t)
}

// GetBySlip returns all trades for a slip in execution order. Returns
// an empty slice when no trades exist.
func (s *TradeStore) GetBySlip(slipID string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[slipID]
	out := make([]*domain.Trade, len(trades))
	copy(out, trades)
	return out
}

// CountBySlip returns the number of trades recorded for a slip.
func (s *TradeStore) CountBySlip(slipID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades[slipID])
}
