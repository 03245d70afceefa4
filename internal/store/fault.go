package store

import (
	"sync"
	"time"
)

// MatchingFault records an execution the ledger refused after retries.
// Faults never surface to callers; the affected orders are frozen and
// the record waits here for manual reconciliation.
type MatchingFault struct {
	FaultID     string
	SlipID      string
	BuyOrderID  string
	SellOrderID string
	Quantity    int64
	Price       int64
	Reason      string
	OccurredAt  time.Time
}

// FaultStore is a thread-safe append-only record of matching faults.
type FaultStore struct {
	mu     sync.RWMutex
	faults []*MatchingFault
}

// NewFaultStore creates an empty FaultStore.
func NewFaultStore() *FaultStore {
	return &FaultStore{}
}

// Append records a fault.
func (s *FaultStore) Append(f *MatchingFault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, f)
}

// All returns a copy of every recorded fault, oldest first.
func (s *FaultStore) All() []*MatchingFault {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*MatchingFault, len(s.faults))
	copy(out, s.faults)
	return out
}

// CountForSlip returns the number of faults recorded against a slip.
func (s *FaultStore) CountForSlip(slipID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, f := range s.faults {
		if f.SlipID == slipID {
			n++
		}
	}
	return n
}
