package domain

import (
	"sync"
	"time"
)

// Slip is a tradable bet slip as seen by the exchange: which market it
// belongs to and when it was listed. Stake, selections, and settlement
// live in the external betting service.
type Slip struct {
	SlipID   string
	MatchID  string
	ListedAt time.Time
}

// SlipRegistry tracks slips known to the exchange and maps them to
// their match for suspension checks. Safe for concurrent use.
type SlipRegistry struct {
	mu    sync.RWMutex
	slips map[string]*Slip
}

// NewSlipRegistry creates an empty SlipRegistry.
func NewSlipRegistry() *SlipRegistry {
	return &SlipRegistry{slips: make(map[string]*Slip)}
}

// Register adds a slip. It returns ErrSlipAlreadyListed if the slip is
// already registered.
func (r *SlipRegistry) Register(s *Slip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slips[s.SlipID]; ok {
		return ErrSlipAlreadyListed
	}
	r.slips[s.SlipID] = s
	return nil
}

// Get returns the slip, or ErrSlipNotFound.
func (r *SlipRegistry) Get(slipID string) (*Slip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slips[slipID]
	if !ok {
		return nil, ErrSlipNotFound
	}
	return s, nil
}

// MatchID returns the match a slip belongs to, or ErrSlipNotFound.
func (r *SlipRegistry) MatchID(slipID string) (string, error) {
	s, err := r.Get(slipID)
	if err != nil {
		return "", err
	}
	return s.MatchID, nil
}

// ByMatch returns the IDs of all slips listed against a match.
func (r *SlipRegistry) ByMatch(matchID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, s := range r.slips {
		if s.MatchID == matchID {
			ids = append(ids, id)
		}
	}
	return ids
}
