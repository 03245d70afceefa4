package store

import (
	"sync"
	"time"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// SuspensionStore holds market suspension records, keyed by match.
// Records are owned by the external event feed; the exchange only
// queries them and expires ones whose window elapsed.
type SuspensionStore struct {
	mu          sync.RWMutex
	suspensions map[string][]*domain.Suspension // match_id → records, newest last
}

// NewSuspensionStore creates an empty SuspensionStore.
func NewSuspensionStore() *SuspensionStore {
	return &SuspensionStore{suspensions: make(map[string][]*domain.Suspension)}
}

// Add records a new suspension for a match.
func (s *SuspensionStore) Add(sp *domain.Suspension) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suspensions[sp.MatchID] = append(s.suspensions[sp.MatchID], sp)
}

// IsSuspended reports whether any suspension covering the aspect is in
// force for the match at the given time.
func (s *SuspensionStore) IsSuspended(matchID string, aspect domain.SuspensionAspect, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sp := range s.suspensions[matchID] {
		if sp.Covers(aspect) && sp.ActiveAt(now) {
			return true
		}
	}
	return false
}

// SuspendedSince returns the start of the oldest suspension currently
// in force for the match and aspect, or (zero, false) when none is.
func (s *SuspensionStore) SuspendedSince(matchID string, aspect domain.SuspensionAspect, now time.Time) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var since time.Time
	found := false
	for _, sp := range s.suspensions[matchID] {
		if !sp.Covers(aspect) || !sp.ActiveAt(now) {
			continue
		}
		if !found || sp.SuspendedAt.Before(since) {
			since = sp.SuspendedAt
			found = true
		}
	}
	return since, found
}

// Resume marks all active suspensions for a match as resumed and
// returns how many were resumed.
func (s *SuspensionStore) Resume(matchID string, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	resumed := 0
	for _, sp := range s.suspensions[matchID] {
		if sp.Status == domain.SuspensionActive {
			sp.Status = domain.SuspensionResumed
			t := now
			sp.ResumedAt = &t
			resumed++
		}
	}
	return resumed
}

// ExpireElapsed transitions active suspensions whose window has passed
// to expired. Returns the match IDs that had at least one expiry.
func (s *SuspensionStore) ExpireElapsed(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []string
	for matchID, sps := range s.suspensions {
		touched := false
		for _, sp := range sps {
			if sp.Status == domain.SuspensionActive && !now.Before(sp.SuspendedAt.Add(sp.Duration)) {
				sp.Status = domain.SuspensionExpired
				touched = true
			}
		}
		if touched {
			matches = append(matches, matchID)
		}
	}
	return matches
}

// ListByMatch returns copies of a match's suspension records, newest
// last.
func (s *SuspensionStore) ListByMatch(matchID string) []*domain.Suspension {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Suspension, 0, len(s.suspensions[matchID]))
	for _, sp := range s.suspensions[matchID] {
		cp := *sp
		out = append(out, &cp)
	}
	return out
}
