package store

import (
	"testing"
	"time"

	"github.com/oddsfair/slipexchange/internal/domain"
)

func makeSuspension(id, matchID string, at time.Time, dur time.Duration) *domain.Suspension {
	return &domain.Suspension{
		SuspensionID: id,
		MatchID:      matchID,
		Type:         domain.SuspensionGoal,
		Status:       domain.SuspensionActive,
		NewOrders:    true,
		Matching:     true,
		SuspendedAt:  at,
		Duration:     dur,
	}
}

func TestSuspensionStore_IsSuspendedByAspectAndWindow(t *testing.T) {
	s := NewSuspensionStore()
	now := time.Now()
	s.Add(makeSuspension("s1", "match-1", now, time.Minute))

	if !s.IsSuspended("match-1", domain.SuspendNewOrders, now) {
		t.Error("expected new_orders suspended")
	}
	if !s.IsSuspended("match-1", domain.SuspendMatching, now) {
		t.Error("expected matching suspended")
	}
	if s.IsSuspended("match-1", domain.SuspendCashOut, now) {
		t.Error("cash_out is not covered by this suspension")
	}
	if s.IsSuspended("match-2", domain.SuspendMatching, now) {
		t.Error("other match must not be suspended")
	}
	if s.IsSuspended("match-1", domain.SuspendMatching, now.Add(2*time.Minute)) {
		t.Error("elapsed window must not suspend")
	}
}

func TestSuspensionStore_SuspendedSinceOldestInForce(t *testing.T) {
	s := NewSuspensionStore()
	now := time.Now()
	s.Add(makeSuspension("s1", "match-1", now.Add(-2*time.Minute), time.Hour))
	s.Add(makeSuspension("s2", "match-1", now.Add(-5*time.Minute), time.Hour))

	since, ok := s.SuspendedSince("match-1", domain.SuspendMatching, now)
	if !ok {
		t.Fatal("expected a suspension in force")
	}
	if !since.Equal(now.Add(-5 * time.Minute)) {
		t.Errorf("expected the oldest start, got %v", since)
	}

	if _, ok := s.SuspendedSince("match-2", domain.SuspendMatching, now); ok {
		t.Error("expected no suspension for other match")
	}
}

func TestSuspensionStore_ResumeClearsActive(t *testing.T) {
	s := NewSuspensionStore()
	now := time.Now()
	s.Add(makeSuspension("s1", "match-1", now, time.Hour))
	s.Add(makeSuspension("s2", "match-1", now, time.Hour))

	if got := s.Resume("match-1", now); got != 2 {
		t.Errorf("expected 2 resumed, got %d", got)
	}
	if s.IsSuspended("match-1", domain.SuspendMatching, now) {
		t.Error("resumed match must not be suspended")
	}
	if got := s.Resume("match-1", now); got != 0 {
		t.Errorf("second resume must be a noop, got %d", got)
	}

	for _, sp := range s.ListByMatch("match-1") {
		if sp.Status != domain.SuspensionResumed || sp.ResumedAt == nil {
			t.Errorf("suspension %s not marked resumed: %+v", sp.SuspensionID, sp)
		}
	}
}

func TestSuspensionStore_ExpireElapsed(t *testing.T) {
	s := NewSuspensionStore()
	now := time.Now()
	s.Add(makeSuspension("s1", "match-1", now.Add(-2*time.Minute), time.Minute))
	s.Add(makeSuspension("s2", "match-2", now, time.Hour))

	matches := s.ExpireElapsed(now)
	if len(matches) != 1 || matches[0] != "match-1" {
		t.Errorf("expected [match-1], got %v", matches)
	}

	records := s.ListByMatch("match-1")
	if len(records) != 1 || records[0].Status != domain.SuspensionExpired {
		t.Errorf("expected expired record, got %v", records)
	}
	if s.IsSuspended("match-2", domain.SuspendMatching, now) != true {
		t.Error("unelapsed suspension must stay in force")
	}

	// Nothing left to expire.
	if again := s.ExpireElapsed(now); len(again) != 0 {
		t.Errorf("expected no matches on second pass, got %v", again)
	}
}

func TestSuspensionStore_ListByMatchReturnsCopies(t *testing.T) {
	s := NewSuspensionStore()
	s.Add(makeSuspension("s1", "match-1", time.Now(), time.Hour))

	list := s.ListByMatch("match-1")
	list[0].Status = domain.SuspensionExpired

	if got := s.ListByMatch("match-1")[0].Status; got != domain.SuspensionActive {
		t.Errorf("store record mutated through the copy: %s", got)
	}
}
