package domain

import (
	"testing"
	"time"
)

func TestSuspension_Covers(t *testing.T) {
	s := &Suspension{NewOrders: true, CashOut: true}
	if !s.Covers(SuspendNewOrders) || !s.Covers(SuspendCashOut) {
		t.Error("expected new_orders and cash_out covered")
	}
	if s.Covers(SuspendMatching) {
		t.Error("matching must not be covered")
	}
}

func TestSuspension_ActiveAt(t *testing.T) {
	now := time.Now()
	s := &Suspension{
		Status:      SuspensionActive,
		SuspendedAt: now,
		Duration:    time.Minute,
	}

	if !s.ActiveAt(now) {
		t.Error("expected active at start")
	}
	if !s.ActiveAt(now.Add(59 * time.Second)) {
		t.Error("expected active inside window")
	}
	if s.ActiveAt(now.Add(time.Minute)) {
		t.Error("window end is exclusive")
	}

	s.Status = SuspensionResumed
	if s.ActiveAt(now) {
		t.Error("resumed suspension must not be active")
	}
}
