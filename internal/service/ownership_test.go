package service

import (
	"errors"
	"testing"

	"github.com/oddsfair/slipexchange/internal/domain"
)

func TestRegisterSlip_GeneratesIDWhenEmpty(t *testing.T) {
	f := newFixture(t)

	slip, record, err := f.ownership.RegisterSlip(RegisterSlipRequest{
		MatchID:   "match-1",
		OwnerID:   "alice",
		ListPrice: 1500,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if slip.SlipID == "" {
		t.Error("expected a generated slip_id")
	}
	if record.PercentageBP != domain.FullOwnershipBP {
		t.Errorf("expected full ownership seeded, got %d", record.PercentageBP)
	}
	if record.AcquiredPrice != 1500 {
		t.Errorf("expected acquisition price 1500, got %d", record.AcquiredPrice)
	}
}

func TestRegisterSlip_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  RegisterSlipRequest
	}{
		{"bad slip id", RegisterSlipRequest{SlipID: "not valid!", MatchID: "match-1", OwnerID: "alice"}},
		{"bad match id", RegisterSlipRequest{MatchID: "", OwnerID: "alice"}},
		{"bad owner id", RegisterSlipRequest{MatchID: "match-1", OwnerID: "has spaces"}},
		{"negative price", RegisterSlipRequest{MatchID: "match-1", OwnerID: "alice", ListPrice: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.ownership.RegisterSlip(tt.req)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRegisterSlip_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "alice")

	_, _, err := f.ownership.RegisterSlip(RegisterSlipRequest{
		SlipID:  "slip-1",
		MatchID: "match-1",
		OwnerID: "bob",
	})
	if !errors.Is(err, domain.ErrSlipAlreadyListed) {
		t.Errorf("expected ErrSlipAlreadyListed, got %v", err)
	}
}

func TestSplitAndMerge_ThroughService(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "alice")

	records, err := f.ownership.Split("slip-1", "alice", 4)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(records))
	}
	for _, r := range records {
		if r.PercentageBP != 2500 {
			t.Errorf("expected 2500 bp fragments, got %d", r.PercentageBP)
		}
	}

	merged, err := f.ownership.Merge("slip-1", "alice")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if merged.PercentageBP != domain.FullOwnershipBP {
		t.Errorf("expected full ownership after merge, got %d", merged.PercentageBP)
	}

	if _, err := f.ownership.Split("missing", "alice", 4); !errors.Is(err, domain.ErrSlipNotFound) {
		t.Errorf("expected ErrSlipNotFound, got %v", err)
	}
	if _, err := f.ownership.Split("slip-1", "alice", 3); !errors.Is(err, domain.ErrInvalidFractionCount) {
		t.Errorf("expected ErrInvalidFractionCount, got %v", err)
	}
}

func TestTraderOwnership_ReportsHeld(t *testing.T) {
	f := newFixture(t)
	f.listSlip(t, "alice")

	if err := f.ledger.Reserve("slip-1", "alice", 4000); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	activeBP, heldBP, records, err := f.ownership.TraderOwnership("slip-1", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if activeBP != domain.FullOwnershipBP {
		t.Errorf("expected 10000 active, got %d", activeBP)
	}
	if heldBP != 4000 {
		t.Errorf("expected 4000 held, got %d", heldBP)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}

	if _, _, _, err := f.ownership.TraderOwnership("missing", "alice"); !errors.Is(err, domain.ErrSlipNotFound) {
		t.Errorf("expected ErrSlipNotFound, got %v", err)
	}
}
