package store

import "testing"

func TestFaultStore_AppendAndCount(t *testing.T) {
	s := NewFaultStore()
	s.Append(&MatchingFault{FaultID: "f1", SlipID: "slip-1"})
	s.Append(&MatchingFault{FaultID: "f2", SlipID: "slip-2"})
	s.Append(&MatchingFault{FaultID: "f3", SlipID: "slip-1"})

	if got := s.CountForSlip("slip-1"); got != 2 {
		t.Errorf("expected 2 faults for slip-1, got %d", got)
	}
	if got := s.CountForSlip("slip-3"); got != 0 {
		t.Errorf("expected 0 faults, got %d", got)
	}

	all := s.All()
	if len(all) != 3 || all[0].FaultID != "f1" {
		t.Errorf("expected all 3 oldest first, got %v", all)
	}
}
