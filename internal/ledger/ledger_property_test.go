package ledger

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// Conservation: no sequence of transfers, splits, merges, reserves, or
// releases ever changes the slip's total active percentage away from
// exactly 10000 bp, and no owner ever goes negative.
func TestProperty_OwnershipConservation(t *testing.T) {
	owners := []string{"alice", "bob", "carol", "dave"}

	rapid.Check(t, func(t *rapid.T) {
		l := New()
		if _, err := l.Seed("slip-1", "alice", 1000); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.IntRange(0, 4).Draw(t, "op")
			from := rapid.SampledFrom(owners).Draw(t, "from")
			to := rapid.SampledFrom(owners).Draw(t, "to")
			bp := rapid.Int64Range(1, domain.FullOwnershipBP).Draw(t, "bp")

			// Outcomes are irrelevant; only the invariant matters.
			switch op {
			case 0:
				_ = l.Transfer("slip-1", from, to, bp, 1000)
			case 1:
				_ = l.Reserve("slip-1", from, bp)
			case 2:
				l.Release("slip-1", from, bp)
			case 3:
				_, _ = l.Split("slip-1", from, rapid.SampledFrom([]int64{2, 4, 5, 10}).Draw(t, "parts"))
			case 4:
				_, _ = l.Merge("slip-1", from)
			}

			if total := l.TotalActiveBP("slip-1"); total != domain.FullOwnershipBP {
				t.Fatalf("step %d: total active bp = %d, want %d", i, total, domain.FullOwnershipBP)
			}
			for _, owner := range owners {
				if held := l.GetActiveOwnership("slip-1", owner); held < 0 {
					t.Fatalf("step %d: %s holds negative bp %d", i, owner, held)
				}
			}
		}
	})
}

// Reserved percentage never exceeds the owner's active percentage when
// only the ledger's own operations manage holds.
func TestProperty_HoldsNeverExceedActive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := New()
		if _, err := l.Seed("slip-1", "alice", 1000); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			bp := rapid.Int64Range(1, domain.FullOwnershipBP).Draw(t, "bp")
			switch rapid.IntRange(0, 1).Draw(t, "op") {
			case 0:
				_ = l.Reserve("slip-1", "alice", bp)
			case 1:
				if l.HeldBy("slip-1", "alice") >= bp {
					_ = l.TransferReserved("slip-1", "alice", "bob", bp, 1000)
				}
			}

			if held, active := l.HeldBy("slip-1", "alice"), l.GetActiveOwnership("slip-1", "alice"); held > active {
				t.Fatalf("step %d: held %d exceeds active %d", i, held, active)
			}
		}
	})
}
