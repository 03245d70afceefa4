package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// Ledger is the durable record of who owns what fraction of each slip,
// plus the reservation holds that back open sell orders. It is the only
// component allowed to mutate ownership percentages.
//
// All mutations for one slip serialize on that slip's lock; operations
// on different slips proceed in parallel. The protected invariant is
// that the sum of active percentages per slip never exceeds 10000 bp
// and transfers never create or destroy basis points.
type Ledger struct {
	mu    sync.RWMutex
	slips map[string]*slipAccounts
}

// slipAccounts holds one slip's full audit trail plus holds.
type slipAccounts struct {
	mu      sync.Mutex
	records []*domain.OwnershipRecord // active and deactivated, in creation order
	held    map[string]int64          // owner → reserved bp
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{slips: make(map[string]*slipAccounts)}
}

func (l *Ledger) accounts(slipID string) *slipAccounts {
	l.mu.RLock()
	acc, ok := l.slips[slipID]
	l.mu.RUnlock()
	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok = l.slips[slipID]; ok {
		return acc
	}
	acc = &slipAccounts{held: make(map[string]int64)}
	l.slips[slipID] = acc
	return acc
}

// Seed creates the initial 10000 bp record for a newly listed slip.
// It fails with InvalidTransfer if the slip already has ownership.
func (l *Ledger) Seed(slipID, ownerID string, price int64) (*domain.OwnershipRecord, error) {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if len(acc.records) > 0 {
		return nil, domain.ErrInvalidTransfer
	}
	rec := newRecord(slipID, ownerID, domain.FullOwnershipBP, price)
	acc.records = append(acc.records, rec)
	return rec, nil
}

// Load installs records restored from the durable store at startup.
// Holds are not restored; open orders re-reserve as they are reloaded.
func (l *Ledger) Load(records []*domain.OwnershipRecord) {
	for _, r := range records {
		acc := l.accounts(r.SlipID)
		acc.mu.Lock()
		acc.records = append(acc.records, r)
		acc.mu.Unlock()
	}
}

// Transfer atomically moves bp basis points of slipID from one owner to
// another at the given price. It fails with InvalidTransfer when
// from == to or bp <= 0, and with InsufficientOwnership when the
// sender's unheld active percentage is smaller than bp. No partial
// effect is ever left on failure.
func (l *Ledger) Transfer(slipID, from, to string, bp, price int64) error {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.transfer(slipID, from, to, bp, price, false)
}

// TransferReserved is Transfer for matched trades: the moved percentage
// must already be held by the seller, and the hold is consumed by the
// transfer. A missing hold means the reservation was lost to a
// concurrent release and surfaces as LedgerConflict for the caller's
// retry policy.
func (l *Ledger) TransferReserved(slipID, from, to string, bp, price int64) error {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.held[from] < bp {
		return domain.ErrLedgerConflict
	}
	if err := acc.transfer(slipID, from, to, bp, price, true); err != nil {
		return err
	}
	acc.held[from] -= bp
	if acc.held[from] == 0 {
		delete(acc.held, from)
	}
	return nil
}

// transfer is the shared move. reserved controls whether the sender's
// held percentage counts as spendable. Caller holds acc.mu.
func (acc *slipAccounts) transfer(slipID, from, to string, bp, price int64, reserved bool) error {
	if from == to || bp <= 0 {
		return domain.ErrInvalidTransfer
	}

	available := acc.activeBP(from)
	if !reserved {
		available -= acc.held[from]
	}
	if available < bp {
		return domain.ErrInsufficientOwnership
	}

	// Consume the sender's fragments oldest-first, deactivating any
	// that reach zero. Validation above guarantees full consumption.
	remaining := bp
	for _, rec := range acc.records {
		if remaining == 0 {
			break
		}
		if !rec.Active || rec.OwnerID != from {
			continue
		}
		take := rec.PercentageBP
		if take > remaining {
			take = remaining
		}
		rec.PercentageBP -= take
		remaining -= take
		if rec.PercentageBP == 0 {
			rec.Active = false
		}
	}

	acc.records = append(acc.records, newRecord(slipID, to, bp, price))
	return nil
}

// Split divides an owner's full 10000 bp holding into fractionCount
// equal records. The owner must hold exactly 10000 bp with no active
// holds; fractionCount must divide 10000 exactly or the split is
// rejected with InvalidFractionCount.
func (l *Ledger) Split(slipID, ownerID string, fractionCount int64) ([]*domain.OwnershipRecord, error) {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if !domain.ValidFractionCount(fractionCount) {
		return nil, domain.ErrInvalidFractionCount
	}
	if acc.activeBP(ownerID) != domain.FullOwnershipBP || acc.held[ownerID] > 0 {
		return nil, domain.ErrInsufficientOwnership
	}

	var price int64
	for _, rec := range acc.records {
		if rec.Active && rec.OwnerID == ownerID {
			price = rec.AcquiredPrice
			rec.PercentageBP = 0
			rec.Active = false
		}
	}

	part := domain.FractionBP(fractionCount)
	fractions := make([]*domain.OwnershipRecord, 0, fractionCount)
	for i := int64(0); i < fractionCount; i++ {
		rec := newRecord(slipID, ownerID, part, price)
		acc.records = append(acc.records, rec)
		fractions = append(fractions, rec)
	}
	return fractions, nil
}

// Merge coalesces all of an owner's active fragments for a slip into a
// single record carrying their combined percentage. Merging a single
// fragment (or none) is a no-op returning the current state.
func (l *Ledger) Merge(slipID, ownerID string) (*domain.OwnershipRecord, error) {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	var active []*domain.OwnershipRecord
	for _, rec := range acc.records {
		if rec.Active && rec.OwnerID == ownerID {
			active = append(active, rec)
		}
	}
	if len(active) == 0 {
		return nil, domain.ErrInsufficientOwnership
	}
	if len(active) == 1 {
		cp := *active[0]
		return &cp, nil
	}

	var total, weighted int64
	for _, rec := range active {
		total += rec.PercentageBP
		weighted += rec.AcquiredPrice * rec.PercentageBP
		rec.PercentageBP = 0
		rec.Active = false
	}
	merged := newRecord(slipID, ownerID, total, weighted/total)
	acc.records = append(acc.records, merged)
	return merged, nil
}

// Reserve places a hold of bp basis points against the owner's active
// percentage, failing with InsufficientOwnership when the unheld
// balance is too small. Holds are the sole mechanism preventing the
// same percentage from backing two sell orders at once.
func (l *Ledger) Reserve(slipID, ownerID string, bp int64) error {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.activeBP(ownerID)-acc.held[ownerID] < bp {
		return domain.ErrInsufficientOwnership
	}
	acc.held[ownerID] += bp
	return nil
}

// Release returns bp basis points of a hold. Releasing more than is
// held clamps to zero rather than going negative.
func (l *Ledger) Release(slipID, ownerID string, bp int64) {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	acc.held[ownerID] -= bp
	if acc.held[ownerID] <= 0 {
		delete(acc.held, ownerID)
	}
}

// GetActiveOwnership returns the owner's total active percentage for a
// slip, in basis points.
func (l *Ledger) GetActiveOwnership(slipID, ownerID string) int64 {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.activeBP(ownerID)
}

// HeldBy returns the owner's currently reserved percentage for a slip.
func (l *Ledger) HeldBy(slipID, ownerID string) int64 {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.held[ownerID]
}

// TotalActiveBP returns the sum of all active percentages for a slip.
func (l *Ledger) TotalActiveBP(slipID string) int64 {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	var total int64
	for _, rec := range acc.records {
		if rec.Active {
			total += rec.PercentageBP
		}
	}
	return total
}

// ActiveRecords returns copies of a slip's active records, grouped by
// creation order.
func (l *Ledger) ActiveRecords(slipID string) []*domain.OwnershipRecord {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	var out []*domain.OwnershipRecord
	for _, rec := range acc.records {
		if rec.Active {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out
}

// AllRecords returns copies of every record for a slip, active and
// deactivated, in creation order. Used for durable write-through.
func (l *Ledger) AllRecords(slipID string) []*domain.OwnershipRecord {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	out := make([]*domain.OwnershipRecord, 0, len(acc.records))
	for _, rec := range acc.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

// RecordsFor returns copies of an owner's records for a slip, active
// and deactivated, oldest first. Used for audit queries and durable
// write-through.
func (l *Ledger) RecordsFor(slipID, ownerID string) []*domain.OwnershipRecord {
	acc := l.accounts(slipID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	var out []*domain.OwnershipRecord
	for _, rec := range acc.records {
		if rec.OwnerID == ownerID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AcquiredAt.Before(out[j].AcquiredAt) })
	return out
}

// activeBP sums the owner's active fragments. Caller holds acc.mu.
func (acc *slipAccounts) activeBP(ownerID string) int64 {
	var total int64
	for _, rec := range acc.records {
		if rec.Active && rec.OwnerID == ownerID {
			total += rec.PercentageBP
		}
	}
	return total
}

func newRecord(slipID, ownerID string, bp, price int64) *domain.OwnershipRecord {
	return &domain.OwnershipRecord{
		RecordID:      uuid.New().String(),
		SlipID:        slipID,
		OwnerID:       ownerID,
		PercentageBP:  bp,
		AcquiredPrice: price,
		AcquiredAt:    time.Now(),
		Active:        true,
	}
}
