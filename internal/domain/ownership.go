package domain

import "time"

// OwnershipRecord is one owner's active fraction of a slip. Records are
// deactivated when their percentage reaches zero, never deleted, so the
// ledger keeps a full audit trail of how ownership moved.
type OwnershipRecord struct {
	RecordID      string
	SlipID        string
	OwnerID       string
	PercentageBP  int64 // bp, > 0 while active
	AcquiredPrice int64 // cents per full slip at acquisition
	AcquiredAt    time.Time
	Active        bool
}
