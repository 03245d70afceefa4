package domain

// FullOwnershipBP is the fixed-point representation of 100% ownership.
// All ownership arithmetic uses integer basis points so the per-slip
// conservation invariant holds exactly.
const FullOwnershipBP int64 = 10000

// ValidFractionCount reports whether splitting full ownership into n
// parts yields an exact integer number of basis points per part.
// A split into 3 (3333.33… bp) is rejected; 2, 4, 5, 8, 10 … are fine.
func ValidFractionCount(n int64) bool {
	if n < 2 || n > FullOwnershipBP {
		return false
	}
	return FullOwnershipBP%n == 0
}

// FractionBP returns the size of each part when full ownership is split
// into n parts. Callers must check ValidFractionCount first.
func FractionBP(n int64) int64 {
	return FullOwnershipBP / n
}

// FeeFor computes the fee in cents for a trade notional at the given
// fee rate in basis points, rounding down.
func FeeFor(notional, feeRateBP int64) int64 {
	return notional * feeRateBP / FullOwnershipBP
}
