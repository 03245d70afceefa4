package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrSlipAlreadyListed     = errors.New("slip_already_listed")
	ErrSlipNotFound          = errors.New("slip_not_found")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrOrderNotCancellable   = errors.New("order_not_cancellable")
	ErrNotOrderOwner         = errors.New("not_order_owner")
	ErrInsufficientOwnership = errors.New("insufficient_ownership")
	ErrInvalidTransfer       = errors.New("invalid_transfer")
	ErrInvalidFractionCount  = errors.New("invalid_fraction_count")
	ErrMarketSuspended       = errors.New("market_suspended")
	ErrSessionNotFound       = errors.New("session_not_found")
	ErrSessionTerminal       = errors.New("session_terminal")
	ErrSessionPhase          = errors.New("session_wrong_phase")
	ErrLedgerConflict        = errors.New("ledger_conflict")
	ErrTraderRestricted      = errors.New("trader_restricted")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
