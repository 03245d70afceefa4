package handler

import (
	"errors"
	"net/http"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// mapDomainError maps domain errors to HTTP responses. Validation
// errors carry their own message; sentinels map to stable error codes.
func mapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrSlipNotFound):
		WriteError(w, http.StatusNotFound, "slip_not_found", err.Error())
	case errors.Is(err, domain.ErrSlipAlreadyListed):
		WriteError(w, http.StatusConflict, "slip_already_listed", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		WriteError(w, http.StatusConflict, "order_not_cancellable", err.Error())
	case errors.Is(err, domain.ErrNotOrderOwner):
		WriteError(w, http.StatusForbidden, "not_order_owner", err.Error())
	case errors.Is(err, domain.ErrInsufficientOwnership):
		WriteError(w, http.StatusConflict, "insufficient_ownership", err.Error())
	case errors.Is(err, domain.ErrInvalidTransfer):
		WriteError(w, http.StatusBadRequest, "invalid_transfer", err.Error())
	case errors.Is(err, domain.ErrInvalidFractionCount):
		WriteError(w, http.StatusBadRequest, "invalid_fraction_count", err.Error())
	case errors.Is(err, domain.ErrMarketSuspended):
		WriteError(w, http.StatusConflict, "market_suspended", err.Error())
	case errors.Is(err, domain.ErrTraderRestricted):
		WriteError(w, http.StatusForbidden, "trader_restricted", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		WriteError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, domain.ErrSessionTerminal):
		WriteError(w, http.StatusConflict, "session_terminal", err.Error())
	case errors.Is(err, domain.ErrSessionPhase):
		WriteError(w, http.StatusConflict, "session_phase", err.Error())
	case errors.Is(err, domain.ErrLedgerConflict):
		WriteError(w, http.StatusConflict, "ledger_conflict", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
