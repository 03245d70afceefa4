package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/store"
)

// Valid suspension trigger types.
var validSuspensionTypes = map[domain.SuspensionType]bool{
	domain.SuspensionGoal:     true,
	domain.SuspensionRedCard:  true,
	domain.SuspensionPenalty:  true,
	domain.SuspensionInjury:   true,
	domain.SuspensionWeather:  true,
	domain.SuspensionManual:   true,
	domain.SuspensionAPIEvent: true,
}

// TriggerSuspensionRequest represents the input from the external event
// feed or an operator.
type TriggerSuspensionRequest struct {
	MatchID   string
	Type      domain.SuspensionType
	NewOrders bool
	Matching  bool
	CashOut   bool
	Duration  time.Duration
	Reason    string
}

// SuspensionStatus summarizes a match's suspension state for the
// status endpoint.
type SuspensionStatus struct {
	MatchID     string
	NewOrders   bool
	Matching    bool
	CashOut     bool
	Suspensions []*domain.Suspension
}

// SuspensionService manages market suspensions: triggering, resuming,
// and the timed auto-resume sweep.
type SuspensionService struct {
	guard         *store.SuspensionStore
	logger        *slog.Logger
	sweepInterval time.Duration
}

// NewSuspensionService creates a new SuspensionService.
func NewSuspensionService(guard *store.SuspensionStore, logger *slog.Logger, sweepInterval time.Duration) *SuspensionService {
	return &SuspensionService{guard: guard, logger: logger, sweepInterval: sweepInterval}
}

// Trigger validates and records a new suspension.
func (s *SuspensionService) Trigger(req TriggerSuspensionRequest) (*domain.Suspension, error) {
	if !idRegex.MatchString(req.MatchID) {
		return nil, &domain.ValidationError{
			Message: "match_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !validSuspensionTypes[req.Type] {
		return nil, &domain.ValidationError{
			Message: "Unknown suspension type: " + string(req.Type) + ". Must be one of: goal, red_card, penalty, injury, weather, manual, api_event",
		}
	}
	if !req.NewOrders && !req.Matching && !req.CashOut {
		return nil, &domain.ValidationError{
			Message: "at least one of new_orders, matching, cash_out must be set",
		}
	}
	if req.Duration <= 0 {
		return nil, &domain.ValidationError{
			Message: "duration must be positive",
		}
	}

	sp := &domain.Suspension{
		SuspensionID: uuid.New().String(),
		MatchID:      req.MatchID,
		Type:         req.Type,
		Status:       domain.SuspensionActive,
		NewOrders:    req.NewOrders,
		Matching:     req.Matching,
		CashOut:      req.CashOut,
		Reason:       req.Reason,
		SuspendedAt:  time.Now(),
		Duration:     req.Duration,
	}
	s.guard.Add(sp)

	s.logger.Info("market suspended",
		"match_id", sp.MatchID,
		"type", string(sp.Type),
		"duration", sp.Duration.String())
	return sp, nil
}

// Resume lifts all active suspensions for a match and returns how many
// were resumed.
func (s *SuspensionService) Resume(matchID string) (int, error) {
	if !idRegex.MatchString(matchID) {
		return 0, &domain.ValidationError{
			Message: "match_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	resumed := s.guard.Resume(matchID, time.Now())
	if resumed > 0 {
		s.logger.Info("market resumed", "match_id", matchID, "resumed", resumed)
	}
	return resumed, nil
}

// Status reports which aspects are currently suspended for a match.
func (s *SuspensionService) Status(matchID string) *SuspensionStatus {
	now := time.Now()
	return &SuspensionStatus{
		MatchID:     matchID,
		NewOrders:   s.guard.IsSuspended(matchID, domain.SuspendNewOrders, now),
		Matching:    s.guard.IsSuspended(matchID, domain.SuspendMatching, now),
		CashOut:     s.guard.IsSuspended(matchID, domain.SuspendCashOut, now),
		Suspensions: s.guard.ListByMatch(matchID),
	}
}

// Start launches the auto-resume sweeper. It stops when ctx is
// cancelled.
func (s *SuspensionService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.Sweep(t)
			}
		}
	}()
}

// Sweep expires suspensions whose window elapsed. Exposed for tests.
func (s *SuspensionService) Sweep(now time.Time) {
	for _, matchID := range s.guard.ExpireElapsed(now) {
		s.logger.Info("suspension window elapsed", "match_id", matchID)
	}
}
