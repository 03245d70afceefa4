package domain

import "time"

// SuspensionAspect names a market activity that a suspension can gate.
type SuspensionAspect string

const (
	SuspendNewOrders SuspensionAspect = "new_orders"
	SuspendMatching  SuspensionAspect = "matching"
	SuspendCashOut   SuspensionAspect = "cash_out"
)

// SuspensionType records what triggered a suspension.
type SuspensionType string

const (
	SuspensionGoal     SuspensionType = "goal"
	SuspensionRedCard  SuspensionType = "red_card"
	SuspensionPenalty  SuspensionType = "penalty"
	SuspensionInjury   SuspensionType = "injury"
	SuspensionWeather  SuspensionType = "weather"
	SuspensionManual   SuspensionType = "manual"
	SuspensionAPIEvent SuspensionType = "api_event"
)

// SuspensionStatus represents the lifecycle of a suspension record.
type SuspensionStatus string

const (
	SuspensionActive  SuspensionStatus = "active"
	SuspensionResumed SuspensionStatus = "resumed"
	SuspensionExpired SuspensionStatus = "expired"
)

// Suspension is a timed freeze on one or more market aspects for a
// match, raised by the external event feed (goals, red cards) or an
// operator.
type Suspension struct {
	SuspensionID string
	MatchID      string
	Type         SuspensionType
	Status       SuspensionStatus
	NewOrders    bool
	Matching     bool
	CashOut      bool
	Reason       string
	SuspendedAt  time.Time
	Duration     time.Duration
	ResumedAt    *time.Time
}

// Covers reports whether the suspension gates the given aspect.
func (s *Suspension) Covers(aspect SuspensionAspect) bool {
	switch aspect {
	case SuspendNewOrders:
		return s.NewOrders
	case SuspendMatching:
		return s.Matching
	case SuspendCashOut:
		return s.CashOut
	}
	return false
}

// ActiveAt reports whether the suspension is in force at the given
// time: status active and inside its window.
func (s *Suspension) ActiveAt(now time.Time) bool {
	if s.Status != SuspensionActive {
		return false
	}
	return now.Before(s.SuspendedAt.Add(s.Duration))
}
