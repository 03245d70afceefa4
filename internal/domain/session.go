package domain

import "time"

// SessionPhase represents the state of a trading session.
type SessionPhase string

const (
	SessionPreparing  SessionPhase = "preparing"
	SessionCollecting SessionPhase = "collecting"
	SessionMatching   SessionPhase = "matching"
	SessionClosed     SessionPhase = "closed"
	SessionCancelled  SessionPhase = "cancelled"
)

// Terminal reports whether a phase admits no further transitions.
func (p SessionPhase) Terminal() bool {
	return p == SessionClosed || p == SessionCancelled
}

// TradingSession is a phased batch-trading window for one match:
// collect orders, run one batch matching pass, close. Phase transitions
// are strictly ordered and terminal phases never reopen.
type TradingSession struct {
	SessionID         string
	MatchID           string
	Phase             SessionPhase
	StartTime         time.Time
	EndTime           time.Time
	CollectedOrderIDs []string
	MatchedCount      int
	SuspendedSince    *time.Time // set while the match's matching aspect is suspended
	CreatedAt         time.Time
}
