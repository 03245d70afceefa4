package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/store"
)

// SessionTradesHook is called with the trades of a completed batch
// pass, outside any per-slip lock.
type SessionTradesHook func(sess *domain.TradingSession, trades []*domain.Trade)

// SessionManager drives trading sessions through their phases:
// collect orders for a window, run one batch matching pass over the
// collected snapshot, close. A ticker goroutine enforces the collection
// deadline and the suspension timeout independently of event arrival.
//
// While a match's matching aspect is suspended the session simply stops
// advancing; a suspension outlasting maxSuspension forces the session
// to cancelled and expires its collected orders.
type SessionManager struct {
	mu       sync.Mutex
	sessions *store.SessionStore
	orders   *store.OrderStore
	matcher  *Matcher
	slips    *domain.SlipRegistry
	guard    *store.SuspensionStore
	expiry   *ExpiryManager

	collectionDuration time.Duration
	maxSuspension      time.Duration
	tick               time.Duration
	onTrades           SessionTradesHook
	onExpired          ExpiredHook
}

// NewSessionManager creates a SessionManager. onTrades and onExpired
// may be nil.
func NewSessionManager(
	sessions *store.SessionStore,
	orders *store.OrderStore,
	matcher *Matcher,
	slips *domain.SlipRegistry,
	guard *store.SuspensionStore,
	expiry *ExpiryManager,
	collectionDuration, maxSuspension, tick time.Duration,
	onTrades SessionTradesHook,
	onExpired ExpiredHook,
) *SessionManager {
	return &SessionManager{
		sessions:           sessions,
		orders:             orders,
		matcher:            matcher,
		slips:              slips,
		guard:              guard,
		expiry:             expiry,
		collectionDuration: collectionDuration,
		maxSuspension:      maxSuspension,
		tick:               tick,
		onTrades:           onTrades,
		onExpired:          onExpired,
	}
}

// Create prepares a new session for a match.
func (sm *SessionManager) Create(matchID string) *domain.TradingSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sess := &domain.TradingSession{
		SessionID: uuid.New().String(),
		MatchID:   matchID,
		Phase:     domain.SessionPreparing,
		CreatedAt: time.Now(),
	}
	sm.sessions.Create(sess)
	return sess
}

// StartCollecting moves a session from preparing to collecting and
// opens its order-collection window.
func (sm *SessionManager) StartCollecting(sessionID string) (*domain.TradingSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sess, err := sm.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Phase.Terminal() {
		return nil, domain.ErrSessionTerminal
	}
	if sess.Phase != domain.SessionPreparing {
		return nil, domain.ErrSessionPhase
	}

	now := time.Now()
	sess.Phase = domain.SessionCollecting
	sess.StartTime = now
	sess.EndTime = now.Add(sm.collectionDuration)
	return sess, nil
}

// CollectingSession returns the session currently collecting orders
// for a match, or nil when none is.
func (sm *SessionManager) CollectingSession(matchID string) *domain.TradingSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, sess := range sm.sessions.ActiveSessions() {
		if sess.MatchID == matchID && sess.Phase == domain.SessionCollecting {
			return sess
		}
	}
	return nil
}

// CollectOrder adds an order to a collecting session's snapshot.
func (sm *SessionManager) CollectOrder(sessionID, orderID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sess, err := sm.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if sess.Phase.Terminal() {
		return domain.ErrSessionTerminal
	}
	if sess.Phase != domain.SessionCollecting {
		return domain.ErrSessionPhase
	}
	sess.CollectedOrderIDs = append(sess.CollectedOrderIDs, orderID)
	return nil
}

// TriggerMatching explicitly ends collection and runs the batch pass,
// without waiting for the window to elapse. A session whose match has
// its matching aspect suspended refuses the trigger.
func (sm *SessionManager) TriggerMatching(sessionID string) (*domain.TradingSession, error) {
	sm.mu.Lock()
	sess, err := sm.sessions.Get(sessionID)
	if err != nil {
		sm.mu.Unlock()
		return nil, err
	}
	if sess.Phase.Terminal() {
		sm.mu.Unlock()
		return nil, domain.ErrSessionTerminal
	}
	if sess.Phase != domain.SessionCollecting {
		sm.mu.Unlock()
		return nil, domain.ErrSessionPhase
	}
	if sm.guard.IsSuspended(sess.MatchID, domain.SuspendMatching, time.Now()) {
		sm.mu.Unlock()
		return nil, domain.ErrMarketSuspended
	}
	sess.Phase = domain.SessionMatching
	snapshot := append([]string(nil), sess.CollectedOrderIDs...)
	sm.mu.Unlock()

	sm.runBatch(sess, snapshot)
	return sess, nil
}

// Cancel forces a non-terminal session to cancelled, expiring its
// collected orders and releasing their holds.
func (sm *SessionManager) Cancel(sessionID string) (*domain.TradingSession, error) {
	sm.mu.Lock()
	sess, err := sm.sessions.Get(sessionID)
	if err != nil {
		sm.mu.Unlock()
		return nil, err
	}
	if sess.Phase.Terminal() {
		sm.mu.Unlock()
		return nil, domain.ErrSessionTerminal
	}
	sess.Phase = domain.SessionCancelled
	sess.EndTime = time.Now()
	collected := append([]string(nil), sess.CollectedOrderIDs...)
	sm.mu.Unlock()

	sm.expireCollected(collected)
	return sess, nil
}

// Start launches the phase-advancing goroutine. It stops when ctx is
// cancelled.
func (sm *SessionManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sm.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				sm.Tick(t)
			}
		}
	}()
}

// Tick advances every active session whose deadline passed, honoring
// suspensions. Exposed for tests.
func (sm *SessionManager) Tick(now time.Time) {
	sm.mu.Lock()
	sessions := sm.sessions.ActiveSessions()
	sm.mu.Unlock()

	for _, sess := range sessions {
		sm.advance(sess, now)
	}
}

// advance moves one session forward if it is due.
func (sm *SessionManager) advance(sess *domain.TradingSession, now time.Time) {
	sm.mu.Lock()

	if sess.Phase.Terminal() {
		sm.mu.Unlock()
		return
	}

	// A suspended market pauses the session where it stands. Only a
	// suspension outlasting the maximum forces cancellation.
	if sm.guard.IsSuspended(sess.MatchID, domain.SuspendMatching, now) {
		if sess.SuspendedSince == nil {
			t := now
			sess.SuspendedSince = &t
		}
		overdue := now.Sub(*sess.SuspendedSince) > sm.maxSuspension
		sm.mu.Unlock()
		if overdue {
			_, _ = sm.Cancel(sess.SessionID)
		}
		return
	}
	sess.SuspendedSince = nil

	if sess.Phase != domain.SessionCollecting || now.Before(sess.EndTime) {
		sm.mu.Unlock()
		return
	}

	sess.Phase = domain.SessionMatching
	snapshot := append([]string(nil), sess.CollectedOrderIDs...)
	sm.mu.Unlock()

	sm.runBatch(sess, snapshot)
}

// runBatch executes the batch pass over the snapshot, slip by slip,
// then closes the session. Other slips keep matching even when one
// slip's pass hits a fault. A session cancelled while the pass was in
// flight stays cancelled.
func (sm *SessionManager) runBatch(sess *domain.TradingSession, snapshot []string) {
	bySlip := make(map[string][]string)
	for _, orderID := range snapshot {
		o, err := sm.orders.Get(orderID)
		if err != nil {
			continue
		}
		bySlip[o.SlipID] = append(bySlip[o.SlipID], orderID)
	}

	var trades []*domain.Trade
	for slipID, orderIDs := range bySlip {
		trades = append(trades, sm.matcher.BatchMatch(slipID, orderIDs)...)
	}

	sm.mu.Lock()
	sess.MatchedCount += len(trades)
	if !sess.Phase.Terminal() {
		sess.Phase = domain.SessionClosed
		sess.EndTime = time.Now()
	}
	sm.mu.Unlock()

	if sm.onTrades != nil && len(trades) > 0 {
		sm.onTrades(sess, trades)
	}
}

// expireCollected expires the given orders and releases their holds.
func (sm *SessionManager) expireCollected(orderIDs []string) {
	for _, orderID := range orderIDs {
		order, err := sm.orders.Get(orderID)
		if err != nil {
			continue
		}
		sm.expiry.Remove(orderID)
		if sm.matcher.ExpireOrder(order) && sm.onExpired != nil {
			sm.onExpired(order)
		}
	}
}
