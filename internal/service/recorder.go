package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/ledger"
	"github.com/oddsfair/slipexchange/internal/port"
)

// Recorder fans engine mutations out to the durable store, the trade
// stream, and the depth cache. Every integration is optional: a nil
// repository, publisher, or cache is skipped. Failures are logged and
// never surface to the caller; in-memory state is authoritative and
// the durable side is write-behind.
//
// Recorder methods are always called outside the per-slip lock.
type Recorder struct {
	repo      port.Repository
	publisher port.TradePublisher
	cache     port.DepthCache
	ledger    *ledger.Ledger
	slips     *domain.SlipRegistry
	logger    *slog.Logger
	timeout   time.Duration
}

// NewRecorder creates a Recorder. repo, publisher, and cache may each
// be nil.
func NewRecorder(
	repo port.Repository,
	publisher port.TradePublisher,
	cache port.DepthCache,
	lg *ledger.Ledger,
	slips *domain.SlipRegistry,
	logger *slog.Logger,
	timeout time.Duration,
) *Recorder {
	return &Recorder{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		ledger:    lg,
		slips:     slips,
		logger:    logger,
		timeout:   timeout,
	}
}

func (r *Recorder) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

// OrderChanged writes an order's current state through to the store.
func (r *Recorder) OrderChanged(o *domain.Order) {
	if r.repo == nil || o == nil {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.repo.SaveOrder(ctx, o); err != nil {
		r.logger.Warn("persist order failed", "order_id", o.OrderID, "error", err)
	}
}

// SlipRegistered writes a newly listed slip and its seed ownership.
func (r *Recorder) SlipRegistered(s *domain.Slip) {
	if r.repo == nil {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.repo.SaveSlip(ctx, s); err != nil {
		r.logger.Warn("persist slip failed", "slip_id", s.SlipID, "error", err)
	}
	r.ownershipChangedLocked(ctx, s.SlipID)
}

// OwnershipChanged writes a slip's full ownership ledger through.
func (r *Recorder) OwnershipChanged(slipID string) {
	if r.repo == nil {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	r.ownershipChangedLocked(ctx, slipID)
}

func (r *Recorder) ownershipChangedLocked(ctx context.Context, slipID string) {
	records := r.ledger.AllRecords(slipID)
	if err := r.repo.SaveOwnership(ctx, records); err != nil {
		r.logger.Warn("persist ownership failed", "slip_id", slipID, "error", err)
	}
}

// TradesExecuted records completed trades: persists each trade and the
// slip's moved ownership, publishes trade-executed events, and drops
// the slip's cached depth.
func (r *Recorder) TradesExecuted(slipID string, trades []*domain.Trade) {
	if len(trades) == 0 {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()

	matchID, err := r.slips.MatchID(slipID)
	if err != nil {
		matchID = ""
	}

	if r.repo != nil {
		for _, t := range trades {
			if err := r.repo.SaveTrade(ctx, t); err != nil {
				r.logger.Warn("persist trade failed", "trade_id", t.TradeID, "error", err)
			}
		}
		r.ownershipChangedLocked(ctx, slipID)
	}

	if r.publisher != nil {
		for _, t := range trades {
			ev := &domain.TradeExecutedEvent{
				TradeID:    t.TradeID,
				SlipID:     t.SlipID,
				MatchID:    matchID,
				BuyerID:    t.BuyerID,
				SellerID:   t.SellerID,
				Quantity:   t.Quantity,
				Price:      t.PricePerUnit,
				Fee:        t.Fee,
				ExecutedAt: t.ExecutedAt,
			}
			if err := r.publisher.PublishTradeExecuted(ctx, ev); err != nil {
				r.logger.Warn("publish trade failed", "trade_id", t.TradeID, "error", err)
			}
		}
	}

	r.InvalidateDepth(slipID)
}

// InvalidateDepth drops a slip's cached depth snapshot.
func (r *Recorder) InvalidateDepth(slipID string) {
	if r.cache == nil {
		return
	}
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.cache.Invalidate(ctx, slipID); err != nil {
		r.logger.Warn("invalidate depth cache failed", "slip_id", slipID, "error", err)
	}
}
