package service

import (
	"context"
	"log/slog"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/engine"
	"github.com/oddsfair/slipexchange/internal/port"
	"github.com/oddsfair/slipexchange/internal/store"
)

// MarketOverview aggregates a slip's market state for the depth
// endpoint.
type MarketOverview struct {
	Depth      *port.DepthSnapshot
	BestBid    *int64
	BestAsk    *int64
	Spread     *int64
	TradeCount int
	FromCache  bool
}

// MarketService serves market depth and trade history. Depth snapshots
// are cached in Redis with a short TTL; a miss rebuilds from the book.
type MarketService struct {
	books      *engine.BookManager
	tradeStore *store.TradeStore
	slips      *domain.SlipRegistry
	cache      port.DepthCache
	logger     *slog.Logger
	levels     int
}

// NewMarketService creates a MarketService. cache may be nil, in which
// case every request rebuilds from the book. levels caps the aggregated
// price levels per side.
func NewMarketService(
	books *engine.BookManager,
	tradeStore *store.TradeStore,
	slips *domain.SlipRegistry,
	cache port.DepthCache,
	logger *slog.Logger,
	levels int,
) *MarketService {
	if levels < 1 {
		levels = 10
	}
	return &MarketService{
		books:      books,
		tradeStore: tradeStore,
		slips:      slips,
		cache:      cache,
		logger:     logger,
		levels:     levels,
	}
}

// Overview returns a slip's aggregated depth, best prices, and spread.
func (s *MarketService) Overview(ctx context.Context, slipID string) (*MarketOverview, error) {
	if _, err := s.slips.Get(slipID); err != nil {
		return nil, err
	}

	snap, fromCache := s.depth(ctx, slipID)

	ov := &MarketOverview{
		Depth:      snap,
		TradeCount: s.tradeStore.CountBySlip(slipID),
		FromCache:  fromCache,
	}
	if len(snap.Bids) > 0 {
		bid := snap.Bids[0].Price
		ov.BestBid = &bid
	}
	if len(snap.Asks) > 0 {
		ask := snap.Asks[0].Price
		ov.BestAsk = &ask
	}
	if ov.BestBid != nil && ov.BestAsk != nil {
		spread := *ov.BestAsk - *ov.BestBid
		ov.Spread = &spread
	}
	return ov, nil
}

// depth returns the slip's depth snapshot, preferring the cache.
func (s *MarketService) depth(ctx context.Context, slipID string) (*port.DepthSnapshot, bool) {
	if s.cache != nil {
		snap, err := s.cache.GetDepth(ctx, slipID)
		if err != nil {
			s.logger.Warn("depth cache read failed", "slip_id", slipID, "error", err)
		} else if snap != nil {
			return snap, true
		}
	}

	snap := s.buildDepth(slipID)

	if s.cache != nil {
		if err := s.cache.SetDepth(ctx, snap); err != nil {
			s.logger.Warn("depth cache write failed", "slip_id", slipID, "error", err)
		}
	}
	return snap, false
}

// buildDepth aggregates the book into price levels under its read lock.
func (s *MarketService) buildDepth(slipID string) *port.DepthSnapshot {
	book := s.books.GetOrCreate(slipID)
	book.RLock()
	defer book.RUnlock()

	return &port.DepthSnapshot{
		SlipID: slipID,
		Bids:   toDepthLevels(book.TopBuys(s.levels)),
		Asks:   toDepthLevels(book.TopSells(s.levels)),
	}
}

func toDepthLevels(levels []engine.PriceLevel) []port.DepthLevel {
	out := make([]port.DepthLevel, 0, len(levels))
	for _, lv := range levels {
		out = append(out, port.DepthLevel{
			Price:         lv.Price,
			TotalQuantity: lv.TotalQuantity,
			OrderCount:    lv.OrderCount,
		})
	}
	return out
}

// Trades returns a slip's trade history, oldest first.
func (s *MarketService) Trades(slipID string) ([]*domain.Trade, error) {
	if _, err := s.slips.Get(slipID); err != nil {
		return nil, err
	}
	return s.tradeStore.GetBySlip(slipID), nil
}
