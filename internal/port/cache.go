package port

import (
	"context"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// DepthSnapshot is the cached market-depth view for one slip.
type DepthSnapshot struct {
	SlipID string       `json:"slip_id"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}

// DepthLevel is one aggregated price level.
type DepthLevel struct {
	Price         int64 `json:"price"`
	TotalQuantity int64 `json:"total_quantity"`
	OrderCount    int   `json:"order_count"`
}

// DepthCache caches per-slip depth snapshots for read-heavy market
// overview queries. A miss returns (nil, nil).
type DepthCache interface {
	SetDepth(ctx context.Context, d *DepthSnapshot) error
	GetDepth(ctx context.Context, slipID string) (*DepthSnapshot, error)
	Invalidate(ctx context.Context, slipID string) error
}

// TradePublisher emits TradeExecuted facts for external wallet
// settlement and statistics collectors. Publishing happens strictly
// outside the per-slip exclusion.
type TradePublisher interface {
	PublishTradeExecuted(ctx context.Context, ev *domain.TradeExecutedEvent) error
	Close() error
}
