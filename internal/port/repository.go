package port

import (
	"context"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// Repository is the durable store behind the in-memory engine state.
// Orders, trades, and ownership records are written through on every
// mutation and reloaded on startup; session and suspension state is
// rebuilt from these plus the external event feed.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveTrade(ctx context.Context, t *domain.Trade) error
	SaveOwnership(ctx context.Context, records []*domain.OwnershipRecord) error
	SaveSlip(ctx context.Context, s *domain.Slip) error
	LoadSlips(ctx context.Context) ([]*domain.Slip, error)
	LoadOpenOrders(ctx context.Context, slipID string) ([]*domain.Order, error)
	LoadOwnership(ctx context.Context, slipID string) ([]*domain.OwnershipRecord, error)
	Close()
}
