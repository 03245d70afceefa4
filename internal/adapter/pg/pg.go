package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/port"
)

var _ port.Repository = (*Repo)(nil)

// Repo persists engine state in Postgres. Writes are upserts keyed on
// the entity ID so replaying a mutation is harmless.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo connects a pool to dsn. Call Close when finished.
func NewRepo(ctx context.Context, dsn string) (*Repo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func (r *Repo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO orders(id, slip_id, match_id, trader_id, side, price, quantity_bp, filled_bp, remaining_bp, cancelled_bp, allow_partial, frozen, status, expires_at, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  filled_bp = EXCLUDED.filled_bp,
  remaining_bp = EXCLUDED.remaining_bp,
  cancelled_bp = EXCLUDED.cancelled_bp,
  frozen = EXCLUDED.frozen,
  status = EXCLUDED.status,
  expires_at = EXCLUDED.expires_at
`, o.OrderID, o.SlipID, o.MatchID, o.TraderID, string(o.Side), o.Price,
		o.Quantity, o.FilledQuantity, o.RemainingQuantity, o.CancelledQuantity,
		o.AllowPartial, o.Frozen, string(o.Status), o.ExpiresAt, o.CreatedAt)
	return err
}

func (r *Repo) SaveTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("nil trade")
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO trades(id, slip_id, buy_order, sell_order, buyer_id, seller_id, quantity_bp, price_per_unit, fee, status, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO NOTHING
`, t.TradeID, t.SlipID, t.BuyOrderID, t.SellOrderID, t.BuyerID, t.SellerID,
		t.Quantity, t.PricePerUnit, t.Fee, string(t.Status), t.ExecutedAt)
	return err
}

func (r *Repo) SaveOwnership(ctx context.Context, records []*domain.OwnershipRecord) error {
	for _, rec := range records {
		if rec == nil {
			continue
		}
		_, err := r.pool.Exec(ctx, `
INSERT INTO ownership_records(id, slip_id, owner_id, percentage_bp, acquired_price, acquired_at, active)
VALUES($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  percentage_bp = EXCLUDED.percentage_bp,
  active = EXCLUDED.active
`, rec.RecordID, rec.SlipID, rec.OwnerID, rec.PercentageBP,
			rec.AcquiredPrice, rec.AcquiredAt, rec.Active)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) SaveSlip(ctx context.Context, s *domain.Slip) error {
	if s == nil {
		return errors.New("nil slip")
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO slips(id, match_id, listed_at)
VALUES($1,$2,$3)
ON CONFLICT (id) DO NOTHING
`, s.SlipID, s.MatchID, s.ListedAt)
	return err
}

func (r *Repo) LoadSlips(ctx context.Context) ([]*domain.Slip, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, match_id, listed_at FROM slips ORDER BY listed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Slip
	for rows.Next() {
		var s domain.Slip
		if err := rows.Scan(&s.SlipID, &s.MatchID, &s.ListedAt); err != nil {
			return nil, err
		}
		res = append(res, &s)
	}
	return res, rows.Err()
}

// LoadOpenOrders returns a slip's resting orders ordered by created_at
// ASC so reinsertion preserves time priority.
func (r *Repo) LoadOpenOrders(ctx context.Context, slipID string) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, slip_id, match_id, trader_id, side, price, quantity_bp, filled_bp, remaining_bp, cancelled_bp, allow_partial, frozen, status, expires_at, created_at
FROM orders
WHERE slip_id = $1 AND remaining_bp > 0 AND NOT frozen AND status IN ('pending','partially_filled')
ORDER BY created_at ASC
`, slipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Order
	for rows.Next() {
		var o domain.Order
		var side, status string
		if err := rows.Scan(&o.OrderID, &o.SlipID, &o.MatchID, &o.TraderID, &side,
			&o.Price, &o.Quantity, &o.FilledQuantity, &o.RemainingQuantity, &o.CancelledQuantity,
			&o.AllowPartial, &o.Frozen, &status, &o.ExpiresAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Side = domain.OrderSide(side)
		o.Status = domain.OrderStatus(status)
		res = append(res, &o)
	}
	return res, rows.Err()
}

func (r *Repo) LoadOwnership(ctx context.Context, slipID string) ([]*domain.OwnershipRecord, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, slip_id, owner_id, percentage_bp, acquired_price, acquired_at, active
FROM ownership_records
WHERE slip_id = $1
ORDER BY acquired_at ASC
`, slipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.OwnershipRecord
	for rows.Next() {
		var rec domain.OwnershipRecord
		if err := rows.Scan(&rec.RecordID, &rec.SlipID, &rec.OwnerID,
			&rec.PercentageBP, &rec.AcquiredPrice, &rec.AcquiredAt, &rec.Active); err != nil {
			return nil, err
		}
		res = append(res, &rec)
	}
	return res, rows.Err()
}
