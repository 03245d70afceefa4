package domain

import "time"

// OrderSide indicates whether an order buys or sells slip ownership.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusExpired         OrderStatus = "expired"
)

// Terminal reports whether a status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// Order represents a buy or sell instruction against a slip's fractional
// ownership. Quantity and fill fields are in basis points of the slip.
type Order struct {
	OrderID           string
	SlipID            string
	MatchID           string
	TraderID          string
	Side              OrderSide
	Price             int64 // cents per full slip (10000 bp)
	Quantity          int64 // bp
	FilledQuantity    int64 // bp
	RemainingQuantity int64 // bp
	CancelledQuantity int64 // bp
	AllowPartial      bool
	Frozen            bool // set after a matching fault, pending reconciliation
	Status            OrderStatus
	ExpiresAt         time.Time
	CreatedAt         time.Time
	CancelledAt       *time.Time
	ExpiredAt         *time.Time
	Trades            []*Trade
}

// AveragePrice computes the volume-weighted average execution price
// using integer arithmetic. Returns (0, false) when nothing has filled.
func (o *Order) AveragePrice() (int64, bool) {
	if len(o.Trades) == 0 || o.FilledQuantity == 0 {
		return 0, false
	}
	var total int64
	for _, t := range o.Trades {
		total += t.PricePerUnit * t.Quantity
	}
	return total / o.FilledQuantity, true
}
