package domain

import "time"

// TradeStatus represents the settlement state of a trade record.
type TradeStatus string

const (
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusFaulted   TradeStatus = "faulted"
)

// Trade represents a matched execution between a buy and a sell order
// on the same slip. The quantity is the ownership transferred in basis
// points and PricePerUnit is expressed per full slip, like order prices.
type Trade struct {
	TradeID      string
	SlipID       string
	BuyOrderID   string
	SellOrderID  string
	BuyerID      string
	SellerID     string
	Quantity     int64 // bp
	PricePerUnit int64 // cents per full slip
	Fee          int64 // cents, withheld from the seller
	Status       TradeStatus
	ExecutedAt   time.Time
}

// Notional returns the gross cash value of the trade in cents.
func (t *Trade) Notional() int64 {
	return t.PricePerUnit * t.Quantity / FullOwnershipBP
}

// SellerProceeds returns the cash credited to the seller after fees.
func (t *Trade) SellerProceeds() int64 {
	return t.Notional() - t.Fee
}
