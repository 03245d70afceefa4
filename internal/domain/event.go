package domain

import "time"

// TradeExecutedEvent is the fact published after a trade completes.
// External wallet settlement moves the money; external statistics
// collectors consume the same stream. The exchange itself never calls
// out synchronously to move funds.
type TradeExecutedEvent struct {
	TradeID    string    `json:"trade_id"`
	SlipID     string    `json:"slip_id"`
	MatchID    string    `json:"match_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	Quantity   int64     `json:"quantity_bp"`
	Price      int64     `json:"price_per_unit"`
	Fee        int64     `json:"fee"`
	ExecutedAt time.Time `json:"executed_at"`
}
