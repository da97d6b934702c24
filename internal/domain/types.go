package domain

import "time"

// Side represents the order side (buy or sell).
// The wire name is "type" to match the public order shape.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus represents the lifecycle state of an order. There is no
// partial state: an order with 0 < remaining < amount still reports open.
type OrderStatus string

const (
	OrderStatusOpen    OrderStatus = "open"
	OrderStatusMatched OrderStatus = "matched"
)

// Order represents a limit order for the single traded instrument.
// Price is in ticks and quantities are in lots (both int64 fixed-point,
// two decimal places) so remaining-quantity comparisons are exact.
type Order struct {
	ID        uint64      `json:"id"`
	UserID    string      `json:"userId"`
	Side      Side        `json:"type"`
	Price     int64       `json:"price"`     // in ticks, e.g. 10010 = 100.10
	Amount    int64       `json:"amount"`    // original quantity in lots, immutable
	Remaining int64       `json:"remaining"` // 0 <= Remaining <= Amount
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	// Seq is the arrival sequence stamped at index insertion time. It is
	// process-wide across both sides, so same-price orders have a well
	// defined time priority.
	Seq uint64 `json:"seq"`
}

// Clone returns a copy of the order. Matching stages its mutations on
// copies so a failed persist leaves the loaded state untouched.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}

// Trade represents one pairing of a buy order against a sell order.
type Trade struct {
	ID          string    `json:"trade_id"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	Quantity    int64     `json:"quantity"` // in lots
	Price       int64     `json:"price"`    // in ticks
	Timestamp   time.Time `json:"timestamp"`
}

// BookSnapshot is a point-in-time view of both sides of the book,
// best order first. It may race benignly with concurrent matching.
type BookSnapshot struct {
	BuyOrders  []*Order `json:"buy_orders"`
	SellOrders []*Order `json:"sell_orders"`
}
