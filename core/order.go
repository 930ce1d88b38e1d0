package core

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// OrderLine is a cart line frozen at checkout time with its captured
// subtotal. Orders are immutable once created.
type OrderLine struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// Order is the record produced by a successful checkout. It captures the
// cart snapshot at commit time; creating it clears the cart's line list
// but not the cart record itself.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Lines     []OrderLine `json:"lines"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewOrderFromSnapshot freezes a cart snapshot into an order with a fresh
// identifier. The snapshot's lines are copied, not aliased.
func NewOrderFromSnapshot(snap CartSnapshot) Order {
	lines := make([]OrderLine, 0, len(snap.Lines))
	var total float64
	for _, l := range snap.Lines {
		sub := l.Subtotal()
		lines = append(lines, OrderLine{
			Code:        l.Code,
			Description: l.Description,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Subtotal:    sub,
		})
		total += sub
	}
	return Order{
		ID:        NewOrderID(),
		UserID:    snap.UserID,
		Lines:     lines,
		Total:     total,
		CreatedAt: time.Now().UTC(),
	}
}

// NewOrderID generates a lexicographically sortable order identifier.
func NewOrderID() string { return ulid.Make().String() }
