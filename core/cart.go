package core

import "time"

// CartLine is one product entry in a cart. Quantity is always >= 1; a
// mutation that would drop it to zero or below removes the line instead.
type CartLine struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

// Subtotal returns quantity times unit price for the line.
func (l CartLine) Subtotal() float64 { return float64(l.Quantity) * l.UnitPrice }

// CartSnapshot is an immutable copy of a cart taken for display, checkout
// or export. Mutating a snapshot never affects the live cart.
type CartSnapshot struct {
	UserID    string     `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Empty reports whether the snapshot carries no lines.
func (s CartSnapshot) Empty() bool { return len(s.Lines) == 0 }

// Total sums the subtotals of all lines.
func (s CartSnapshot) Total() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.Subtotal()
	}
	return total
}

// TotalUnits sums the quantities of all lines.
func (s CartSnapshot) TotalUnits() int {
	var n int
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
