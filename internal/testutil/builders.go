package testutil

import (
	"github.com/AdonayRH/wahisper-sub000/core"
)

// SessionBuilder helps construct session contexts with fluent chaining.
// Example:
//
//	sc := NewSessionBuilder("u1").State(core.StateAskingQuantity).Shown(p1, p2).Selected(1).Build()
type SessionBuilder struct {
	userID   string
	state    core.State
	shown    []core.ProductRef
	selected int
	quantity int
	query    string
}

// NewSessionBuilder creates a builder for the given user id, starting in
// the initial state.
func NewSessionBuilder(userID string) *SessionBuilder {
	return &SessionBuilder{userID: userID, state: core.StateInitial}
}

// State sets the conversation state (chainable).
func (b *SessionBuilder) State(s core.State) *SessionBuilder { b.state = s; return b }

// Shown sets the last shown product list (chainable).
func (b *SessionBuilder) Shown(refs ...core.ProductRef) *SessionBuilder {
	b.shown = append(b.shown, refs...)
	return b
}

// Selected stages a 1-based product selection (chainable).
func (b *SessionBuilder) Selected(index int) *SessionBuilder { b.selected = index; return b }

// Quantity stages a selected quantity (chainable).
func (b *SessionBuilder) Quantity(n int) *SessionBuilder { b.quantity = n; return b }

// Query sets the last search query (chainable).
func (b *SessionBuilder) Query(q string) *SessionBuilder { b.query = q; return b }

// Build returns the assembled *core.SessionContext. The context is not
// yet shared, so fields are set directly.
func (b *SessionBuilder) Build() *core.SessionContext {
	sc := core.NewSessionContext(b.userID)
	sc.State = b.state
	sc.LastShownProducts = append([]core.ProductRef(nil), b.shown...)
	sc.SelectedProductIndex = b.selected
	sc.SelectedQuantity = b.quantity
	sc.LastQuery = b.query
	return sc
}

// Product builds a catalog product with the common test defaults.
func Product(code, description string, price float64, stock int) core.Product {
	return core.Product{Code: code, Description: description, Price: price, Stock: stock}
}

// Ref builds a product reference.
func Ref(code, description string, price float64) core.ProductRef {
	return core.ProductRef{Code: code, Description: description, Price: price}
}
