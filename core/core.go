package core

import (
	"context"
	"time"
)

// SessionStore owns the per-user session contexts and their lifecycle.
//
// Semantics:
//   - Init/Get are create-on-first-touch and idempotent; Get never fails
//     and never returns a context whose State is outside the defined set
//   - SetState/SetValue/Touch are unconditional writes
//   - EvictInactive deletes contexts idle longer than maxIdle; it takes the
//     same per-session lock as Acquire so it never tears an in-flight event
//   - Acquire serializes whole events for one user; unrelated users are
//     never blocked by each other
type SessionStore interface {
	Init(userID string)
	Get(userID string) *SessionContext
	SetState(userID string, s State)
	SetValue(userID, key string, v any)
	Touch(userID string)
	EvictInactive(maxIdle time.Duration) int
	// Acquire blocks until the per-session lock for userID is held and
	// returns the release function.
	Acquire(userID string) (release func())
}

// CartStore owns the line items of every cart. It is deliberately
// stock-agnostic; stock checks are layered on top by the flow handlers and
// the checkout orchestrator.
type CartStore interface {
	// Add merges quantity into an existing line with the same product code
	// or appends a new line. The price is normalized via NormalizePrice.
	Add(userID string, item ProductRef, quantity int) error
	// Remove deletes the line at the 0-based index. ErrNotFound when out of
	// range.
	Remove(userID string, index int) error
	// SetQuantity overwrites the line's quantity; n <= 0 removes the line.
	SetQuantity(userID string, index, n int) error
	// Clear empties the cart. Idempotent.
	Clear(userID string)
	// Snapshot returns an immutable copy of the cart.
	Snapshot(userID string) CartSnapshot
}

// InventoryGateway is the boundary to the live catalog. Reads are never
// cached; Decrement is the conditional atomic reservation primitive used
// by checkout.
type InventoryGateway interface {
	// Availability reads the live stock level for a product code.
	Availability(ctx context.Context, code string) (Availability, error)
	// Decrement subtracts n from stock only if stock >= n, reporting
	// whether the decrement applied.
	Decrement(ctx context.Context, code string, n int) (bool, error)
	// Increment adds n back to stock (checkout rollback path).
	Increment(ctx context.Context, code string, n int) error
	// Get returns the full product record. ErrNotFound when absent.
	Get(ctx context.Context, code string) (Product, error)
	// Search returns up to limit products matching the query.
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	// Upsert inserts or replaces product records (bulk inventory upload).
	Upsert(ctx context.Context, products []Product) error
}

// OrderStore persists orders created by the checkout orchestrator.
type OrderStore interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

// Messenger is the outbound messaging transport. All operations are
// fire-and-forget from the core's point of view: delivery failure is
// logged, never allowed to block a state transition that already
// committed.
type Messenger interface {
	Send(ctx context.Context, userID, text string) error
	Edit(ctx context.Context, userID, messageRef, text string) error
	Delete(ctx context.Context, userID, messageRef string) error
	// GetFile downloads the bytes behind an opaque file reference.
	GetFile(ctx context.Context, fileRef string) ([]byte, error)
}

// AdminAuthorizer answers the admin gate consulted before any
// admin-namespaced action.
type AdminAuthorizer interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// FileParser turns an uploaded inventory file into normalized product
// records. Parsing details are a collaborator concern; the core only
// consumes the result.
type FileParser interface {
	Parse(data []byte) ([]Product, error)
}
