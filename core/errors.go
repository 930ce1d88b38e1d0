package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the common not-found cases. Wrap with %w so callers
// can branch with errors.Is.
var (
	// ErrNotFound is returned when a product, cart line or order does not
	// exist in the addressed store.
	ErrNotFound = errors.New("not found")
	// ErrUnhandled is returned by a state text handler that has no rule for
	// the input; the dispatch router then falls through to the classifier.
	ErrUnhandled = errors.New("unhandled input")
)

// ValidationError reports malformed user input (quantity, index, token).
// It is always recoverable: the conversation stays in place and re-prompts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError reports that a requested quantity exceeds the
// live stock level. Available carries the maximum still obtainable so the
// user can be re-prompted with a corrected bound.
type InsufficientStockError struct {
	Code      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Code, e.Requested, e.Available)
}

// InsufficientLine describes one cart line that failed stock verification
// during checkout.
type InsufficientLine struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// CheckoutStockError aggregates every line that failed the checkout
// Verify or Reserve phase. No inventory mutation survives when it is
// returned; decrements applied before the failing line are rolled back.
type CheckoutStockError struct {
	Lines []InsufficientLine
}

func (e *CheckoutStockError) Error() string {
	return fmt.Sprintf("checkout rejected: %d line(s) short on stock", len(e.Lines))
}

// PermissionError reports an admin-gated action attempted without the
// administrator capability. Terminal for the event; no state change.
type PermissionError struct {
	UserID string
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s lacks permission for %s", e.UserID, e.Action)
}

// UpstreamTimeoutError reports that a collaborator across a process
// boundary (classifier, catalog) did not answer within its budget.
type UpstreamTimeoutError struct {
	Collaborator string
	Err          error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Collaborator, e.Err)
}

func (e *UpstreamTimeoutError) Unwrap() error { return e.Err }

// InternalInconsistencyError reports a required session-context field
// missing for the current state. The engine logs it, apologizes to the
// user and forces the session back to StateInitial.
type InternalInconsistencyError struct {
	State   State
	Missing string
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("state %s missing required context field %s", e.State, e.Missing)
}
