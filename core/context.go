package core

import (
	"sync"
	"time"
)

// PendingLine stages a cart-line mutation (removal or unit addition) that
// still needs further input or confirmation. Index is the 0-based cart
// position at staging time.
type PendingLine struct {
	Line     CartLine
	Index    int
	Quantity int
}

// PendingRemoval is kept as a named alias for readability at use sites.
type PendingRemoval = PendingLine

// SessionContext tracks one user's position in the shopping dialogue plus
// the transient slots the current state needs. It is safe for concurrent
// access, though the dispatch router additionally serializes whole events
// per session.
//
// Contract:
//   - exactly one context exists per active user id; creation is idempotent
//   - every mutation refreshes LastActivity
//   - typed fields cover the states defined in flow; Slots is the escape
//     hatch for extension data only
//   - Snapshot returns a copy that callers may read without locking
type SessionContext struct {
	mu sync.RWMutex

	UserID       string
	State        State
	LastActivity time.Time

	// Selection staged while walking the add-to-cart dialogue.
	SelectedProductIndex int // 1-based index into LastShownProducts, 0 = none
	SelectedQuantity     int

	// Search context handed to the intent classifier.
	LastShownProducts []ProductRef
	LastQuery         string

	// Staged mutations awaiting confirmation.
	PendingRemoval  *PendingRemoval
	PendingAddition *PendingLine

	// Admin upload flow.
	PendingUploadFile string
	StagedProducts    []Product

	Slots map[string]any
}

// NewSessionContext returns a fresh context in StateInitial.
func NewSessionContext(userID string) *SessionContext {
	return &SessionContext{
		UserID:       userID,
		State:        StateInitial,
		LastActivity: time.Now(),
		Slots:        map[string]any{},
	}
}

// Do runs fn while holding the context's write lock. Handlers use it to
// read-modify-write the typed fields as one unit.
func (c *SessionContext) Do(fn func(ctx *SessionContext)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
	c.LastActivity = time.Now()
}

// CurrentState returns the state under the read lock.
func (c *SessionContext) CurrentState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.State
}

// SetState overwrites the state unconditionally. Transition legality is the
// flow package's responsibility, not the context's.
func (c *SessionContext) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.State = s
	c.LastActivity = time.Now()
}

// Touch refreshes the activity timestamp.
func (c *SessionContext) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastActivity = time.Now()
}

// IdleSince returns the last activity timestamp.
func (c *SessionContext) IdleSince() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastActivity
}

// SetValue stores an extension slot value.
func (c *SessionContext) SetValue(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Slots == nil {
		c.Slots = map[string]any{}
	}
	c.Slots[key] = v
	c.LastActivity = time.Now()
}

// Value returns an extension slot value and its existence flag.
func (c *SessionContext) Value(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Slots[key]
	return v, ok
}

// SelectedProduct resolves the staged selection against LastShownProducts.
// The second return is false when no valid selection is staged.
func (c *SessionContext) SelectedProduct() (ProductRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.SelectedProductIndex < 1 || c.SelectedProductIndex > len(c.LastShownProducts) {
		return ProductRef{}, false
	}
	return c.LastShownProducts[c.SelectedProductIndex-1], true
}

// ClearSelection discards the staged product selection and quantity.
func (c *SessionContext) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SelectedProductIndex = 0
	c.SelectedQuantity = 0
	c.LastActivity = time.Now()
}

// Reset discards all transient slots and returns the session to
// StateInitial. The user id and activity timestamp survive.
func (c *SessionContext) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.State = StateInitial
	c.SelectedProductIndex = 0
	c.SelectedQuantity = 0
	c.LastShownProducts = nil
	c.LastQuery = ""
	c.PendingRemoval = nil
	c.PendingAddition = nil
	c.PendingUploadFile = ""
	c.StagedProducts = nil
	c.Slots = map[string]any{}
	c.LastActivity = time.Now()
}

// Snapshot returns a deep copy safe for independent inspection.
func (c *SessionContext) Snapshot() SessionContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := SessionContext{
		UserID:               c.UserID,
		State:                c.State,
		LastActivity:         c.LastActivity,
		SelectedProductIndex: c.SelectedProductIndex,
		SelectedQuantity:     c.SelectedQuantity,
		LastQuery:            c.LastQuery,
		PendingUploadFile:    c.PendingUploadFile,
		Slots:                make(map[string]any, len(c.Slots)),
	}
	clone.LastShownProducts = append([]ProductRef(nil), c.LastShownProducts...)
	clone.StagedProducts = append([]Product(nil), c.StagedProducts...)
	if c.PendingRemoval != nil {
		pr := *c.PendingRemoval
		clone.PendingRemoval = &pr
	}
	if c.PendingAddition != nil {
		pa := *c.PendingAddition
		clone.PendingAddition = &pa
	}
	for k, v := range c.Slots {
		clone.Slots[k] = v
	}
	return clone
}
