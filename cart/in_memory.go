package cart

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/AdonayRH/wahisper-sub000/core"
)

const shardCount = 16

type record struct {
	lines     []core.CartLine
	updatedAt time.Time
}

type shard struct {
	mu    sync.RWMutex
	carts map[string]*record
}

// InMemoryStore is a process-local core.CartStore keyed by user id. Carts
// are created lazily on first mutation; Clear empties the line list but
// keeps the record. Maps are sharded so unrelated users never contend.
type InMemoryStore struct {
	shards [shardCount]*shard
}

// NewInMemoryStore constructs an empty in-memory cart store.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{carts: make(map[string]*record)}
	}
	return s
}

func (s *InMemoryStore) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return s.shards[h.Sum32()%shardCount]
}

func (sh *shard) getOrCreateLocked(userID string) *record {
	r, ok := sh.carts[userID]
	if !ok {
		r = &record{}
		sh.carts[userID] = r
	}
	return r
}

// Add merges quantity into an existing line with the same product code or
// appends a new line. The unit price is normalized; malformed prices were
// already coerced to zero by core.NormalizePrice at parse time, negative
// values are clamped here as a second guard.
func (s *InMemoryStore) Add(userID string, item core.ProductRef, quantity int) error {
	if quantity < 1 {
		return &core.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be >= 1, got %d", quantity)}
	}
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r := sh.getOrCreateLocked(userID)
	for i := range r.lines {
		if r.lines[i].Code == item.Code {
			r.lines[i].Quantity += quantity
			r.updatedAt = time.Now()
			return nil
		}
	}
	price := item.Price
	if price < 0 {
		price = 0
	}
	r.lines = append(r.lines, core.CartLine{
		Code:        item.Code,
		Description: item.Description,
		UnitPrice:   price,
		Quantity:    quantity,
	})
	r.updatedAt = time.Now()
	return nil
}

// Remove deletes the line at the 0-based index.
func (s *InMemoryStore) Remove(userID string, index int) error {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.carts[userID]
	if !ok || index < 0 || index >= len(r.lines) {
		return fmt.Errorf("cart line %d for %s: %w", index, userID, core.ErrNotFound)
	}
	r.lines = append(r.lines[:index], r.lines[index+1:]...)
	r.updatedAt = time.Now()
	return nil
}

// SetQuantity overwrites the line's quantity. n <= 0 removes the line,
// preserving the invariant that stored quantities are always >= 1.
func (s *InMemoryStore) SetQuantity(userID string, index, n int) error {
	if n <= 0 {
		return s.Remove(userID, index)
	}
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.carts[userID]
	if !ok || index < 0 || index >= len(r.lines) {
		return fmt.Errorf("cart line %d for %s: %w", index, userID, core.ErrNotFound)
	}
	r.lines[index].Quantity = n
	r.updatedAt = time.Now()
	return nil
}

// Clear empties the item list. Idempotent; the cart record survives.
func (s *InMemoryStore) Clear(userID string) {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.carts[userID]
	if !ok {
		return
	}
	r.lines = nil
	r.updatedAt = time.Now()
}

// Snapshot returns an immutable copy of the cart. The live line slice is
// never exposed.
func (s *InMemoryStore) Snapshot(userID string) core.CartSnapshot {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	snap := core.CartSnapshot{UserID: userID}
	r, ok := sh.carts[userID]
	if !ok {
		return snap
	}
	snap.Lines = append([]core.CartLine(nil), r.lines...)
	snap.UpdatedAt = r.updatedAt
	return snap
}
