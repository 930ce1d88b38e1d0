package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// InMemoryOrders is a volatile core.OrderStore.
type InMemoryOrders struct {
	mu     sync.RWMutex
	orders map[string]core.Order
}

// NewInMemoryOrders constructs an empty order store.
func NewInMemoryOrders() *InMemoryOrders {
	return &InMemoryOrders{orders: make(map[string]core.Order)}
}

// Create stores the order. Duplicate ids are rejected.
func (s *InMemoryOrders) Create(ctx context.Context, order core.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	s.orders[order.ID] = order
	return nil
}

// Get returns the order by id.
func (s *InMemoryOrders) Get(ctx context.Context, id string) (core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return core.Order{}, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	return o, nil
}

// ListByUser returns the user's orders sorted by id (ULIDs sort by time).
func (s *InMemoryOrders) ListByUser(ctx context.Context, userID string) ([]core.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of stored orders. Intended for tests.
func (s *InMemoryOrders) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// StaticAdmins is a fixed-membership core.AdminAuthorizer for tests and
// single-tenant deployments configured by env.
type StaticAdmins struct {
	mu     sync.RWMutex
	admins map[string]struct{}
}

// NewStaticAdmins builds the authorizer from a user id list.
func NewStaticAdmins(userIDs ...string) *StaticAdmins {
	s := &StaticAdmins{admins: make(map[string]struct{}, len(userIDs))}
	for _, id := range userIDs {
		s.admins[id] = struct{}{}
	}
	return s
}

// IsAdmin reports membership.
func (s *StaticAdmins) IsAdmin(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[userID]
	return ok, nil
}

// Grant adds a user to the admin set.
func (s *StaticAdmins) Grant(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[userID] = struct{}{}
}
