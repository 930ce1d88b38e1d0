package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// InMemoryGateway is a process-local catalog with atomic per-item stock
// mutation. A single RWMutex guards the map; the decrement itself is the
// critical section, so two racing reservations for the last unit resolve
// to exactly one winner.
type InMemoryGateway struct {
	mu       sync.RWMutex
	products map[string]core.Product
}

// NewInMemoryGateway constructs an empty in-memory catalog.
func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{products: make(map[string]core.Product)}
}

// Availability reads the live stock level for a product code. Unknown
// codes report unavailable with zero stock rather than an error; the
// catalog boundary treats absence as sold out.
func (g *InMemoryGateway) Availability(ctx context.Context, code string) (core.Availability, error) {
	if err := ctx.Err(); err != nil {
		return core.Availability{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.products[code]
	if !ok {
		return core.Availability{}, nil
	}
	return core.Availability{Available: p.Stock > 0, Stock: p.Stock}, nil
}

// Decrement subtracts n from stock only if stock >= n.
func (g *InMemoryGateway) Decrement(ctx context.Context, code string, n int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if n < 1 {
		return false, &core.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be >= 1, got %d", n)}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.products[code]
	if !ok {
		return false, fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	if p.Stock < n {
		return false, nil
	}
	p.Stock -= n
	g.products[code] = p
	return true, nil
}

// Increment adds n back to stock (checkout rollback path).
func (g *InMemoryGateway) Increment(ctx context.Context, code string, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n < 1 {
		return &core.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be >= 1, got %d", n)}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.products[code]
	if !ok {
		return fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	p.Stock += n
	g.products[code] = p
	return nil
}

// Get returns the full product record.
func (g *InMemoryGateway) Get(ctx context.Context, code string) (core.Product, error) {
	if err := ctx.Err(); err != nil {
		return core.Product{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.products[code]
	if !ok {
		return core.Product{}, fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	return p, nil
}

// Search returns up to limit products whose description or code contains
// the query, case-insensitive, ordered by code for stable output.
func (g *InMemoryGateway) Search(ctx context.Context, query string, limit int) ([]core.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []core.Product
	for _, p := range g.products {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Code), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert inserts or replaces product records.
func (g *InMemoryGateway) Upsert(ctx context.Context, products []core.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range products {
		if p.Code == "" {
			return &core.ValidationError{Field: "code", Reason: "empty product code"}
		}
		p.Price = core.NormalizePrice(p.Price)
		g.products[p.Code] = p
	}
	return nil
}
