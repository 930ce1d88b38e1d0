package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.InventoryGateway = (*InMemoryGateway)(nil)

func seeded(t *testing.T) *InMemoryGateway {
	t.Helper()
	g := NewInMemoryGateway()
	require.NoError(t, g.Upsert(context.Background(), []core.Product{
		{Code: "A", Description: "alpha widget", Price: 2.5, Stock: 3},
		{Code: "B", Description: "beta gadget", Price: 1, Stock: 0},
	}))
	return g
}

func TestAvailability(t *testing.T) {
	g := seeded(t)
	ctx := context.Background()

	av, err := g.Availability(ctx, "A")
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.Equal(t, 3, av.Stock)

	av, err = g.Availability(ctx, "B")
	require.NoError(t, err)
	assert.False(t, av.Available)

	// Unknown codes read as sold out, not as errors.
	av, err = g.Availability(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, av.Available)
	assert.Zero(t, av.Stock)
}

func TestDecrementConditional(t *testing.T) {
	g := seeded(t)
	ctx := context.Background()

	ok, err := g.Decrement(ctx, "A", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// 1 left; asking for 2 must not apply and must not change stock.
	ok, err = g.Decrement(ctx, "A", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	av, _ := g.Availability(ctx, "A")
	assert.Equal(t, 1, av.Stock)
}

func TestDecrementLastUnitRace(t *testing.T) {
	g := NewInMemoryGateway()
	require.NoError(t, g.Upsert(context.Background(), []core.Product{{Code: "A", Stock: 1}}))

	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.Decrement(context.Background(), "A", 1)
			require.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins, "exactly one reservation may win the last unit")
}

func TestIncrementRestoresStock(t *testing.T) {
	g := seeded(t)
	ctx := context.Background()
	ok, err := g.Decrement(ctx, "A", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g.Increment(ctx, "A", 3))
	av, _ := g.Availability(ctx, "A")
	assert.Equal(t, 3, av.Stock)
}

func TestSearch(t *testing.T) {
	g := seeded(t)
	ctx := context.Background()

	hits, err := g.Search(ctx, "WIDGET", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "A", hits[0].Code)

	hits, err = g.Search(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestUpsertNormalizesPrice(t *testing.T) {
	g := NewInMemoryGateway()
	require.NoError(t, g.Upsert(context.Background(), []core.Product{{Code: "C", Price: -9, Stock: 1}}))
	p, err := g.Get(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Price)

	err = g.Upsert(context.Background(), []core.Product{{Code: ""}})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}
