package store

import (
	"context"
	"testing"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProducts(t *testing.T, s *SQLiteStore) {
	t.Helper()
	require.NoError(t, s.Upsert(context.Background(), []core.Product{
		{Code: "A", Description: "alpha widget", Price: 2.5, Stock: 3},
		{Code: "B", Description: "beta gadget", Price: 1, Stock: 0},
	}))
}

func TestSQLiteAvailability(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)
	ctx := context.Background()

	av, err := s.Availability(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, core.Availability{Available: true, Stock: 3}, av)

	av, err = s.Availability(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, av.Available)
}

func TestSQLiteDecrementConditional(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)
	ctx := context.Background()

	ok, err := s.Decrement(ctx, "A", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Decrement(ctx, "A", 2)
	require.NoError(t, err)
	assert.False(t, ok, "decrement below zero must not apply")

	av, _ := s.Availability(ctx, "A")
	assert.Equal(t, 1, av.Stock)

	_, err = s.Decrement(ctx, "missing", 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteIncrement(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)
	ctx := context.Background()

	require.NoError(t, s.Increment(ctx, "B", 4))
	av, _ := s.Availability(ctx, "B")
	assert.Equal(t, 4, av.Stock)

	assert.ErrorIs(t, s.Increment(ctx, "missing", 1), core.ErrNotFound)
}

func TestSQLiteSearch(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)

	hits, err := s.Search(context.Background(), "WIDGET", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "A", hits[0].Code)
}

func TestSQLiteUpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	seedProducts(t, s)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []core.Product{{Code: "A", Description: "alpha v2", Price: 9, Stock: 7}}))
	p, err := s.Get(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "alpha v2", p.Description)
	assert.Equal(t, 7, p.Stock)
}

func TestSQLiteOrderRoundTrip(t *testing.T) {
	s := newTestStore(t)
	orders := s.Orders()
	ctx := context.Background()

	order := core.NewOrderFromSnapshot(core.CartSnapshot{
		UserID: "u1",
		Lines: []core.CartLine{
			{Code: "A", Description: "alpha widget", UnitPrice: 2.5, Quantity: 2},
		},
	})
	require.NoError(t, orders.Create(ctx, order))

	got, err := orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, got.Total)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 5.0, got.Lines[0].Subtotal)

	list, err := orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = orders.Get(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteAdmins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.GrantAdmin(ctx, "u1"))
	require.NoError(t, s.GrantAdmin(ctx, "u1"))
	ok, err = s.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}
