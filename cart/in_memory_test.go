package cart

import (
	"errors"
	"sync"
	"testing"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ core.CartStore = (*InMemoryStore)(nil)

func refA() core.ProductRef {
	return core.ProductRef{Code: "A", Description: "alpha widget", Price: 2.5}
}

func TestAddMergesSameCode(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Add("u1", refA(), 2))
	require.NoError(t, s.Add("u1", refA(), 3))

	snap := s.Snapshot("u1")
	require.Len(t, snap.Lines, 1, "duplicate lines for one product code")
	assert.Equal(t, 5, snap.Lines[0].Quantity)
	assert.Equal(t, 12.5, snap.Total())
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Add("u1", refA(), 0)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, s.Snapshot("u1").Empty())
}

func TestAddClampsNegativePrice(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Add("u1", core.ProductRef{Code: "B", Price: -3}, 1))
	assert.Equal(t, 0.0, s.Snapshot("u1").Lines[0].UnitPrice)
}

func TestRemove(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Add("u1", refA(), 1))
	require.NoError(t, s.Add("u1", core.ProductRef{Code: "B"}, 1))

	require.NoError(t, s.Remove("u1", 0))
	snap := s.Snapshot("u1")
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "B", snap.Lines[0].Code)

	err := s.Remove("u1", 5)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(s.Remove("nobody", 0), core.ErrNotFound))
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Add("u1", refA(), 4))

	require.NoError(t, s.SetQuantity("u1", 0, 2))
	assert.Equal(t, 2, s.Snapshot("u1").Lines[0].Quantity)

	require.NoError(t, s.SetQuantity("u1", 0, 0))
	assert.True(t, s.Snapshot("u1").Empty())

	// Every stored quantity is >= 1 after any mutation.
	require.NoError(t, s.Add("u1", refA(), 1))
	require.NoError(t, s.SetQuantity("u1", 0, -3))
	assert.True(t, s.Snapshot("u1").Empty())
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewInMemoryStore()
	s.Clear("u1")
	require.NoError(t, s.Add("u1", refA(), 2))
	s.Clear("u1")
	s.Clear("u1")
	assert.True(t, s.Snapshot("u1").Empty())
}

func TestSnapshotDoesNotAliasLiveLines(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Add("u1", refA(), 2))
	snap := s.Snapshot("u1")
	snap.Lines[0].Quantity = 99
	assert.Equal(t, 2, s.Snapshot("u1").Lines[0].Quantity)
}

func TestConcurrentAddsAccumulate(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add("u1", refA(), 1)
		}()
	}
	wg.Wait()
	snap := s.Snapshot("u1")
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 50, snap.Lines[0].Quantity)
}
