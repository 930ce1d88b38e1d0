package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AdonayRH/wahisper-sub000/cart"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/inventory"
	"github.com/AdonayRH/wahisper-sub000/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookGateway wraps a real gateway and lets a test override single calls.
type hookGateway struct {
	core.InventoryGateway
	decrementHook    func(code string, n int) (bool, error, bool)
	availabilityHook func(code string) (core.Availability, error, bool)
}

func (g *hookGateway) Decrement(ctx context.Context, code string, n int) (bool, error) {
	if g.decrementHook != nil {
		if ok, err, handled := g.decrementHook(code, n); handled {
			return ok, err
		}
	}
	return g.InventoryGateway.Decrement(ctx, code, n)
}

func (g *hookGateway) Availability(ctx context.Context, code string) (core.Availability, error) {
	if g.availabilityHook != nil {
		if av, err, handled := g.availabilityHook(code); handled {
			return av, err
		}
	}
	return g.InventoryGateway.Availability(ctx, code)
}

// failingOrders rejects every insert.
type failingOrders struct{ store.InMemoryOrders }

func (f *failingOrders) Create(ctx context.Context, order core.Order) error {
	return errors.New("document store down")
}

type fixture struct {
	carts     *cart.InMemoryStore
	inventory *inventory.InMemoryGateway
	orders    *store.InMemoryOrders
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		carts:     cart.NewInMemoryStore(),
		inventory: inventory.NewInMemoryGateway(),
		orders:    store.NewInMemoryOrders(),
	}
	require.NoError(t, f.inventory.Upsert(context.Background(), []core.Product{
		{Code: "A", Description: "alpha widget", Price: 2.5, Stock: 3},
		{Code: "B", Description: "beta gadget", Price: 1, Stock: 5},
	}))
	return f
}

func (f fixture) stock(t *testing.T, code string) int {
	t.Helper()
	av, err := f.inventory.Availability(context.Background(), code)
	require.NoError(t, err)
	return av.Stock
}

func TestEmptyCartPlacesNoOrder(t *testing.T) {
	f := newFixture(t)
	o := New(f.carts, f.inventory, f.orders)

	_, err := o.PlaceOrder(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.orders.Len())
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "A", Description: "alpha widget", Price: 2.5}, 2))
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "B", Description: "beta gadget", Price: 1}, 5))
	o := New(f.carts, f.inventory, f.orders)

	order, err := o.PlaceOrder(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 10.0, order.Total)

	assert.Equal(t, 1, f.stock(t, "A"))
	assert.Equal(t, 0, f.stock(t, "B"))
	assert.True(t, f.carts.Snapshot("u1").Empty(), "cart cleared after commit")

	stored, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Lines, 2)
}

func TestVerifyReportsAllShortLines(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "A"}, 5))
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "B"}, 9))
	o := New(f.carts, f.inventory, f.orders)

	_, err := o.PlaceOrder(context.Background(), "u1")
	var stockErr *core.CheckoutStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Lines, 2, "every short line reported, not just the first")
	assert.Equal(t, 3, stockErr.Lines[0].Available)
	assert.Equal(t, 5, stockErr.Lines[1].Available)

	// No partial decrement occurred.
	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 5, f.stock(t, "B"))
	assert.Len(t, f.carts.Snapshot("u1").Lines, 2)
}

func TestReserveRaceRollsBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "A"}, 2))
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "B"}, 2))

	// Verify sees plenty of B, but the decrement loses the race.
	gw := &hookGateway{InventoryGateway: f.inventory}
	gw.decrementHook = func(code string, n int) (bool, error, bool) {
		if code == "B" {
			return false, nil, true
		}
		return false, nil, false
	}
	o := New(f.carts, gw, f.orders)

	_, err := o.PlaceOrder(context.Background(), "u1")
	var stockErr *core.CheckoutStockError
	require.ErrorAs(t, err, &stockErr)

	// Rollback property: post-condition stock equals pre-checkout stock
	// and the cart is untouched.
	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 5, f.stock(t, "B"))
	assert.Len(t, f.carts.Snapshot("u1").Lines, 2)
	assert.Zero(t, f.orders.Len())
}

func TestConcurrentCheckoutLastUnit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.inventory.Upsert(context.Background(), []core.Product{
		{Code: "LAST", Description: "last one", Price: 10, Stock: 1},
	}))
	require.NoError(t, f.carts.Add("s1", core.ProductRef{Code: "LAST", Price: 10}, 1))
	require.NoError(t, f.carts.Add("s2", core.ProductRef{Code: "LAST", Price: 10}, 1))
	o := New(f.carts, f.inventory, f.orders)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []string{"s1", "s2"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			_, errs[i] = o.PlaceOrder(context.Background(), user)
		}(i, user)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		var stockErr *core.CheckoutStockError
		switch {
		case err == nil:
			won++
		case errors.As(err, &stockErr):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one order for the last unit")
	assert.Equal(t, 1, lost)
	assert.Equal(t, 1, f.orders.Len())
	assert.Equal(t, 0, f.stock(t, "LAST"))
}

func TestCommitFailureKeepsReservation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "A"}, 2))
	o := New(f.carts, f.inventory, &failingOrders{})

	_, err := o.PlaceOrder(context.Background(), "u1")
	require.ErrorIs(t, err, ErrCommitFailed)

	// The documented limitation: stock stays decremented, cart stays full.
	assert.Equal(t, 1, f.stock(t, "A"))
	assert.Len(t, f.carts.Snapshot("u1").Lines, 1)
}

func TestInventoryTimeoutAbortsAndRollsBack(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "A"}, 1))
	require.NoError(t, f.carts.Add("u1", core.ProductRef{Code: "B"}, 1))

	gw := &hookGateway{InventoryGateway: f.inventory}
	gw.decrementHook = func(code string, n int) (bool, error, bool) {
		if code == "B" {
			return false, context.DeadlineExceeded, true
		}
		return false, nil, false
	}
	o := New(f.carts, gw, f.orders)

	_, err := o.PlaceOrder(context.Background(), "u1")
	var timeoutErr *core.UpstreamTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "inventory", timeoutErr.Collaborator)
	assert.Equal(t, 3, f.stock(t, "A"), "decrement before the timeout rolled back")
}
