package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdonayRH/wahisper-sub000/cart"
	"github.com/AdonayRH/wahisper-sub000/checkout"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/ingest"
	"github.com/AdonayRH/wahisper-sub000/internal/testutil"
	"github.com/AdonayRH/wahisper-sub000/inventory"
	"github.com/AdonayRH/wahisper-sub000/messenger"
	"github.com/AdonayRH/wahisper-sub000/store"
)

type fixture struct {
	flow      *Flow
	carts     *cart.InMemoryStore
	inventory *inventory.InMemoryGateway
	orders    *store.InMemoryOrders
	msgr      *messenger.Recording
}

func newFixture(t *testing.T, products ...core.Product) *fixture {
	t.Helper()
	inv := inventory.NewInMemoryGateway()
	require.NoError(t, inv.Upsert(context.Background(), products))
	carts := cart.NewInMemoryStore()
	orders := store.NewInMemoryOrders()
	msgr := messenger.NewRecording()
	f := New(Deps{
		Carts:     carts,
		Inventory: inv,
		Checkout:  checkout.New(carts, inv, orders),
		Messenger: msgr,
		Parser:    ingest.NewCSVParser(),
	})
	return &fixture{flow: f, carts: carts, inventory: inv, orders: orders, msgr: msgr}
}

func seedProducts() []core.Product {
	return []core.Product{
		testutil.Product("NB-01", "Notebook ruled A5", 3.50, 3),
		testutil.Product("PEN-01", "Gel pen black", 1.20, 10),
	}
}

func session(state core.State) *core.SessionContext {
	return testutil.NewSessionBuilder("u1").State(state).Build()
}

func TestTransitionTableCoversAllTextStates(t *testing.T) {
	fx := newFixture(t)
	// Only the two states whose free text routes straight to the
	// classifier may lack a handler.
	classifierOnly := map[core.State]bool{
		core.StateInitial:           true,
		core.StateCheckoutCompleted: true,
	}
	for _, s := range core.States() {
		if classifierOnly[s] {
			assert.False(t, fx.flow.HasHandler(s), "state %s should have no handler", s)
			continue
		}
		assert.True(t, fx.flow.HasHandler(s), "state %s is missing a handler", s)
	}
}

func TestQuantityAboveStockReprompts(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	replies, err := fx.flow.SearchProducts(context.Background(), sc, "notebook")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, core.StateShowingProducts, sc.CurrentState())

	_, err = fx.flow.HandleText(context.Background(), sc, "1")
	require.NoError(t, err)
	require.Equal(t, core.StateAskingQuantity, sc.CurrentState())

	replies, err = fx.flow.HandleText(context.Background(), sc, "5")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Only 3 units")
	assert.Equal(t, core.StateAskingQuantity, sc.CurrentState(), "shortfall must not advance the state")

	replies, err = fx.flow.HandleText(context.Background(), sc, "2")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Add 2 x Notebook")
	assert.Equal(t, core.StateAskingConfirmation, sc.CurrentState())
}

func TestQuantityAccountsForUnitsAlreadyInCart(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 2))

	_, err := fx.flow.SearchProducts(context.Background(), sc, "notebook")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "1")
	require.NoError(t, err)

	replies, err := fx.flow.HandleText(context.Background(), sc, "2")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Only 1 unit")
	assert.Equal(t, core.StateAskingQuantity, sc.CurrentState())
}

func TestConfirmationAddsAndAsksForMore(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	_, err := fx.flow.SearchProducts(context.Background(), sc, "pen")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "1")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "4")
	require.NoError(t, err)

	replies, err := fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Added 4 x Gel pen")
	assert.Equal(t, core.StateAskingForMore, sc.CurrentState())

	snap := fx.carts.Snapshot("u1")
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 4, snap.Lines[0].Quantity)
}

func TestConfirmationNoDiscardsSelection(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := testutil.NewSessionBuilder("u1").
		State(core.StateAskingConfirmation).
		Shown(core.ProductRef{Code: "PEN-01", Description: "Gel pen black", Price: 1.20}).
		Selected(1).
		Quantity(2).
		Build()

	_, err := fx.flow.HandleText(context.Background(), sc, "no")
	require.NoError(t, err)
	assert.Equal(t, core.StateInitial, sc.CurrentState())
	assert.True(t, fx.carts.Snapshot("u1").Empty())
}

func TestPartialRemovalKeepsRemainder(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 3))

	replies, err := fx.flow.BeginRemoval(sc, "notebook")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "How many should I remove")
	require.Equal(t, core.StateAskingRemoveQuantity, sc.CurrentState())

	replies, err = fx.flow.HandleText(context.Background(), sc, "2")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Remove 2 of your 3")
	require.Equal(t, core.StateConfirmingRemoveItem, sc.CurrentState())

	_, err = fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)
	assert.Equal(t, core.StateInitial, sc.CurrentState())

	snap := fx.carts.Snapshot("u1")
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 1, snap.Lines[0].Quantity)
}

func TestRemoveAllOfLineDropsIt(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 3))

	_, err := fx.flow.BeginRemoval(sc, "notebook")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "all")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)

	assert.True(t, fx.carts.Snapshot("u1").Empty())
}

func TestRemoveQuantityClampsToCart(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 3))

	_, err := fx.flow.BeginRemoval(sc, "notebook")
	require.NoError(t, err)
	replies, err := fx.flow.HandleText(context.Background(), sc, "10")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Remove all 3")
}

func TestQuantityForSoldOutProductReturnsToInitial(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 3))

	// The cart already holds the full stock, so mid-dialogue the product
	// is effectively sold out.
	sc := testutil.NewSessionBuilder("u1").
		State(core.StateAskingQuantity).
		Query("notebook").
		Shown(core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}).
		Selected(1).
		Build()

	replies, err := fx.flow.HandleText(context.Background(), sc, "1")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "sold out")
	assert.Equal(t, core.StateInitial, sc.CurrentState())
	assert.Zero(t, sc.Snapshot().SelectedProductIndex)
}

func TestMissingContextReportsInconsistency(t *testing.T) {
	fx := newFixture(t, seedProducts()...)

	for _, tc := range []struct {
		state   core.State
		missing string
	}{
		{core.StateShowingProducts, "LastShownProducts"},
		{core.StateAskingQuantity, "SelectedProductIndex"},
		{core.StateAskingAddQuantity, "PendingAddition"},
		{core.StateAskingRemoveQuantity, "PendingRemoval"},
		{core.StateConfirmingInventory, "StagedProducts"},
	} {
		sc := session(tc.state)
		_, err := fx.flow.HandleText(context.Background(), sc, "2")
		var inconsistency *core.InternalInconsistencyError
		require.ErrorAs(t, err, &inconsistency, "state %s", tc.state)
		assert.Equal(t, tc.missing, inconsistency.Missing)
	}
}

func TestUnmatchedTextFallsThroughToClassifier(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	_, err := fx.flow.SearchProducts(context.Background(), sc, "pen")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "actually show me staplers")
	assert.ErrorIs(t, err, core.ErrUnhandled)
}

func TestAskingForMoreFarewellEnds(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateAskingForMore)

	replies, err := fx.flow.HandleText(context.Background(), sc, "no")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Thanks")
	assert.Equal(t, core.StateEnding, sc.CurrentState())

	// Any later message restarts from scratch.
	_, err = fx.flow.HandleText(context.Background(), sc, "hola")
	assert.ErrorIs(t, err, core.ErrUnhandled)
	assert.Equal(t, core.StateInitial, sc.CurrentState())
}

func TestAddUnitsFlow(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "PEN-01", Description: "Gel pen black", Price: 1.20}, 2))

	_, err := fx.flow.BeginAddUnits(sc, "pen")
	require.NoError(t, err)
	require.Equal(t, core.StateAskingAddQuantity, sc.CurrentState())

	replies, err := fx.flow.HandleText(context.Background(), sc, "3")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Added 3 more units")
	assert.Equal(t, 5, fx.carts.Snapshot("u1").Lines[0].Quantity)
}

func TestAddUnitsRespectsStock(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 2))

	_, err := fx.flow.BeginAddUnits(sc, "notebook")
	require.NoError(t, err)

	replies, err := fx.flow.HandleText(context.Background(), sc, "5")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Only 1 more unit")
	assert.Equal(t, 2, fx.carts.Snapshot("u1").Lines[0].Quantity)
}

func TestClearCartNeedsConfirmation(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "PEN-01", Description: "Gel pen black", Price: 1.20}, 2))

	_, err := fx.flow.BeginClearCart(sc)
	require.NoError(t, err)
	require.Equal(t, core.StateConfirmingRemoveAll, sc.CurrentState())

	_, err = fx.flow.HandleText(context.Background(), sc, "no")
	require.NoError(t, err)
	assert.False(t, fx.carts.Snapshot("u1").Empty())

	_, err = fx.flow.BeginClearCart(sc)
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)
	assert.True(t, fx.carts.Snapshot("u1").Empty())
}

func TestCheckoutHappyPath(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 2))

	_, err := fx.flow.BeginCheckout(sc)
	require.NoError(t, err)
	require.Equal(t, core.StateConfirmingCheckout, sc.CurrentState())

	replies, err := fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "confirmed")
	assert.Equal(t, core.StateCheckoutCompleted, sc.CurrentState())
	assert.True(t, fx.carts.Snapshot("u1").Empty())
	assert.Equal(t, 1, fx.orders.Len())

	av, err := fx.inventory.Availability(context.Background(), "NB-01")
	require.NoError(t, err)
	assert.Equal(t, 1, av.Stock)
}

func TestCheckoutStockShortfallKeepsCart(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	require.NoError(t, fx.carts.Add("u1", core.ProductRef{Code: "NB-01", Description: "Notebook ruled A5", Price: 3.50}, 2))

	_, err := fx.flow.BeginCheckout(sc)
	require.NoError(t, err)

	// Stock drains between the prompt and the confirmation.
	ok, err := fx.inventory.Decrement(context.Background(), "NB-01", 3)
	require.NoError(t, err)
	require.True(t, ok)

	replies, err := fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "no longer available")
	assert.Equal(t, core.StateInitial, sc.CurrentState())
	assert.False(t, fx.carts.Snapshot("u1").Empty(), "cart survives a rejected checkout")
	assert.Equal(t, 0, fx.orders.Len())
}

func TestUploadFlowStagesThenApplies(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	fx.msgr.AddFile("file-1", []byte("code,description,price,stock\nMUG-01,Coffee mug,4.99,12\n"))

	_, err := fx.flow.BeginUpload(sc)
	require.NoError(t, err)
	require.Equal(t, core.StateWaitingForFile, sc.CurrentState())

	replies, err := fx.flow.HandleFile(context.Background(), sc, "file-1")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Parsed 1 products")
	require.Equal(t, core.StateConfirmingInventory, sc.CurrentState())

	replies, err = fx.flow.HandleText(context.Background(), sc, "yes")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "Inventory updated")
	assert.Equal(t, core.StateInitial, sc.CurrentState())

	got, err := fx.inventory.Get(context.Background(), "MUG-01")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Stock)
}

func TestUploadRejectsFileOutsideFlow(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	replies, err := fx.flow.HandleFile(context.Background(), sc, "file-1")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "not expecting a file")
	assert.Equal(t, core.StateInitial, sc.CurrentState())
}

func TestUploadBadFileReprompts(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)
	fx.msgr.AddFile("file-bad", []byte("code,description,price,stock\nMUG-01,Coffee mug,4.99,not-a-number\n"))

	_, err := fx.flow.BeginUpload(sc)
	require.NoError(t, err)
	replies, err := fx.flow.HandleFile(context.Background(), sc, "file-bad")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "did not parse")
	assert.Equal(t, core.StateWaitingForFile, sc.CurrentState())
}

func TestCancelResetsEverything(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	_, err := fx.flow.SearchProducts(context.Background(), sc, "pen")
	require.NoError(t, err)
	_, err = fx.flow.HandleText(context.Background(), sc, "1")
	require.NoError(t, err)

	_, err = fx.flow.Cancel(sc)
	require.NoError(t, err)
	snap := sc.Snapshot()
	assert.Equal(t, core.StateInitial, snap.State)
	assert.Empty(t, snap.LastShownProducts)
	assert.Zero(t, snap.SelectedProductIndex)
}

func TestSearchWithNoResultsStaysInitial(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	replies, err := fx.flow.SearchProducts(context.Background(), sc, "zzz-not-a-product")
	require.NoError(t, err)
	assert.True(t, strings.Contains(replies[0].Text, "No products matched"))
	assert.Equal(t, core.StateInitial, sc.CurrentState())
}

func TestAvailabilityErrorSurfacesAsTimeout(t *testing.T) {
	fx := newFixture(t, seedProducts()...)
	sc := session(core.StateInitial)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fx.flow.SearchProducts(canceled, sc, "pen")
	var timeout *core.UpstreamTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "inventory", timeout.Collaborator)
}
