// Package flow implements the state transition engine: for each
// conversation state it defines the accepted inputs, the mutation
// performed and the next state. Handlers are pure functions of
// (state, input, context) wired into an explicit transition table so
// coverage can be asserted cell by cell.
//
// A handler that has no rule for its input returns core.ErrUnhandled; the
// dispatch router then falls through to the intent classifier. A handler
// that requires context the session does not carry never guesses: it
// returns *core.InternalInconsistencyError and the router resets the
// session.
package flow

import (
	"context"
	"errors"
	"time"

	"github.com/AdonayRH/wahisper-sub000/checkout"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/logging"
)

// Handler is one cell of the transition table.
type Handler func(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error)

// Deps are the collaborators the handlers mutate.
type Deps struct {
	Carts     core.CartStore
	Inventory core.InventoryGateway
	Checkout  *checkout.Orchestrator
	Messenger core.Messenger
	Parser    core.FileParser
	Logger    logging.Logger

	// InventoryTimeout bounds each availability read performed by the
	// stock-aware mutation protocol.
	InventoryTimeout time.Duration
	// SearchLimit caps how many products a search presents.
	SearchLimit int
}

// Flow holds the transition table over its dependencies.
type Flow struct {
	deps  Deps
	table map[core.State]Handler
}

// New builds the flow with the full transition table.
func New(deps Deps) *Flow {
	if deps.Logger == nil {
		deps.Logger = logging.NoOpLogger{}
	}
	if deps.InventoryTimeout <= 0 {
		deps.InventoryTimeout = 5 * time.Second
	}
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = 5
	}
	f := &Flow{deps: deps}
	f.table = map[core.State]Handler{
		core.StateShowingProducts:      f.onShowingProducts,
		core.StateAskingQuantity:       f.onAskingQuantity,
		core.StateAskingConfirmation:   f.onAskingConfirmation,
		core.StateAskingForMore:        f.onAskingForMore,
		core.StateAddingUnits:          f.onAddingUnits,
		core.StateAskingAddQuantity:    f.onAskingAddQuantity,
		core.StateRemovingItem:         f.onRemovingItem,
		core.StateAskingRemoveQuantity: f.onAskingRemoveQuantity,
		core.StateConfirmingRemoveItem: f.onConfirmingRemoveItem,
		core.StateConfirmingRemoveAll:  f.onConfirmingRemoveAll,
		core.StateConfirmingCheckout:   f.onConfirmingCheckout,
		core.StateWaitingForFile:       f.onWaitingForFile,
		core.StateConfirmingInventory:  f.onConfirmingInventory,
		core.StateEnding:               f.onEnding,
		// StateInitial, StateCheckoutCompleted: no text handler; free text
		// routes straight to the intent classifier.
	}
	return f
}

// HandleText runs the current state's text handler. core.ErrUnhandled is
// returned when the state has no handler or the handler has no rule for
// the input.
func (f *Flow) HandleText(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	h, ok := f.table[sc.CurrentState()]
	if !ok {
		return nil, core.ErrUnhandled
	}
	return h(ctx, sc, text)
}

// HasHandler reports whether the state owns a text handler. Used by the
// transition-table exhaustiveness test.
func (f *Flow) HasHandler(s core.State) bool {
	_, ok := f.table[s]
	return ok
}

// availability reads live stock with the configured bound, normalizing
// cancellation into the timeout taxonomy.
func (f *Flow) availability(ctx context.Context, code string) (core.Availability, error) {
	tctx, cancel := context.WithTimeout(ctx, f.deps.InventoryTimeout)
	defer cancel()
	av, err := f.deps.Inventory.Availability(tctx, code)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return core.Availability{}, &core.UpstreamTimeoutError{Collaborator: "inventory", Err: err}
		}
		return core.Availability{}, err
	}
	return av, nil
}

// inCartQuantity returns the quantity of code already in the user's cart.
func (f *Flow) inCartQuantity(userID, code string) int {
	for _, l := range f.deps.Carts.Snapshot(userID).Lines {
		if l.Code == code {
			return l.Quantity
		}
	}
	return 0
}

// addWithStockCheck runs the stock-aware mutation protocol for every
// cart-quantity-increasing path: read live stock, compute the desired
// total (in cart + delta), reject with the maximum still obtainable when
// it exceeds stock, and only then mutate the cart. The check is advisory;
// checkout re-verifies authoritatively.
func (f *Flow) addWithStockCheck(ctx context.Context, userID string, ref core.ProductRef, delta int) error {
	av, err := f.availability(ctx, ref.Code)
	if err != nil {
		return err
	}
	inCart := f.inCartQuantity(userID, ref.Code)
	if inCart+delta > av.Stock {
		return &core.InsufficientStockError{
			Code:      ref.Code,
			Requested: inCart + delta,
			Available: maxInt(av.Stock-inCart, 0),
		}
	}
	return f.deps.Carts.Add(userID, ref, delta)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
