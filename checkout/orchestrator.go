// Package checkout implements the order-placement sequence: verify live
// stock for every cart line, reserve it through conditional atomic
// decrements, then commit the order record and clear the cart. Failure
// during Verify or Reserve leaves inventory exactly as it was; failure
// during Commit is surfaced as a technical error with the reservation
// kept, logged in enough detail for manual reconciliation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/logging"
)

var (
	// ErrEmptyCart is returned when checkout is invoked on a cart with no
	// lines. No order is created.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCommitFailed is returned when the order record could not be
	// persisted after stock was already reserved. The reservation is NOT
	// rolled back; stock may be under-reported until reconciled.
	ErrCommitFailed = errors.New("order commit failed after reservation")
)

// Options configure the Orchestrator.
type Options struct {
	// InventoryTimeout bounds each call that crosses into the catalog.
	InventoryTimeout time.Duration
	Logger           logging.Logger
}

// Orchestrator sequences the three checkout phases as one logical
// operation per invocation. It holds no per-order state; the caller is
// responsible for serializing concurrent checkouts of the same session.
type Orchestrator struct {
	carts     core.CartStore
	inventory core.InventoryGateway
	orders    core.OrderStore
	opts      Options
}

// New creates an Orchestrator over the given stores.
func New(carts core.CartStore, inventory core.InventoryGateway, orders core.OrderStore, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		InventoryTimeout: 5 * time.Second,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Orchestrator{carts: carts, inventory: inventory, orders: orders, opts: opts}
}

// PlaceOrder runs Verify, Reserve and Commit for the user's cart.
//
// Outcomes:
//   - (order, nil): order persisted, stock decremented, cart cleared
//   - ErrEmptyCart: nothing happened
//   - *core.CheckoutStockError: some line short on stock; inventory levels
//     equal the pre-checkout levels and the cart is untouched
//   - *core.UpstreamTimeoutError: catalog unreachable; any decrements
//     applied in this pass were rolled back
//   - ErrCommitFailed: stock reserved but the order record was not
//     persisted; reservation preserved as-is (see package doc)
func (o *Orchestrator) PlaceOrder(ctx context.Context, userID string) (core.Order, error) {
	snap := o.carts.Snapshot(userID)
	if snap.Empty() {
		return core.Order{}, ErrEmptyCart
	}

	if err := o.verify(ctx, snap); err != nil {
		return core.Order{}, err
	}
	if err := o.reserve(ctx, snap); err != nil {
		return core.Order{}, err
	}
	return o.commit(ctx, userID, snap)
}

// verify re-reads stock for every line. All shortages are collected so the
// user sees the complete list, not just the first.
func (o *Orchestrator) verify(ctx context.Context, snap core.CartSnapshot) error {
	var short []core.InsufficientLine
	for _, line := range snap.Lines {
		av, err := o.availability(ctx, line.Code)
		if err != nil {
			return err
		}
		if line.Quantity > av.Stock {
			short = append(short, core.InsufficientLine{
				Code:        line.Code,
				Description: line.Description,
				Requested:   line.Quantity,
				Available:   av.Stock,
			})
		}
	}
	if len(short) > 0 {
		return &core.CheckoutStockError{Lines: short}
	}
	return nil
}

// reserve performs the conditional decrements. Losing the race on any line
// rolls back every decrement already applied in this pass, restoring
// pre-checkout stock levels.
func (o *Orchestrator) reserve(ctx context.Context, snap core.CartSnapshot) error {
	done := make([]core.CartLine, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		ok, err := o.decrement(ctx, line.Code, line.Quantity)
		if err != nil {
			o.rollback(done)
			return err
		}
		if !ok {
			o.rollback(done)
			av, averr := o.availability(ctx, line.Code)
			if averr != nil {
				av = core.Availability{}
			}
			return &core.CheckoutStockError{Lines: []core.InsufficientLine{{
				Code:        line.Code,
				Description: line.Description,
				Requested:   line.Quantity,
				Available:   av.Stock,
			}}}
		}
		done = append(done, line)
	}
	return nil
}

// checkoutLogger is implemented by loggers that record checkout outcomes
// with latency, such as logging.BotLogger.
type checkoutLogger interface {
	LogCheckout(orderID string, lines int, total float64, dur time.Duration, err error)
}

var _ checkoutLogger = (*logging.BotLogger)(nil)

// commit freezes the snapshot into an order and clears the cart. The cart
// is cleared only after the order record persisted.
func (o *Orchestrator) commit(ctx context.Context, userID string, snap core.CartSnapshot) (core.Order, error) {
	order := core.NewOrderFromSnapshot(snap)
	start := time.Now()
	if err := o.orders.Create(ctx, order); err != nil {
		// Stock is already decremented. Log every line so the levels can
		// be reconciled manually.
		for _, l := range order.Lines {
			o.opts.Logger.Error("unreconciled reservation after commit failure",
				"order_id", order.ID, "user_id", userID,
				"code", l.Code, "quantity", l.Quantity, "error", err)
		}
		o.logOutcome(order, userID, time.Since(start), err)
		return core.Order{}, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}
	o.carts.Clear(userID)
	o.logOutcome(order, userID, time.Since(start), nil)
	return order, nil
}

// logOutcome records the checkout result, preferring the latency-aware
// helper when the configured logger provides one.
func (o *Orchestrator) logOutcome(order core.Order, userID string, dur time.Duration, err error) {
	if cl, ok := o.opts.Logger.(checkoutLogger); ok {
		cl.LogCheckout(order.ID, len(order.Lines), order.Total, dur, err)
		return
	}
	if err != nil {
		return
	}
	o.opts.Logger.Info("order placed",
		"order_id", order.ID, "user_id", userID,
		"lines", len(order.Lines), "total", order.Total,
		"duration", dur)
}

// rollback re-increments lines decremented earlier in a failed pass.
// Increment errors are logged, not returned: the caller is already on an
// error path and partial rollback detail matters more than masking it.
func (o *Orchestrator) rollback(done []core.CartLine) {
	for _, line := range done {
		rctx, cancel := context.WithTimeout(context.Background(), o.opts.InventoryTimeout)
		if err := o.inventory.Increment(rctx, line.Code, line.Quantity); err != nil {
			o.opts.Logger.Error("rollback increment failed",
				"code", line.Code, "quantity", line.Quantity, "error", err)
		}
		cancel()
	}
}

func (o *Orchestrator) availability(ctx context.Context, code string) (core.Availability, error) {
	tctx, cancel := context.WithTimeout(ctx, o.opts.InventoryTimeout)
	defer cancel()
	av, err := o.inventory.Availability(tctx, code)
	if err != nil {
		return core.Availability{}, o.wrapUpstream(err)
	}
	return av, nil
}

func (o *Orchestrator) decrement(ctx context.Context, code string, n int) (bool, error) {
	tctx, cancel := context.WithTimeout(ctx, o.opts.InventoryTimeout)
	defer cancel()
	ok, err := o.inventory.Decrement(tctx, code, n)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Catalog row vanished between verify and reserve; treat as
			// zero stock rather than a technical failure.
			return false, nil
		}
		return false, o.wrapUpstream(err)
	}
	return ok, nil
}

func (o *Orchestrator) wrapUpstream(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &core.UpstreamTimeoutError{Collaborator: "inventory", Err: err}
	}
	return err
}
