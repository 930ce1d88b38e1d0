package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AdonayRH/wahisper-sub000/checkout"
	"github.com/AdonayRH/wahisper-sub000/core"
)

// onShowingProducts resolves the user's pick against the last shown list.
// Anything that resolves to no product falls through to the classifier,
// most often as a fresh search.
func (f *Flow) onShowingProducts(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	if len(snap.LastShownProducts) == 0 {
		return nil, &core.InternalInconsistencyError{State: snap.State, Missing: "LastShownProducts"}
	}
	idx, ambiguous := resolveShown(snap.LastShownProducts, text)
	if ambiguous {
		return reply("Several products match %q. Reply with the number instead.", strings.TrimSpace(text)), nil
	}
	if idx < 0 {
		return nil, core.ErrUnhandled
	}
	picked := snap.LastShownProducts[idx]
	sc.Do(func(c *core.SessionContext) {
		c.SelectedProductIndex = idx + 1
		c.State = core.StateAskingQuantity
	})
	return reply("How many units of %s?", picked.Description), nil
}

// onAskingQuantity validates the requested quantity against live stock
// minus what the cart already holds, re-prompting with the corrected
// maximum on a shortfall.
func (f *Flow) onAskingQuantity(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	ref, ok := sc.SelectedProduct()
	if !ok {
		return nil, &core.InternalInconsistencyError{State: sc.CurrentState(), Missing: "SelectedProductIndex"}
	}
	if isNegative(text) {
		sc.Do(func(c *core.SessionContext) {
			c.SelectedProductIndex = 0
			c.SelectedQuantity = 0
			c.State = core.StateInitial
		})
		return reply("Okay, nothing added. What else can I find for you?"), nil
	}
	n, numeric := parseQuantity(text)
	if !numeric {
		return reply("Please send the quantity as a number, e.g. 2."), nil
	}
	if n < 1 {
		return reply("The quantity has to be at least 1. How many units?"), nil
	}
	av, err := f.availability(ctx, ref.Code)
	if err != nil {
		return nil, err
	}
	obtainable := maxInt(av.Stock-f.inCartQuantity(sc.UserID, ref.Code), 0)
	if n > obtainable {
		if obtainable == 0 {
			sc.Do(func(c *core.SessionContext) {
				c.SelectedProductIndex = 0
				c.SelectedQuantity = 0
				c.State = core.StateInitial
			})
			return reply("Sorry, %s is sold out right now.", ref.Description), nil
		}
		return reply("Only %d units of %s are available. How many would you like?", obtainable, ref.Description), nil
	}
	sc.Do(func(c *core.SessionContext) {
		c.SelectedQuantity = n
		c.State = core.StateAskingConfirmation
	})
	return reply("Add %d x %s for %s? (yes/no)", n, ref.Description, core.FormatPrice(float64(n)*ref.Price)), nil
}

// onAskingConfirmation applies the staged addition. Stock is re-checked at
// mutation time; a shortfall that appeared since the prompt drops back to
// quantity with the corrected maximum.
func (f *Flow) onAskingConfirmation(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	ref, ok := sc.SelectedProduct()
	if !ok || snap.SelectedQuantity < 1 {
		return nil, &core.InternalInconsistencyError{State: snap.State, Missing: "SelectedQuantity"}
	}
	switch {
	case isAffirmative(text):
		err := f.addWithStockCheck(ctx, sc.UserID, ref, snap.SelectedQuantity)
		var short *core.InsufficientStockError
		if errors.As(err, &short) {
			sc.SetState(core.StateAskingQuantity)
			return reply("Stock changed: only %d units of %s left. How many would you like?", short.Available, ref.Description), nil
		}
		if err != nil {
			return nil, err
		}
		sc.Do(func(c *core.SessionContext) {
			c.SelectedProductIndex = 0
			c.SelectedQuantity = 0
			c.State = core.StateAskingForMore
		})
		return reply("Added %d x %s to your cart. Anything else?", snap.SelectedQuantity, ref.Description), nil
	case isNegative(text):
		sc.Do(func(c *core.SessionContext) {
			c.SelectedProductIndex = 0
			c.SelectedQuantity = 0
			c.State = core.StateInitial
		})
		return reply("Okay, nothing added. What else can I find for you?"), nil
	default:
		return nil, core.ErrUnhandled
	}
}

// onAskingForMore closes the add loop. A farewell ends the conversation;
// anything that is not a plain yes is treated as a fresh request and
// handed to the classifier from a clean slate.
func (f *Flow) onAskingForMore(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	switch {
	case isFarewell(text):
		sc.SetState(core.StateEnding)
		return reply("Thanks for shopping with us. See you next time!"), nil
	case isAffirmative(text):
		sc.SetState(core.StateInitial)
		return reply("Great, what are you looking for?"), nil
	default:
		sc.SetState(core.StateInitial)
		return nil, core.ErrUnhandled
	}
}

// onAddingUnits resolves which existing cart line the user wants to top
// up, then asks for the amount.
func (f *Flow) onAddingUnits(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	if isNegative(text) {
		sc.SetState(core.StateInitial)
		return reply("Okay, cart unchanged."), nil
	}
	lines := f.deps.Carts.Snapshot(sc.UserID).Lines
	if len(lines) == 0 {
		sc.SetState(core.StateInitial)
		return reply("Your cart is empty, so there is nothing to add units to."), nil
	}
	idx, ambiguous := resolveLine(lines, text)
	if ambiguous {
		return reply("Several cart lines match %q. Reply with the line number.", strings.TrimSpace(text)), nil
	}
	if idx < 0 {
		return reply("I could not find that in your cart.\n%s", renderCart(f.deps.Carts.Snapshot(sc.UserID))), nil
	}
	line := lines[idx]
	sc.Do(func(c *core.SessionContext) {
		c.PendingAddition = &core.PendingLine{Line: line, Index: idx}
		c.State = core.StateAskingAddQuantity
	})
	return reply("You have %d x %s. How many more units?", line.Quantity, line.Description), nil
}

// onAskingAddQuantity applies the staged top-up through the stock-aware
// mutation protocol.
func (f *Flow) onAskingAddQuantity(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	if snap.PendingAddition == nil {
		return nil, &core.InternalInconsistencyError{State: snap.State, Missing: "PendingAddition"}
	}
	line := snap.PendingAddition.Line
	if isNegative(text) {
		sc.Do(func(c *core.SessionContext) {
			c.PendingAddition = nil
			c.State = core.StateInitial
		})
		return reply("Okay, %s stays at %d units.", line.Description, line.Quantity), nil
	}
	n, numeric := parseQuantity(text)
	if !numeric {
		return reply("Please send the extra quantity as a number."), nil
	}
	if n < 1 {
		return reply("The quantity has to be at least 1. How many more units?"), nil
	}
	ref := core.ProductRef{Code: line.Code, Description: line.Description, Price: line.UnitPrice}
	err := f.addWithStockCheck(ctx, sc.UserID, ref, n)
	var short *core.InsufficientStockError
	if errors.As(err, &short) {
		if short.Available == 0 {
			sc.Do(func(c *core.SessionContext) {
				c.PendingAddition = nil
				c.State = core.StateInitial
			})
			return reply("No more units of %s are available.", line.Description), nil
		}
		return reply("Only %d more units of %s are available. How many?", short.Available, line.Description), nil
	}
	if err != nil {
		return nil, err
	}
	sc.Do(func(c *core.SessionContext) {
		c.PendingAddition = nil
		c.State = core.StateAskingForMore
	})
	return reply("Added %d more units of %s. Anything else?", n, line.Description), nil
}

// onRemovingItem resolves which cart line to drop and removes it whole.
// Partial removal goes through BeginRemoval with a known product instead.
func (f *Flow) onRemovingItem(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	if isNegative(text) {
		sc.SetState(core.StateInitial)
		return reply("Okay, cart unchanged."), nil
	}
	lines := f.deps.Carts.Snapshot(sc.UserID).Lines
	if len(lines) == 0 {
		sc.SetState(core.StateInitial)
		return reply("Your cart is already empty."), nil
	}
	idx, ambiguous := resolveLine(lines, text)
	if ambiguous {
		return reply("Several cart lines match %q. Reply with the line number.", strings.TrimSpace(text)), nil
	}
	if idx < 0 {
		return reply("I could not find that in your cart.\n%s", renderCart(f.deps.Carts.Snapshot(sc.UserID))), nil
	}
	removed := lines[idx]
	if err := f.deps.Carts.Remove(sc.UserID, idx); err != nil {
		return nil, err
	}
	sc.SetState(core.StateInitial)
	return reply("Removed %s.\n%s", removed.Description, renderCart(f.deps.Carts.Snapshot(sc.UserID))), nil
}

// onAskingRemoveQuantity stages how many units of the pending line to
// drop. Requests beyond what the cart holds are clamped to the whole line.
func (f *Flow) onAskingRemoveQuantity(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	if snap.PendingRemoval == nil {
		return nil, &core.InternalInconsistencyError{State: snap.State, Missing: "PendingRemoval"}
	}
	line := snap.PendingRemoval.Line
	if isNegative(text) {
		sc.Do(func(c *core.SessionContext) {
			c.PendingRemoval = nil
			c.State = core.StateInitial
		})
		return reply("Okay, %s stays in your cart.", line.Description), nil
	}
	n := 0
	switch t := normalize(text); t {
	case "all", "todo", "todos", "everything":
		n = line.Quantity
	default:
		parsed, numeric := parseQuantity(text)
		if !numeric {
			return reply("How many units of %s should I remove? (a number, or \"all\")", line.Description), nil
		}
		if parsed < 1 {
			return reply("The quantity has to be at least 1. How many should I remove?"), nil
		}
		n = parsed
		if n > line.Quantity {
			n = line.Quantity
		}
	}
	sc.Do(func(c *core.SessionContext) {
		c.PendingRemoval.Quantity = n
		c.State = core.StateConfirmingRemoveItem
	})
	if n == line.Quantity {
		return reply("Remove all %d x %s from your cart? (yes/no)", n, line.Description), nil
	}
	return reply("Remove %d of your %d x %s? (yes/no)", n, line.Quantity, line.Description), nil
}

// onConfirmingRemoveItem applies the staged removal. The line is located
// again by code at apply time so a cart that changed underneath does not
// drop the wrong line.
func (f *Flow) onConfirmingRemoveItem(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	if snap.PendingRemoval == nil || snap.PendingRemoval.Quantity < 1 {
		return nil, &core.InternalInconsistencyError{State: snap.State, Missing: "PendingRemoval"}
	}
	pending := *snap.PendingRemoval
	switch {
	case isAffirmative(text):
		sc.Do(func(c *core.SessionContext) {
			c.PendingRemoval = nil
			c.State = core.StateInitial
		})
		cart := f.deps.Carts.Snapshot(sc.UserID)
		idx := -1
		for i, l := range cart.Lines {
			if l.Code == pending.Line.Code {
				idx = i
				break
			}
		}
		if idx < 0 {
			return reply("%s is no longer in your cart.", pending.Line.Description), nil
		}
		remaining := cart.Lines[idx].Quantity - pending.Quantity
		if err := f.deps.Carts.SetQuantity(sc.UserID, idx, remaining); err != nil {
			return nil, err
		}
		return reply("Done.\n%s", renderCart(f.deps.Carts.Snapshot(sc.UserID))), nil
	case isNegative(text):
		sc.Do(func(c *core.SessionContext) {
			c.PendingRemoval = nil
			c.State = core.StateInitial
		})
		return reply("Okay, %s stays in your cart.", pending.Line.Description), nil
	default:
		return reply("Please answer yes or no: remove %d x %s?", pending.Quantity, pending.Line.Description), nil
	}
}

// onConfirmingRemoveAll empties the cart on a yes.
func (f *Flow) onConfirmingRemoveAll(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	switch {
	case isAffirmative(text):
		f.deps.Carts.Clear(sc.UserID)
		sc.SetState(core.StateInitial)
		return reply("Your cart has been emptied."), nil
	case isNegative(text):
		sc.SetState(core.StateInitial)
		return reply("Okay, your cart is untouched."), nil
	default:
		return reply("Please answer yes or no: empty the whole cart?"), nil
	}
}

// onConfirmingCheckout hands the order to the checkout orchestrator on a
// yes and translates its error taxonomy into user-facing outcomes.
func (f *Flow) onConfirmingCheckout(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	switch {
	case isAffirmative(text):
		return f.placeOrder(ctx, sc)
	case isNegative(text):
		sc.SetState(core.StateInitial)
		return reply("Checkout cancelled. Your cart is unchanged."), nil
	default:
		return reply("Please answer yes or no: place the order?"), nil
	}
}

func (f *Flow) placeOrder(ctx context.Context, sc *core.SessionContext) ([]core.Reply, error) {
	order, err := f.deps.Checkout.PlaceOrder(ctx, sc.UserID)
	switch {
	case err == nil:
		sc.SetState(core.StateCheckoutCompleted)
		return reply("%s", renderOrder(order)), nil
	case errors.Is(err, checkout.ErrEmptyCart):
		sc.SetState(core.StateInitial)
		return reply("Your cart is empty, there is nothing to order."), nil
	case errors.Is(err, checkout.ErrCommitFailed):
		f.deps.Logger.Error("order commit failed", "user_id", sc.UserID, "error", err)
		sc.SetState(core.StateInitial)
		return reply("Something went wrong recording your order. Our team has been notified; please contact support before retrying."), nil
	}
	var stockErr *core.CheckoutStockError
	if errors.As(err, &stockErr) {
		sc.SetState(core.StateInitial)
		var b strings.Builder
		b.WriteString("Some items are no longer available in the requested quantity:\n")
		for _, l := range stockErr.Lines {
			fmt.Fprintf(&b, "- %s: requested %d, available %d\n", l.Description, l.Requested, l.Available)
		}
		b.WriteString("Your cart is unchanged; adjust it and try again.")
		return []core.Reply{{Text: b.String()}}, nil
	}
	return nil, err
}

// onWaitingForFile only reacts to a cancellation; the file itself arrives
// as a file event through HandleFile.
func (f *Flow) onWaitingForFile(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	if isNegative(text) {
		sc.Do(func(c *core.SessionContext) {
			c.PendingUploadFile = ""
			c.State = core.StateInitial
		})
		return reply("Upload cancelled."), nil
	}
	return reply("Send the inventory file as an attachment, or say cancel."), nil
}

// onConfirmingInventory applies or discards the staged catalog upload.
func (f *Flow) onConfirmingInventory(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	if len(snap.StagedProducts) == 0 {
		return nil, &core.InternalInconsistencyError{State: snap.State, Missing: "StagedProducts"}
	}
	switch {
	case isAffirmative(text):
		tctx, cancel := context.WithTimeout(ctx, f.deps.InventoryTimeout)
		defer cancel()
		if err := f.deps.Inventory.Upsert(tctx, snap.StagedProducts); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, &core.UpstreamTimeoutError{Collaborator: "inventory", Err: err}
			}
			return nil, err
		}
		f.deps.Logger.Info("inventory upload applied", "user_id", sc.UserID, "products", len(snap.StagedProducts))
		sc.Do(func(c *core.SessionContext) {
			c.StagedProducts = nil
			c.PendingUploadFile = ""
			c.State = core.StateInitial
		})
		return reply("Inventory updated: %d products applied.", len(snap.StagedProducts)), nil
	case isNegative(text):
		sc.Do(func(c *core.SessionContext) {
			c.StagedProducts = nil
			c.PendingUploadFile = ""
			c.State = core.StateInitial
		})
		return reply("Upload discarded. The catalog is unchanged."), nil
	default:
		return reply("Please answer yes or no: apply the %d parsed products?", len(snap.StagedProducts)), nil
	}
}

// onEnding restarts the conversation from scratch on any new message.
func (f *Flow) onEnding(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	sc.Reset()
	return nil, core.ErrUnhandled
}
