package flow

import (
	"context"
	"errors"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// Operations entered from outside the transition table: action tokens and
// classifier intents land here, each one moving the session into the state
// whose handler continues the dialogue.

// SearchProducts runs a catalog search and presents the results, keeping
// them in session context as the referent for "the second one" style
// follow-ups.
func (f *Flow) SearchProducts(ctx context.Context, sc *core.SessionContext, query string) ([]core.Reply, error) {
	tctx, cancel := context.WithTimeout(ctx, f.deps.InventoryTimeout)
	defer cancel()
	products, err := f.deps.Inventory.Search(tctx, query, f.deps.SearchLimit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &core.UpstreamTimeoutError{Collaborator: "inventory", Err: err}
		}
		return nil, err
	}
	refs := make([]core.ProductRef, 0, len(products))
	for _, p := range products {
		refs = append(refs, p.Ref())
	}
	next := core.StateShowingProducts
	if len(refs) == 0 {
		next = core.StateInitial
	}
	sc.Do(func(c *core.SessionContext) {
		c.LastQuery = query
		c.LastShownProducts = refs
		c.SelectedProductIndex = 0
		c.SelectedQuantity = 0
		c.State = next
	})
	return reply("%s", renderProducts(products)), nil
}

// ViewCart renders the cart without changing state.
func (f *Flow) ViewCart(sc *core.SessionContext) ([]core.Reply, error) {
	sc.Touch()
	return reply("%s", renderCart(f.deps.Carts.Snapshot(sc.UserID))), nil
}

// BeginRemoval starts the removal dialogue. When hint resolves to exactly
// one cart line the quantity question is asked straight away; otherwise
// the user is asked which line to remove.
func (f *Flow) BeginRemoval(sc *core.SessionContext, hint string) ([]core.Reply, error) {
	snap := f.deps.Carts.Snapshot(sc.UserID)
	if snap.Empty() {
		sc.SetState(core.StateInitial)
		return reply("Your cart is already empty."), nil
	}
	if hint != "" {
		if idx, ambiguous := resolveLine(snap.Lines, hint); idx >= 0 && !ambiguous {
			line := snap.Lines[idx]
			sc.Do(func(c *core.SessionContext) {
				c.PendingRemoval = &core.PendingRemoval{Line: line, Index: idx}
				c.State = core.StateAskingRemoveQuantity
			})
			return reply("You have %d x %s. How many should I remove? (a number, or \"all\")", line.Quantity, line.Description), nil
		}
	}
	sc.SetState(core.StateRemovingItem)
	return reply("%s\nWhich line should I remove?", renderCart(snap)), nil
}

// BeginAddUnits starts the top-up dialogue, mirroring BeginRemoval.
func (f *Flow) BeginAddUnits(sc *core.SessionContext, hint string) ([]core.Reply, error) {
	snap := f.deps.Carts.Snapshot(sc.UserID)
	if snap.Empty() {
		sc.SetState(core.StateInitial)
		return reply("Your cart is empty, so there is nothing to add units to."), nil
	}
	if hint != "" {
		if idx, ambiguous := resolveLine(snap.Lines, hint); idx >= 0 && !ambiguous {
			line := snap.Lines[idx]
			sc.Do(func(c *core.SessionContext) {
				c.PendingAddition = &core.PendingLine{Line: line, Index: idx}
				c.State = core.StateAskingAddQuantity
			})
			return reply("You have %d x %s. How many more units?", line.Quantity, line.Description), nil
		}
	}
	sc.SetState(core.StateAddingUnits)
	return reply("%s\nWhich line should I add units to?", renderCart(snap)), nil
}

// BeginClearCart asks for confirmation before emptying a non-empty cart.
func (f *Flow) BeginClearCart(sc *core.SessionContext) ([]core.Reply, error) {
	if f.deps.Carts.Snapshot(sc.UserID).Empty() {
		sc.SetState(core.StateInitial)
		return reply("Your cart is already empty."), nil
	}
	sc.SetState(core.StateConfirmingRemoveAll)
	return reply("Empty the whole cart? (yes/no)"), nil
}

// BeginCheckout presents the cart and asks for the final confirmation.
func (f *Flow) BeginCheckout(sc *core.SessionContext) ([]core.Reply, error) {
	snap := f.deps.Carts.Snapshot(sc.UserID)
	if snap.Empty() {
		sc.SetState(core.StateInitial)
		return reply("Your cart is empty, there is nothing to order."), nil
	}
	sc.SetState(core.StateConfirmingCheckout)
	return reply("%s\nPlace the order? (yes/no)", renderCart(snap)), nil
}

// ConfirmCheckout places the order immediately. Only meaningful while the
// session sits at the checkout confirmation.
func (f *Flow) ConfirmCheckout(ctx context.Context, sc *core.SessionContext) ([]core.Reply, error) {
	if sc.CurrentState() != core.StateConfirmingCheckout {
		return reply("There is no checkout in progress. Say checkout when you are ready."), nil
	}
	return f.placeOrder(ctx, sc)
}

// BeginUpload moves an administrator into the file-upload flow.
func (f *Flow) BeginUpload(sc *core.SessionContext) ([]core.Reply, error) {
	sc.SetState(core.StateWaitingForFile)
	return reply("Send the inventory file (CSV: code,description,price,stock)."), nil
}

// HandleFile downloads and parses an uploaded inventory file, staging its
// products for confirmation. Outside the upload flow the file is refused.
func (f *Flow) HandleFile(ctx context.Context, sc *core.SessionContext, fileRef string) ([]core.Reply, error) {
	if sc.CurrentState() != core.StateWaitingForFile {
		sc.Touch()
		return reply("I was not expecting a file. Administrators can start an upload with the inventory command."), nil
	}
	data, err := f.deps.Messenger.GetFile(ctx, fileRef)
	if err != nil {
		f.deps.Logger.Error("file download failed", "user_id", sc.UserID, "file_ref", fileRef, "error", err)
		return reply("I could not download that file. Send it again, or say cancel."), nil
	}
	products, err := f.deps.Parser.Parse(data)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			return reply("That file did not parse: %s. Fix it and send it again, or say cancel.", verr.Reason), nil
		}
		return nil, err
	}
	sc.Do(func(c *core.SessionContext) {
		c.PendingUploadFile = fileRef
		c.StagedProducts = products
		c.State = core.StateConfirmingInventory
	})
	return reply("%s", renderStaged(products)), nil
}

// ApplyUpload commits the staged catalog upload (the confirm-upload
// action token).
func (f *Flow) ApplyUpload(ctx context.Context, sc *core.SessionContext) ([]core.Reply, error) {
	if sc.CurrentState() != core.StateConfirmingInventory {
		return reply("There is no upload awaiting confirmation."), nil
	}
	return f.onConfirmingInventory(ctx, sc, "yes")
}

// DiscardUpload abandons the staged catalog upload.
func (f *Flow) DiscardUpload(ctx context.Context, sc *core.SessionContext) ([]core.Reply, error) {
	st := sc.CurrentState()
	if st != core.StateConfirmingInventory && st != core.StateWaitingForFile {
		return reply("There is no upload in progress."), nil
	}
	sc.Do(func(c *core.SessionContext) {
		c.StagedProducts = nil
		c.PendingUploadFile = ""
		c.State = core.StateInitial
	})
	return reply("Upload cancelled."), nil
}

// Cancel abandons whatever dialogue is in progress and returns to the
// start without touching the cart.
func (f *Flow) Cancel(sc *core.SessionContext) ([]core.Reply, error) {
	sc.Reset()
	return reply("Okay, cancelled. What can I find for you?"), nil
}
