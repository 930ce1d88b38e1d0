package core

// State identifies the position of a conversation inside the shopping
// dialogue. Transitions between states are owned by the flow package; the
// session store writes whatever state it is told without validation.
type State string

const (
	// StateInitial is the resting state of every conversation. New sessions
	// start here and most completed or cancelled interactions return here.
	StateInitial State = "INITIAL"
	// StateShowingProducts is active after a catalog search has been
	// presented and the user is expected to pick a product.
	StateShowingProducts State = "SHOWING_PRODUCTS"
	// StateAskingQuantity waits for the number of units of the selected
	// product the user wants to add.
	StateAskingQuantity State = "ASKING_QUANTITY"
	// StateAskingConfirmation waits for a yes/no on the staged selection.
	StateAskingConfirmation State = "ASKING_CONFIRMATION"
	// StateAskingForMore is entered after a successful add; any product
	// query restarts a search, a farewell ends the conversation.
	StateAskingForMore State = "ASKING_FOR_MORE"
	// StateAddingUnits waits for the user to name the cart line that should
	// receive additional units.
	StateAddingUnits State = "ADDING_UNITS"
	// StateAskingAddQuantity waits for how many units to add to the line
	// chosen while in StateAddingUnits.
	StateAskingAddQuantity State = "ASKING_ADD_QUANTITY"
	// StateRemovingItem waits for the user to name the cart line to remove.
	StateRemovingItem State = "REMOVING_ITEM"
	// StateAskingRemoveQuantity waits for how many units to remove ("all"
	// removes the whole line).
	StateAskingRemoveQuantity State = "ASKING_REMOVE_QUANTITY"
	// StateConfirmingRemoveItem waits for a yes/no on the staged removal.
	StateConfirmingRemoveItem State = "CONFIRMING_REMOVE_ITEM"
	// StateConfirmingRemoveAll waits for a yes/no on clearing the cart.
	StateConfirmingRemoveAll State = "CONFIRMING_REMOVE_ALL"
	// StateConfirmingCheckout waits for a yes/no on placing the order.
	StateConfirmingCheckout State = "CONFIRMING_CHECKOUT"
	// StateCheckoutCompleted marks a finished order. Terminal per order; the
	// engine resets the session to StateInitial immediately after.
	StateCheckoutCompleted State = "CHECKOUT_COMPLETED"
	// StateWaitingForFile waits for an inventory file upload (admin flow).
	StateWaitingForFile State = "WAITING_FOR_FILE"
	// StateConfirmingInventory waits for a yes/no on applying a parsed
	// inventory upload to the catalog.
	StateConfirmingInventory State = "CONFIRMING_INVENTORY"
	// StateEnding marks a closed conversation cycle. Terminal; the next
	// event starts over from StateInitial.
	StateEnding State = "ENDING"
)

// allStates is the closed set used by Valid. Keep in sync with the
// constants above; flow.TestTransitionTableExhaustive asserts coverage.
var allStates = map[State]struct{}{
	StateInitial:               {},
	StateShowingProducts:       {},
	StateAskingQuantity:        {},
	StateAskingConfirmation:    {},
	StateAskingForMore:         {},
	StateAddingUnits:           {},
	StateAskingAddQuantity:     {},
	StateRemovingItem:          {},
	StateAskingRemoveQuantity:  {},
	StateConfirmingRemoveItem:  {},
	StateConfirmingRemoveAll:   {},
	StateConfirmingCheckout:    {},
	StateCheckoutCompleted:     {},
	StateWaitingForFile:        {},
	StateConfirmingInventory:   {},
	StateEnding:                {},
}

// Valid reports whether s is a member of the defined state set.
func (s State) Valid() bool {
	_, ok := allStates[s]
	return ok
}

// States returns the full defined state set. The returned slice is a copy.
func States() []State {
	out := make([]State, 0, len(allStates))
	for s := range allStates {
		out = append(out, s)
	}
	return out
}

func (s State) String() string { return string(s) }
