package core

import "strings"

// Action is an explicit action token sent by a button press. The vocabulary
// is closed; anything outside it is treated as free text by callers that
// parse raw transport payloads.
type Action string

const (
	ActionViewCart     Action = "cart:view"
	ActionClearCart    Action = "cart:clear"
	ActionRemoveItem   Action = "cart:remove"
	ActionAddUnits     Action = "cart:add_units"
	ActionCheckout     Action = "checkout:start"
	ActionConfirm      Action = "checkout:confirm"
	ActionAbort        Action = "checkout:cancel"
	ActionCancel       Action = "action:cancel"
	ActionHelp         Action = "action:help"
	ActionAdminUpload  Action = "admin:upload"
	ActionAdminConfirm Action = "admin:confirm_upload"
	ActionAdminCancel  Action = "admin:cancel_upload"
	ActionAdminStats   Action = "admin:stats"
)

const adminNamespace = "admin:"

var knownActions = map[Action]struct{}{
	ActionViewCart:     {},
	ActionClearCart:    {},
	ActionRemoveItem:   {},
	ActionAddUnits:     {},
	ActionCheckout:     {},
	ActionConfirm:      {},
	ActionAbort:        {},
	ActionCancel:       {},
	ActionHelp:         {},
	ActionAdminUpload:  {},
	ActionAdminConfirm: {},
	ActionAdminCancel:  {},
	ActionAdminStats:   {},
}

// ParseAction maps a raw token to an Action. The boolean is false for
// anything outside the closed vocabulary.
func ParseAction(raw string) (Action, bool) {
	a := Action(strings.TrimSpace(raw))
	_, ok := knownActions[a]
	return a, ok
}

// Admin reports whether the token lives in the administrative namespace.
// The dispatch router checks this before anything else so a non-admin
// caller produces zero side effects.
func (a Action) Admin() bool { return strings.HasPrefix(string(a), adminNamespace) }

func (a Action) String() string { return string(a) }
