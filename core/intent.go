package core

// Intent is the coarse action label produced by the external intent
// classifier for free text no state handler claimed.
type Intent string

const (
	IntentViewCart       Intent = "view-cart"
	IntentAddUnits       Intent = "add-units"
	IntentRemoveFromCart Intent = "remove-from-cart"
	IntentCheckout       Intent = "checkout"
	IntentClearCart      Intent = "clear-cart"
	IntentGreeting       Intent = "greeting"
	IntentFarewell       Intent = "farewell"
	IntentRejection      Intent = "rejection"
	IntentConfirmation   Intent = "confirmation"
	IntentQuantity       Intent = "quantity"
	// IntentNewSearch is the default label: treat the text as a product
	// search query.
	IntentNewSearch Intent = "new-search"
)

// ConfidenceThreshold is the minimum classifier confidence the router
// accepts. Anything below it is answered with a clarification request.
const ConfidenceThreshold = 0.6

// KnownIntent reports whether the label belongs to the routing vocabulary.
// Unknown labels are routed like IntentNewSearch.
func KnownIntent(i Intent) bool {
	switch i {
	case IntentViewCart, IntentAddUnits, IntentRemoveFromCart, IntentCheckout,
		IntentClearCart, IntentGreeting, IntentFarewell, IntentRejection,
		IntentConfirmation, IntentQuantity, IntentNewSearch:
		return true
	}
	return false
}
