// Package core centralizes the domain contracts of the shopping
// conversation engine: conversation states, the per-user session context,
// inbound events and outbound replies, product/cart/order models, the
// intent vocabulary, the error taxonomy and the store/collaborator
// interfaces. Concrete implementations live in their own packages
// (session, cart, inventory, store, checkout, ...) so higher layers can
// depend on contracts only and select backends at wiring time.
package core
