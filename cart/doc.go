// Package cart contains concrete CartStore implementations. The store
// interface and the line item types reside in the core package; depend on
// core.CartStore in your code and select an implementation at wiring time.
//
// The cart store is deliberately stock-agnostic. Stock awareness is
// layered on top by the flow handlers and the checkout orchestrator, which
// keeps the cart's invariants (merge-on-same-code, quantity >= 1) simple
// and testable in isolation.
package cart
