// Package engine contains the dispatch router: the single entry point
// every inbound event passes through. It serializes events per session,
// applies the dispatch precedence (admin gate, explicit action tokens,
// state text handlers, intent-classifier fallback) and owns the error
// recovery boundary that turns the internal error taxonomy into
// user-facing replies and state resets.
package engine
