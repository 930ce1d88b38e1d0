// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the SessionContext struct) live in the core
// package to centralize domain contracts; keeping only implementations
// here prevents higher level packages (flow, engine) from depending on
// concrete storage.
//
// The in-memory store shards its map by user id so unrelated sessions
// never contend on one lock, and exposes a per-session lock the dispatch
// router uses to serialize whole events for the same user.
package session
