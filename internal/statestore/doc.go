// Package statestore persists the client's durable state (session id and
// committed message history) in a local SQLite database.
//
// The contract mirrors a browser-local key/value store: typed Get with a
// caller-supplied default, synchronous write-through Set, and Remove. Every
// failure path degrades instead of erroring — a full or broken disk leaves
// the in-memory state authoritative for the rest of the process, so the
// active conversation is never interrupted by persistence trouble.
package statestore
