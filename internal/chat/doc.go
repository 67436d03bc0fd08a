// Package chat owns the conversation session: identity, history, and the
// streaming submission lifecycle.
//
// # State machine
//
// A controller moves Uninitialized → Idle on Initialize (or once a session
// is created), Idle → Streaming on an accepted Submit, and back to Idle on
// every terminal stream outcome — done frame, in-band error frame, or
// transport failure. There is no path that leaves the controller stuck
// busy. StartNewConversation returns to Uninitialized and immediately back
// to Idle with a fresh session.
//
// # Durability
//
// The committed history and session id are written through the state store
// synchronously after every change that must survive a reload. The
// in-progress streamed reply is held in an accumulator and committed
// atomically on completion, so persisted history never contains a
// partially-streamed message: a crash loses at most the uncommitted
// fragment.
//
// # Concurrency
//
// At most one submission is in flight per controller. The busy flag — not a
// queue — enforces this: a second Submit while streaming is a logged no-op.
// Submit blocks the calling goroutine until the stream terminates.
package chat
