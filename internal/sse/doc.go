// Package sse decodes the line-oriented event stream used by the chat
// message endpoint.
//
// The wire format is one event per line, prefixed with "data: " and carrying
// a JSON object with exactly one of:
//
//   - content: an incremental text fragment
//   - done: true, terminal success
//   - error: a message, terminal failure
//
// The decoder is chunk-boundary safe: a line split across any number of
// reads decodes identically to the same bytes delivered at once. Frames are
// delivered strictly in arrival order with no buffering beyond what is
// needed to find line boundaries.
package sse
