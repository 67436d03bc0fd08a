// Package docctx tracks which documents are "in context" for the next chat
// request.
//
// The selection is an ordered set of document ids with one twist: the empty
// set means "all known documents", not "none". That distinction survives to
// the wire — an empty selection omits the restriction field entirely rather
// than sending an empty list.
//
// Selection changes come from three places: explicit toggles of a single
// document, a toggle-all that pins or releases the full known set, and
// inline @mentions in the composed message, which only ever add.
package docctx
