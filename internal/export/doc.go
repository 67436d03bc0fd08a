// Package export writes conversation transcripts to disk as Markdown or
// standalone HTML. Markdown is the canonical rendering; the HTML form is the
// same document converted with goldmark and wrapped in a minimal page.
package export
