// ABOUTME: Document context selection for chat requests
// ABOUTME: Ordered id set where the empty set means "all documents"

package docctx

import (
	"sync"
)

// Selector tracks which document ids restrict retrieval for the next chat
// request. The empty selection is a distinguished state meaning "all known
// documents", not "none". Selection order is preserved so the effective
// context is inspectable and stable on the wire.
//
// The selection is deliberately not persisted; it resets with each run.
type Selector struct {
	mu     sync.Mutex
	order  []string
	member map[string]bool
}

// NewSelector creates an empty selector ("all documents").
func NewSelector() *Selector {
	return &Selector{
		member: make(map[string]bool),
	}
}

// Toggle flips membership of id. Toggling twice restores the prior
// selection exactly.
func (s *Selector) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.member[id] {
		s.removeLocked(id)
		return
	}
	s.addLocked(id)
}

// ToggleAll pins or releases the full document set. From the implicit-all
// state (empty selection) it selects every known id explicitly, so the user
// sees exactly which documents are in play; from any explicit selection it
// clears back to the implicit-all state.
func (s *Selector) ToggleAll(knownIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		for _, id := range knownIDs {
			s.addLocked(id)
		}
		return
	}

	s.order = nil
	s.member = make(map[string]bool)
}

// Mention adds id to the selection unconditionally. Referencing a document
// inline must never narrow an already-broader context, so this only ever
// adds.
func (s *Selector) Mention(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(id)
}

// EffectiveContext returns nil when the selection is empty — the signal
// that retrieval is unrestricted — and otherwise a copy of the explicit
// ordered id set.
func (s *Selector) EffectiveContext() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// IsSelected reports whether id is explicitly selected.
func (s *Selector) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member[id]
}

// Count returns the number of explicitly selected documents.
func (s *Selector) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Selector) addLocked(id string) {
	if id == "" || s.member[id] {
		return
	}
	s.member[id] = true
	s.order = append(s.order, id)
}

func (s *Selector) removeLocked(id string) {
	delete(s.member, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
