// ABOUTME: Tests for context selection semantics and mention resolution
// ABOUTME: Covers toggle idempotence, all-vs-empty distinction, and monotonic mentions

package docctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_Idempotent(t *testing.T) {
	s := NewSelector()
	s.Toggle("d1")
	s.Toggle("d2")
	before := s.EffectiveContext()

	s.Toggle("d3")
	s.Toggle("d3")

	assert.Equal(t, before, s.EffectiveContext())
}

func TestToggle_FlipsMembership(t *testing.T) {
	s := NewSelector()

	s.Toggle("d1")
	assert.True(t, s.IsSelected("d1"))
	assert.Equal(t, []string{"d1"}, s.EffectiveContext())

	s.Toggle("d1")
	assert.False(t, s.IsSelected("d1"))
	assert.Nil(t, s.EffectiveContext())
}

func TestToggle_PreservesSelectionOrder(t *testing.T) {
	s := NewSelector()
	s.Toggle("d2")
	s.Toggle("d1")
	s.Toggle("d3")
	s.Toggle("d1") // remove from the middle

	assert.Equal(t, []string{"d2", "d3"}, s.EffectiveContext())
}

func TestToggleAll_PinsExplicitSetFromImplicitAll(t *testing.T) {
	s := NewSelector()
	known := []string{"d1", "d2", "d3"}

	s.ToggleAll(known)

	assert.Equal(t, known, s.EffectiveContext())
	assert.Equal(t, 3, s.Count())
}

func TestToggleAll_ClearsExplicitSelection(t *testing.T) {
	s := NewSelector()
	s.Toggle("d1")
	s.Toggle("d2")

	s.ToggleAll([]string{"d1", "d2", "d3"})

	assert.Nil(t, s.EffectiveContext())
	assert.Equal(t, 0, s.Count())
}

func TestMention_AddsAndNeverRemoves(t *testing.T) {
	s := NewSelector()
	s.Toggle("d1")

	s.Mention("d2")
	assert.Equal(t, []string{"d1", "d2"}, s.EffectiveContext())

	// Mentioning an already-selected document changes nothing.
	s.Mention("d1")
	s.Mention("d2")
	assert.Equal(t, []string{"d1", "d2"}, s.EffectiveContext())
}

func TestEffectiveContext_NilIffEmpty(t *testing.T) {
	s := NewSelector()
	assert.Nil(t, s.EffectiveContext())

	s.Toggle("d1")
	require.NotNil(t, s.EffectiveContext())

	s.Toggle("d1")
	assert.Nil(t, s.EffectiveContext())
}

func TestEffectiveContext_ReturnsCopy(t *testing.T) {
	s := NewSelector()
	s.Toggle("d1")
	s.Toggle("d2")

	ctx := s.EffectiveContext()
	ctx[0] = "mutated"

	assert.Equal(t, []string{"d1", "d2"}, s.EffectiveContext())
}

func TestParseMentions(t *testing.T) {
	docs := []DocumentRef{
		{ID: "d1", Name: "notes.pdf"},
		{ID: "d2", Name: "Quarterly-Report.txt"},
		{ID: "d3", Name: "readme.md"},
	}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"full filename", "summarize @notes.pdf please", []string{"d1"}},
		{"bare name without extension", "what does @notes say?", []string{"d1"}},
		{"case insensitive", "check @quarterly-report.txt", []string{"d2"}},
		{"multiple in order", "compare @readme.md with @notes.pdf", []string{"d3", "d1"}},
		{"duplicates collapse", "@notes and @notes.pdf again", []string{"d1"}},
		{"unknown token ignored", "ping @nosuchdoc for me", nil},
		{"no mentions", "plain question", nil},
		{"email-like text is not a doc", "mail me@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMentions(tt.text, docs))
		})
	}
}

func TestParseMentions_NoDocuments(t *testing.T) {
	assert.Nil(t, ParseMentions("@anything", nil))
}
