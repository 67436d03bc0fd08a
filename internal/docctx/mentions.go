// ABOUTME: Inline @mention resolution against known document names
// ABOUTME: Lets a composed message pull documents into the context selection

package docctx

import (
	"regexp"
	"strings"
)

// DocumentRef is the minimal view of a document needed to resolve mentions.
type DocumentRef struct {
	ID   string
	Name string
}

// mentionPattern matches @ followed by a filename-ish token.
var mentionPattern = regexp.MustCompile(`@([\w][\w.-]*)`)

// ParseMentions finds inline @name references in a composed message and
// resolves them against the known documents. A token matches a document if
// it equals the filename or the filename without its extension, compared
// case-insensitively. Resolved ids are returned in order of appearance,
// deduplicated; unresolved tokens are ignored.
func ParseMentions(text string, docs []DocumentRef) []string {
	if len(docs) == 0 {
		return nil
	}

	byName := make(map[string]string, len(docs)*2)
	for _, doc := range docs {
		name := strings.ToLower(doc.Name)
		byName[name] = doc.ID
		if base := strings.TrimSuffix(name, extension(name)); base != name && base != "" {
			// Keep the first document claiming a bare name; later
			// duplicates stay reachable by full filename.
			if _, taken := byName[base]; !taken {
				byName[base] = doc.ID
			}
		}
	}

	var ids []string
	seen := make(map[string]bool)
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		token := strings.ToLower(match[1])
		id, ok := byName[token]
		if !ok {
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return ids
}

// extension returns the trailing ".ext" of name, or "" when there is none.
func extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return ""
	}
	return name[idx:]
}
