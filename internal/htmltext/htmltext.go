// Package htmltext flattens the constrained HTML fragments the backend's
// rich-text fields carry into plain display text. It is a formatting step,
// not a security boundary: the raw fragment stays available alongside the
// stripped one, and no attempt is made to handle malformed or nested markup
// beyond what the backend actually produces.
package htmltext

import (
	"html"
	"strings"
)

// Strip converts an HTML fragment to plain text. A nil input passes through
// as nil so that absent source fields stay absent. Otherwise entities are
// decoded, opening <p> tags are dropped, closing </p> tags become line
// breaks, and any remaining tag is removed with a naive scan to the next
// closing angle bracket.
func Strip(text *string) *string {
	if text == nil {
		return nil
	}

	s := html.UnescapeString(*text)
	s = strings.ReplaceAll(s, "<p>", "")
	s = strings.ReplaceAll(s, "</p>", "\n")

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	return &out
}
