// Package query turns raw user search text into a canonical upstream query.
//
// A query may end in a time-range directive:
//
//	coronavirus updates :past hour
//
// The directive is removed from the text and returned as a filter overlay.
// Recognized keywords are hour, day, month and year, matched without regard
// to case. A marker followed by any other keyword is left in the text as
// literal query content.
package query

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/usestring/quietsearch/pkg/types"
)

// DirectiveMarker introduces a trailing time-range directive.
const DirectiveMarker = ":past"

// ErrEmptyQuery is returned for empty or whitespace-only input.
var ErrEmptyQuery = errors.New("query is empty")

// Normalized is the output of Normalize.
type Normalized struct {
	Query   string              `json:"query"`
	Overlay types.FilterOverlay `json:"overlay"`
}

// Normalize trims raw and extracts a trailing directive. Normalizing an
// already-normalized query returns it unchanged.
func Normalize(raw string) (Normalized, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Normalized{}, ErrEmptyQuery
	}

	rest, tr, ok := splitDirective(text)
	if !ok {
		return Normalized{Query: text}, nil
	}
	if rest == "" {
		return Normalized{}, ErrEmptyQuery
	}
	return Normalized{Query: rest, Overlay: types.FilterOverlay{TimeRange: tr}}, nil
}

// splitDirective returns the text before a recognized trailing directive.
// text must already be trimmed.
func splitDirective(text string) (string, types.TimeRange, bool) {
	before, keyword, ok := cutLastToken(text)
	if !ok {
		return "", types.TimeRangeNone, false
	}
	// A single remaining token leaves prefix empty.
	prefix, marker, _ := cutLastToken(before)
	if !equalFold(marker, DirectiveMarker) {
		return "", types.TimeRangeNone, false
	}

	for _, tr := range types.TimeRanges {
		if equalFold(keyword, string(tr)) {
			return prefix, tr, true
		}
	}
	return "", types.TimeRangeNone, false
}

// cutLastToken splits s at its last whitespace run. before has trailing
// whitespace removed. ok is false when s holds a single token.
func cutLastToken(s string) (before, last string, ok bool) {
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return "", s, false
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return strings.TrimRightFunc(s[:i], unicode.IsSpace), s[i+size:], true
}

func equalFold(a, b string) bool {
	// Casers are stateful; build one per comparison.
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
