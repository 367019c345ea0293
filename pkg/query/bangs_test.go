package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgExport = `[
  {"t": "w", "u": "https://en.wikipedia.org/wiki/Special:Search?search={{{s}}}", "s": "Wikipedia"},
  {"t": "gh", "u": "https://github.com/search?q={{{s}}}", "s": "GitHub"},
  {"t": "broken"}
]`

const yamlTable = `
"!yt":
  url: "https://www.youtube.com/results?search_query={}"
  suggestion: "!yt (YouTube)"
so:
  url: "https://stackoverflow.com/search?q={}"
`

func TestLoadBangs_ddgExport(t *testing.T) {
	b, err := LoadBangs([]byte(ddgExport))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())

	got, ok := b.Resolve("!w golang")
	require.True(t, ok)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Special:Search?search=golang", got)
}

func TestLoadBangs_yamlTable(t *testing.T) {
	b, err := LoadBangs([]byte(yamlTable))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())

	got, ok := b.Resolve("go channels !so")
	require.True(t, ok)
	assert.Equal(t, "https://stackoverflow.com/search?q=go+channels", got)
}

func TestLoadBangs_invalid(t *testing.T) {
	_, err := LoadBangs([]byte("{not: [valid"))
	assert.Error(t, err)
}

func TestBangs_Resolve(t *testing.T) {
	b := NewBangs(map[string]Bang{
		"!w": {URL: "https://en.wikipedia.org/wiki/Special:Search?search={}", Suggestion: "!w (Wikipedia)"},
	})

	tests := []struct {
		name  string
		query string
		want  string
		ok    bool
	}{
		{"leading bang", "!w Alan Turing", "https://en.wikipedia.org/wiki/Special:Search?search=Alan+Turing", true},
		{"trailing bang", "Alan Turing !w", "https://en.wikipedia.org/wiki/Special:Search?search=Alan+Turing", true},
		{"suffix form", "w! turing", "https://en.wikipedia.org/wiki/Special:Search?search=turing", true},
		{"case insensitive", "!W turing", "https://en.wikipedia.org/wiki/Special:Search?search=turing", true},
		{"bang alone goes home", "!w", "https://en.wikipedia.org", true},
		{"unknown bang", "!zz turing", "", false},
		{"no bang", "turing", "", false},
		{"bang inside word", "hello!w", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.Resolve(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBangs_nilTable(t *testing.T) {
	var b *Bangs
	_, ok := b.Resolve("!w x")
	assert.False(t, ok)
	assert.Empty(t, b.Suggest("!w", 5))
}

func TestBangs_Suggest(t *testing.T) {
	b, err := LoadBangs([]byte(ddgExport))
	require.NoError(t, err)

	assert.Equal(t, []string{"!gh (GitHub)"}, b.Suggest("!g", 5))
	assert.Len(t, b.Suggest("!", 1), 1)
	assert.Empty(t, b.Suggest("g", 5))
}
