package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Bang is a shortcut that sends the query straight to another site.
type Bang struct {
	URL        string `json:"url" yaml:"url"` // "{}" marks where the query goes
	Suggestion string `json:"suggestion" yaml:"suggestion"`
}

// bangProgram accepts either a ready table keyed by "!name" or the
// DuckDuckGo export ([{"t": ..., "u": ..., "s": ...}]) and emits the table.
const bangProgram = `
if type == "array" then
  map(select(.t != null and .u != null)
      | {key: ("!" + (.t | ascii_downcase)),
         value: {url: (.u | split("{{{s}}}") | join("{}")),
                 suggestion: ("!" + .t + " (" + (.s // .t) + ")")}})
  | from_entries
else
  with_entries(.key |= (ascii_downcase | if startswith("!") then . else "!" + . end))
end`

// Bangs is an immutable bang lookup table.
type Bangs struct {
	table map[string]Bang
	keys  []string
}

// LoadBangs parses a bang table. YAML and JSON are both accepted.
func LoadBangs(data []byte) (*Bangs, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing bang table: %w", err)
	}
	if raw == nil {
		return NewBangs(nil), nil
	}

	parsed, err := gojq.Parse(bangProgram)
	if err != nil {
		return nil, fmt.Errorf("invalid bang program: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile bang program: %w", err)
	}

	iter := code.Run(raw)
	v, ok := iter.Next()
	if !ok {
		return NewBangs(nil), nil
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("normalizing bang table: %w", err)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding bang table: %w", err)
	}
	table := make(map[string]Bang)
	if err := json.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("decoding bang table: %w", err)
	}
	return NewBangs(table), nil
}

// NewBangs builds a table from operator -> Bang. Operators are lower-cased.
func NewBangs(table map[string]Bang) *Bangs {
	b := &Bangs{table: make(map[string]Bang, len(table))}
	for op, bang := range table {
		if bang.URL == "" {
			continue
		}
		op = strings.ToLower(op)
		b.table[op] = bang
		b.keys = append(b.keys, op)
	}
	sort.Strings(b.keys)
	return b
}

// Len returns the number of bangs.
func (b *Bangs) Len() int {
	if b == nil {
		return 0
	}
	return len(b.table)
}

// Resolve returns the redirect URL for a query containing a bang token,
// either "!w" or the trailing form "w!". The remaining words are
// query-escaped into the target URL. A bang with no words resolves to the
// target's home page.
func (b *Bangs) Resolve(q string) (string, bool) {
	if b.Len() == 0 {
		return "", false
	}

	words := strings.Fields(q)
	for i, w := range words {
		op := strings.ToLower(w)
		if !strings.HasPrefix(op, "!") && strings.HasSuffix(op, "!") {
			op = "!" + strings.TrimSuffix(op, "!")
		}
		bang, ok := b.table[op]
		if !ok {
			continue
		}

		rest := strings.Join(append(append([]string{}, words[:i]...), words[i+1:]...), " ")
		if rest == "" {
			u, err := url.Parse(bang.URL)
			if err != nil || u.Host == "" {
				return bang.URL, true
			}
			return u.Scheme + "://" + u.Host, true
		}
		return strings.Replace(bang.URL, "{}", url.QueryEscape(rest), 1), true
	}
	return "", false
}

// Suggest lists bang suggestions whose operator starts with prefix.
func (b *Bangs) Suggest(prefix string, limit int) []string {
	if b.Len() == 0 || !strings.HasPrefix(prefix, "!") {
		return nil
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	start := sort.SearchStrings(b.keys, prefix)
	var out []string
	for _, op := range b.keys[start:] {
		if !strings.HasPrefix(op, prefix) {
			break
		}
		s := b.table[op].Suggestion
		if s == "" {
			s = op
		}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
