package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// CanonicalRegion parses an ISO 3166-1 country code, optionally in the
// provider's "countryXX" form, and returns its upper-case alpha-2 code.
// The empty string stays empty.
func CanonicalRegion(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if len(s) > len("country") && strings.EqualFold(s[:len("country")], "country") {
		s = s[len("country"):]
	}
	r, err := language.ParseRegion(s)
	if err != nil {
		return "", fmt.Errorf("unknown country %q: %w", s, err)
	}
	if !r.IsCountry() {
		return "", fmt.Errorf("%q is a region grouping, not a country", s)
	}
	return r.String(), nil
}

// CanonicalLanguage parses a BCP 47 tag, optionally in the provider's
// "lang_xx" form, and returns its canonical spelling ("zh-tw" becomes
// "zh-TW"). The empty string stays empty.
func CanonicalLanguage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if len(s) > len("lang_") && strings.EqualFold(s[:len("lang_")], "lang_") {
		s = s[len("lang_"):]
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unknown language %q: %w", s, err)
	}
	if _, conf := tag.Base(); conf == language.No {
		return "", fmt.Errorf("unknown language %q", s)
	}
	return tag.String(), nil
}
