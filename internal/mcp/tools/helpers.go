// Package tools contains the MCP tool implementations of quietsearch.
package tools

import (
	"fmt"

	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// SearchResourceURI is the resource URI of a cached search.
func SearchResourceURI(searchID string) string {
	return "quietsearch://search/" + searchID
}

// FilterInput is the filter part of a tool input. Unset fields fall back to
// the server defaults.
type FilterInput struct {
	Region    string `json:"region,omitempty" jsonschema:"Country to restrict results to, ISO 3166 code (e.g. DE, US). Default: server setting"`
	Language  string `json:"language,omitempty" jsonschema:"Result language, BCP 47 tag (e.g. en, pt-BR). Default: server setting"`
	TimeRange string `json:"time_range,omitempty" jsonschema:"Recency window: hour, day, month or year. A trailing ':past <range>' in the query takes precedence"`
	NoJS      *bool  `json:"no_js,omitempty" jsonschema:"Add script_free_url to every result. Default: server setting"`
	DarkMode  *bool  `json:"dark_mode,omitempty" jsonschema:"Dark presentation hint carried through to renderers"`

	SafeSearch       *bool `json:"safe_search,omitempty" jsonschema:"Ask the provider to hide explicit results. Default: server setting"`
	SiteAlternatives *bool `json:"site_alternatives,omitempty" jsonschema:"Point links to sites such as reddit.com or youtube.com at privacy-friendly front ends. Default: server setting"`
}

// Selection validates the input and converts it to a filter selection.
// A nil input selects nothing.
func (in *FilterInput) Selection() (types.FilterSelection, error) {
	var sel types.FilterSelection
	if in == nil {
		return sel, nil
	}
	if in.Region != "" {
		region, err := config.CanonicalRegion(in.Region)
		if err != nil {
			return sel, ErrInvalidInput(fmt.Sprintf("region: %v", err))
		}
		sel.Region = &region
	}
	if in.Language != "" {
		lang, err := config.CanonicalLanguage(in.Language)
		if err != nil {
			return sel, ErrInvalidInput(fmt.Sprintf("language: %v", err))
		}
		sel.Language = &lang
	}
	if in.TimeRange != "" {
		tr, err := types.ParseTimeRange(in.TimeRange)
		if err != nil {
			return sel, ErrInvalidInput(err.Error())
		}
		sel.TimeRange = &tr
	}
	sel.NoJS = in.NoJS
	sel.DarkMode = in.DarkMode
	sel.SafeSearch = in.SafeSearch
	sel.SiteAlternatives = in.SiteAlternatives
	return sel, nil
}
