package types

import (
	"fmt"
	"strings"
)

// TimeRange is the recency window of a search.
type TimeRange string

const (
	TimeRangeNone  TimeRange = ""
	TimeRangeHour  TimeRange = "hour"
	TimeRangeDay   TimeRange = "day"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// TimeRanges lists the recognized time ranges in directive order.
var TimeRanges = []TimeRange{TimeRangeHour, TimeRangeDay, TimeRangeMonth, TimeRangeYear}

// ParseTimeRange parses a time range keyword. The empty string parses to TimeRangeNone.
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TimeRangeNone, nil
	}
	for _, tr := range TimeRanges {
		if s == string(tr) {
			return tr, nil
		}
	}
	return TimeRangeNone, fmt.Errorf("unknown time range %q (want hour, day, month or year)", s)
}

// FilterSet holds the filters applied to one fetch cycle.
type FilterSet struct {
	TimeRange TimeRange `json:"time_range,omitempty"`
	Region    string    `json:"region,omitempty"`   // ISO 3166-1 alpha-2, upper case
	Language  string    `json:"language,omitempty"` // BCP 47 base language, e.g. "en"
	NoJS      bool      `json:"no_js"`
	DarkMode  bool      `json:"dark_mode"`
	// SafeSearch asks the provider to hide explicit results.
	SafeSearch bool `json:"safe_search"`
	// SiteAlternatives rewrites links to known sites onto their configured
	// privacy-friendly front ends.
	SiteAlternatives bool `json:"site_alternatives"`
}

// FilterSelection is a partial FilterSet chosen by the caller.
// Nil fields fall back to the configured defaults.
type FilterSelection struct {
	TimeRange *TimeRange
	Region    *string
	Language  *string
	NoJS      *bool
	DarkMode  *bool

	SafeSearch       *bool
	SiteAlternatives *bool
}

// FilterOverlay is the partial FilterSet carried by a query directive.
type FilterOverlay struct {
	TimeRange TimeRange `json:"time_range,omitempty"`
}

// IsEmpty reports whether the overlay sets nothing.
func (o FilterOverlay) IsEmpty() bool {
	return o.TimeRange == TimeRangeNone
}

// Merge resolves the effective filters. Precedence is overlay, then selection,
// then defaults.
func Merge(defaults FilterSet, sel FilterSelection, overlay FilterOverlay) FilterSet {
	out := defaults
	if sel.TimeRange != nil {
		out.TimeRange = *sel.TimeRange
	}
	if sel.Region != nil {
		out.Region = *sel.Region
	}
	if sel.Language != nil {
		out.Language = *sel.Language
	}
	if sel.NoJS != nil {
		out.NoJS = *sel.NoJS
	}
	if sel.DarkMode != nil {
		out.DarkMode = *sel.DarkMode
	}
	if sel.SafeSearch != nil {
		out.SafeSearch = *sel.SafeSearch
	}
	if sel.SiteAlternatives != nil {
		out.SiteAlternatives = *sel.SiteAlternatives
	}
	if overlay.TimeRange != TimeRangeNone {
		out.TimeRange = overlay.TimeRange
	}
	return out
}
