package types

// ResultRecord is one organic search result.
type ResultRecord struct {
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	TargetURL  string `json:"target_url"`
	DisplayURL string `json:"display_url"`
	Rank       int    `json:"rank"` // 0-based upstream order

	// ScriptFreeURL is set by the link sanitizer when no_js is on.
	ScriptFreeURL string `json:"script_free_url,omitempty"`
}

// ResultSet is an ordered list of results. Index i holds rank i.
type ResultSet []ResultRecord

// SanitizedURL is a destination with tracking removed.
type SanitizedURL struct {
	Canonical         string `json:"canonical"`
	ScriptFreeVariant string `json:"script_free_variant,omitempty"`
}

// SanitizedDocument is a target page with script-capable content removed.
type SanitizedDocument struct {
	URL         string       `json:"url"`
	FinalURL    string       `json:"final_url"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	SiteName    string       `json:"site_name,omitempty"`
	Body        string       `json:"body"`
	Removed     RemovalStats `json:"removed"`
}

// RemovalStats counts what the script-free sanitizer took out.
type RemovalStats struct {
	Scripts       int `json:"scripts"`
	EventHandlers int `json:"event_handlers"`
	ScriptLinks   int `json:"script_links"`
	Frames        int `json:"frames"`
}
