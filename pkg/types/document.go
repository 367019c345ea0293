package types

// DocumentKind tags a RawDocument with the extractor that should handle it.
type DocumentKind int

const (
	KindSearchResults DocumentKind = iota
	KindTargetPage
)

func (k DocumentKind) String() string {
	switch k {
	case KindSearchResults:
		return "search_results"
	case KindTargetPage:
		return "target_page"
	default:
		return "unknown"
	}
}

// RawDocument is an upstream response as received. It is never mutated.
type RawDocument struct {
	Kind        DocumentKind
	Body        []byte
	ContentType string
	StatusCode  int
	URL         string // final request URL, used to resolve relative links
}
