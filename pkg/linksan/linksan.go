// Package linksan rewrites result links so they lead straight to their
// destination without tracking.
//
// Sanitizing a URL unwraps provider redirectors, drops tracking query
// parameters by exact key, and optionally derives a link to the script-free
// viewer. The destination's host and path are only changed by unwrapping,
// or by a site alternative when the filter set asks for one. Sanitizing is
// deterministic, performs no I/O and is idempotent.
package linksan

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/usestring/quietsearch/pkg/types"
)

// DefaultScriptFreeEndpoint is the viewer path used when none is configured.
const DefaultScriptFreeEndpoint = "/window"

// Options configures a Sanitizer.
type Options struct {
	// ScriptFreeEndpoint is the script-free viewer URL or path.
	ScriptFreeEndpoint string
	// ExtraTrackingParams extends DefaultTrackingParams.
	ExtraTrackingParams []string
	// Redirectors replaces DefaultRedirectors when non-empty.
	Redirectors []Redirector
	// SiteAlternatives replaces DefaultSiteAlternatives when non-nil.
	SiteAlternatives map[string]string
}

// Sanitizer rewrites URLs. It is immutable and safe for concurrent use.
type Sanitizer struct {
	endpoint     string
	deny         map[string]struct{}
	redirectors  []Redirector
	alternatives []alternative
}

// New creates a Sanitizer.
func New(opts Options) *Sanitizer {
	s := &Sanitizer{
		endpoint:    opts.ScriptFreeEndpoint,
		deny:        make(map[string]struct{}, len(DefaultTrackingParams)+len(opts.ExtraTrackingParams)),
		redirectors: opts.Redirectors,
	}
	if s.endpoint == "" {
		s.endpoint = DefaultScriptFreeEndpoint
	}
	if len(s.redirectors) == 0 {
		s.redirectors = DefaultRedirectors
	}
	alts := opts.SiteAlternatives
	if alts == nil {
		alts = DefaultSiteAlternatives
	}
	s.alternatives = compileAlternatives(alts)
	for _, k := range DefaultTrackingParams {
		s.deny[k] = struct{}{}
	}
	for _, k := range opts.ExtraTrackingParams {
		if k = strings.TrimSpace(k); k != "" {
			s.deny[k] = struct{}{}
		}
	}
	return s
}

// Sanitize returns a new ResultSet with rewritten links. Length and order
// match the input. With f.SiteAlternatives set, links to known sites move to
// their front end and the display URL follows.
func (s *Sanitizer) Sanitize(rs types.ResultSet, f types.FilterSet) types.ResultSet {
	out := make(types.ResultSet, len(rs))
	for i, rec := range rs {
		canonical := s.StripTracking(s.Unwrap(rec.TargetURL))
		if f.SiteAlternatives {
			if alt, ok := s.Alternative(canonical); ok {
				canonical = alt
				rec.DisplayURL = displayURL(alt)
			}
		}
		rec.TargetURL = canonical
		rec.ScriptFreeURL = ""
		if f.NoJS {
			rec.ScriptFreeURL = s.ScriptFreeURL(canonical)
		}
		if rec.DisplayURL == "" {
			rec.DisplayURL = displayURL(canonical)
		}
		out[i] = rec
	}
	return out
}

// SanitizeURL unwraps and strips one URL. The script-free variant is only
// computed when noJS is set.
func (s *Sanitizer) SanitizeURL(raw string, noJS bool) types.SanitizedURL {
	canonical := s.StripTracking(s.Unwrap(raw))
	out := types.SanitizedURL{Canonical: canonical}
	if noJS {
		out.ScriptFreeVariant = s.ScriptFreeURL(canonical)
	}
	return out
}

// Unwrap follows redirector wrappers to the embedded destination, however
// deeply nested. URLs that are not redirectors are returned unchanged.
func (s *Sanitizer) Unwrap(raw string) string {
	seen := map[string]struct{}{raw: {}}
	for {
		dest, ok := s.destination(raw)
		if !ok {
			return raw
		}
		if _, loop := seen[dest]; loop {
			slog.Debug("redirector chain loops", slog.String("url", raw))
			return dest
		}
		seen[dest] = struct{}{}
		raw = dest
	}
}

// Destination returns the URL a redirector points at, using the default
// redirector list.
func Destination(raw string) (string, bool) {
	return destination(DefaultRedirectors, raw)
}

func (s *Sanitizer) destination(raw string) (string, bool) {
	return destination(s.redirectors, raw)
}

func destination(redirectors []Redirector, raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	for _, r := range redirectors {
		if !r.matches(u) {
			continue
		}
		q := u.Query()
		for _, p := range r.Params {
			if dest := q.Get(p); isAbsoluteHTTP(dest) {
				return dest, true
			}
		}
	}
	return "", false
}

// StripTracking removes deny-listed query parameters. The remaining
// parameters keep their order and encoding. URLs with nothing to strip are
// returned byte-for-byte.
func (s *Sanitizer) StripTracking(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	parts := strings.Split(u.RawQuery, "&")
	kept := parts[:0:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, _, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if _, denied := s.deny[key]; denied {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == len(parts) {
		return raw
	}

	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	return u.String()
}

// ScriptFreeURL builds the script-free viewer link for a destination.
func (s *Sanitizer) ScriptFreeURL(dest string) string {
	sep := "?"
	if strings.Contains(s.endpoint, "?") {
		sep = "&"
	}
	return s.endpoint + sep + "location=" + url.QueryEscape(dest) + "&nojs=1"
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func displayURL(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" {
		return canonical
	}
	return strings.TrimSuffix(u.Host+u.EscapedPath(), "/")
}
