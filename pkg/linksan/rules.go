package linksan

import (
	"net/url"
	"strings"
)

// DefaultTrackingParams are query keys removed from destinations.
var DefaultTrackingParams = []string{
	// campaign tags
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"utm_id", "utm_name", "utm_reader", "utm_referrer", "utm_social", "utm_brand",
	"mkt_tok", "mc_cid", "mc_eid", "_hsenc", "_hsmi",
	// click ids
	"click_id", "clickid", "gclid", "gclsrc", "dclid", "fbclid", "msclkid",
	"yclid", "twclid", "ttclid", "li_fat_id", "igshid", "srsltid",
	// referrer tags
	"ref_src", "ref_url", "referrer",
	// analytics and session tokens
	"_ga", "_gl", "sessionid", "session_id", "PHPSESSID", "jsessionid",
	// provider redirect leftovers
	"ved", "usg",
}

// Redirector describes a wrapper URL that carries its destination as a
// query parameter.
type Redirector struct {
	// Hosts lists the wrapper hosts. A trailing ".*" matches any public
	// suffix ("google.*" matches www.google.co.uk). Subdomains match.
	Hosts []string
	// Path is the wrapper path, matched exactly.
	Path string
	// Params are tried in order for the destination.
	Params []string
	// AllowRelative accepts host-less wrappers such as "/url?q=...".
	AllowRelative bool
}

// DefaultRedirectors covers the providers quietsearch talks to.
var DefaultRedirectors = []Redirector{
	{Hosts: []string{"google.*"}, Path: "/url", Params: []string{"q", "url"}, AllowRelative: true},
	{Hosts: []string{"duckduckgo.com"}, Path: "/l/", Params: []string{"uddg"}},
}

func (r Redirector) matches(u *url.URL) bool {
	if u.Path != r.Path {
		return false
	}
	if u.Host == "" {
		return r.AllowRelative && u.Scheme == ""
	}
	host := strings.ToLower(u.Hostname())
	for _, pattern := range r.Hosts {
		if HostMatches(host, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// HostMatches reports whether host is pattern or one of its subdomains.
func HostMatches(host, pattern string) bool {
	base, anySuffix := strings.CutSuffix(pattern, ".*")
	if !anySuffix {
		return host == pattern || strings.HasSuffix(host, "."+pattern)
	}

	for i := 0; i <= len(host)-len(base); i++ {
		if i > 0 && host[i-1] != '.' {
			continue
		}
		rest, ok := strings.CutPrefix(host[i:], base+".")
		if ok && isPublicSuffix(rest) {
			return true
		}
	}
	return false
}

// isPublicSuffix accepts one or two alphabetic labels ("com", "co.uk").
func isPublicSuffix(s string) bool {
	labels := strings.Split(s, ".")
	if len(labels) > 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
		for _, c := range l {
			if c < 'a' || c > 'z' {
				return false
			}
		}
	}
	return true
}
