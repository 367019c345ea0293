package linksan

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
)

// DefaultSiteAlternatives maps popular sites to front ends that serve the
// same content without their tracking. Keys are HostMatches patterns and
// values are the replacement root; a value without a scheme is https.
var DefaultSiteAlternatives = map[string]string{
	"twitter.com":   "farside.link/nitter",
	"x.com":         "farside.link/nitter",
	"youtube.com":   "farside.link/invidious",
	"instagram.com": "farside.link/bibliogram/u",
	"reddit.com":    "farside.link/libreddit",
	"medium.com":    "farside.link/scribe",
	"imgur.com":     "farside.link/rimgo",
	"wikipedia.org": "farside.link/wikiless",
	"imdb.com":      "farside.link/libremdb",
	"quora.com":     "farside.link/quetre",
}

type alternative struct {
	pattern string
	root    *url.URL
}

// compileAlternatives orders entries longest pattern first so that
// "old.reddit.com" wins over "reddit.com". Unparsable roots are skipped.
func compileAlternatives(m map[string]string) []alternative {
	out := make([]alternative, 0, len(m))
	for pattern, root := range m {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		root = strings.TrimSpace(root)
		if pattern == "" || root == "" {
			continue
		}
		if !strings.Contains(root, "://") {
			root = "https://" + root
		}
		u, err := url.Parse(root)
		if err != nil || u.Host == "" {
			continue
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
		out = append(out, alternative{pattern: pattern, root: u})
	}
	slices.SortFunc(out, func(a, b alternative) int {
		if c := cmp.Compare(len(b.pattern), len(a.pattern)); c != 0 {
			return c
		}
		return strings.Compare(a.pattern, b.pattern)
	})
	return out
}

// Alternative rewrites a destination onto its configured front end, keeping
// path, query and fragment. ok is false when no entry matches. URLs already
// on a front end host are left alone so the rewrite is idempotent.
func (s *Sanitizer) Alternative(dest string) (string, bool) {
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return dest, false
	}
	host := strings.ToLower(u.Hostname())
	for _, alt := range s.alternatives {
		if strings.EqualFold(host, alt.root.Hostname()) {
			return dest, false
		}
	}
	for _, alt := range s.alternatives {
		if !HostMatches(host, alt.pattern) {
			continue
		}
		out := *alt.root
		out.Path = alt.root.Path + u.Path
		out.RawPath = ""
		if u.RawPath != "" {
			out.RawPath = alt.root.EscapedPath() + u.RawPath
		}
		out.RawQuery = u.RawQuery
		out.Fragment = u.Fragment
		out.RawFragment = u.RawFragment
		return out.String(), true
	}
	return dest, false
}
