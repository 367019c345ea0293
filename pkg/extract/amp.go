package extract

import (
	"net/url"
	"strings"

	"github.com/usestring/quietsearch/pkg/linksan"
)

const ampCacheHost = "cdn.ampproject.org"

// deAMP recognizes provider-hosted AMP mirrors and returns the page they
// mirror. isAMP is true for any mirror URL; canonical is empty when the
// mirrored page cannot be recovered from the URL.
//
//	https://www.google.com/amp/s/example.com/a      -> https://example.com/a
//	https://example-com.cdn.ampproject.org/c/s/example.com/a -> https://example.com/a
func deAMP(u *url.URL, providerHosts []string) (canonical string, isAMP bool) {
	host := strings.ToLower(u.Hostname())

	var rest string
	switch {
	case host == ampCacheHost || strings.HasSuffix(host, "."+ampCacheHost):
		// /c/, /v/ and /i/ select the cache's content type.
		p := strings.TrimPrefix(u.EscapedPath(), "/")
		kind, tail, _ := strings.Cut(p, "/")
		if kind != "c" && kind != "v" && kind != "i" {
			return "", true
		}
		rest = tail
	case matchesHost(host, providerHosts) && strings.HasPrefix(u.EscapedPath(), "/amp/"):
		rest = strings.TrimPrefix(u.EscapedPath(), "/amp/")
	default:
		return "", false
	}

	scheme := "http"
	if after, ok := strings.CutPrefix(rest, "s/"); ok {
		scheme, rest = "https", after
	}

	mirrored, err := url.Parse(scheme + "://" + rest)
	if err != nil || !strings.Contains(mirrored.Hostname(), ".") {
		return "", true
	}
	mirrored.RawQuery = u.RawQuery
	return mirrored.String(), true
}

func matchesHost(host string, patterns []string) bool {
	for _, p := range patterns {
		if linksan.HostMatches(host, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
