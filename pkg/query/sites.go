package query

import "strings"

// ExcludeSites appends a "-site:" operator for each blocked host the query
// does not already exclude. Wildcard patterns such as "pinterest.*" cannot
// be expressed as an operator and are left to result filtering.
func ExcludeSites(q string, sites []string) string {
	present := map[string]bool{}
	for _, tok := range strings.Fields(q) {
		if host, ok := strings.CutPrefix(strings.ToLower(tok), "-site:"); ok {
			present[host] = true
		}
	}

	var b strings.Builder
	b.WriteString(q)
	for _, site := range sites {
		site = strings.ToLower(strings.TrimSpace(site))
		if site == "" || strings.ContainsAny(site, "* ") || present[site] {
			continue
		}
		present[site] = true
		b.WriteString(" -site:")
		b.WriteString(site)
	}
	return b.String()
}
