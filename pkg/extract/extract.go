// Package extract turns a provider result page into an ordered ResultSet.
//
// Matching is structural: result containers, titles, links and snippets are
// found by CSS selector lists (see Rules) rather than by position, so a
// block that no longer carries a title or link is skipped instead of failing
// the page. Advertisements, provider navigation and unrecoverable AMP mirrors
// are dropped, as are results caught by the configured site, title and URL
// block lists. Only a payload that is not a parsable markup document at all
// is an error.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/usestring/quietsearch/pkg/linksan"
	"github.com/usestring/quietsearch/pkg/types"
)

// Extractor parses result pages. It holds only compiled rules and is safe for
// concurrent use.
type Extractor struct {
	rules *compiled
}

// New compiles rules into an Extractor.
func New(rules Rules) (*Extractor, error) {
	c, err := rules.compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{rules: c}, nil
}

// Default returns an Extractor using DefaultRules.
func Default() *Extractor {
	e, err := New(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("extract: default rules do not compile: %v", err))
	}
	return e
}

// Extract parses a search result document. Ranks are assigned 0..n-1 in
// document order over the records that survive filtering.
func (e *Extractor) Extract(doc *types.RawDocument) (types.ResultSet, error) {
	if doc == nil {
		return nil, &MalformedDocumentError{Reason: "no document"}
	}
	if doc.Kind != types.KindSearchResults {
		return nil, fmt.Errorf("extract: cannot handle %s documents", doc.Kind)
	}
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	body, err := charset.NewReader(bytes.NewReader(doc.Body), doc.ContentType)
	if err != nil {
		return nil, malformed(doc, "unsupported charset: "+err.Error())
	}
	root, err := html.Parse(body)
	if err != nil {
		return nil, malformed(doc, "parse failed: "+err.Error())
	}
	page := goquery.NewDocumentFromNode(root)
	if e.rules.nonContent != nil {
		page.FindMatcher(e.rules.nonContent).Remove()
	}

	base, _ := url.Parse(doc.URL)

	rs := types.ResultSet{}
	for _, node := range outermost(page.FindMatcher(e.rules.blocks).Nodes) {
		if e.isAd(node) {
			continue
		}
		rec, ok := e.record(page.FindNodes(node), base)
		if !ok {
			continue
		}
		rec.Rank = len(rs)
		rs = append(rs, rec)
	}
	return rs, nil
}

// record builds a result from one block. ok is false when a required field
// is missing or the link is not an organic result.
func (e *Extractor) record(block *goquery.Selection, base *url.URL) (types.ResultRecord, bool) {
	title := firstMatch(block, e.rules.title)
	if title == nil || text(title) == "" {
		return types.ResultRecord{}, false
	}
	if e.rules.blockTitle != nil && e.rules.blockTitle.MatchString(text(title)) {
		return types.ResultRecord{}, false
	}

	href, ok := e.href(block, title)
	if !ok {
		return types.ResultRecord{}, false
	}
	target, ok := e.target(absolute(base, href))
	if !ok {
		return types.ResultRecord{}, false
	}

	rec := types.ResultRecord{
		Title:     text(title),
		TargetURL: target,
	}
	if s := firstMatch(block, e.rules.snippet); s != nil {
		rec.Snippet = text(s)
	}
	if d := firstMatch(block, e.rules.display); d != nil {
		rec.DisplayURL = text(d)
	}
	return rec, true
}

// href finds the result link: the anchor around the title, an anchor inside
// the title, or the first link selector match in the block.
func (e *Extractor) href(block, title *goquery.Selection) (string, bool) {
	candidates := []*goquery.Selection{
		title.ClosestMatcher(e.rules.anchor),
		title.FindMatcher(e.rules.anchor),
	}
	if link := firstMatch(block, e.rules.link); link != nil {
		candidates = append(candidates, link)
	}

	for _, c := range candidates {
		if c.Length() == 0 || !within(c.Nodes[0], block.Nodes[0]) {
			continue
		}
		href := strings.TrimSpace(c.First().AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			continue
		}
		return href, true
	}
	return "", false
}

// target decides what URL a result points at. Redirectors are kept for the
// link sanitizer, except when they wrap an AMP mirror, which is replaced by
// the canonical page. Links into the provider itself and blocked
// destinations are rejected.
func (e *Extractor) target(resolved string) (string, bool) {
	dest := resolved
	if d, ok := linksan.Destination(resolved); ok {
		dest = d
	}

	u, err := url.Parse(dest)
	if err != nil {
		return "", false
	}
	if canonical, isAMP := deAMP(u, e.rules.internal); isAMP {
		if canonical == "" || e.blocked(canonical) {
			return "", false
		}
		return canonical, true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if matchesHost(strings.ToLower(u.Hostname()), e.rules.internal) {
		return "", false
	}
	if e.blocked(dest) {
		return "", false
	}
	return resolved, true
}

// blocked reports whether a destination is excluded by the site or URL
// block lists.
func (e *Extractor) blocked(dest string) bool {
	if e.rules.blockURL != nil && e.rules.blockURL.MatchString(dest) {
		return true
	}
	if len(e.rules.blockedSites) == 0 {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return matchesHost(strings.ToLower(u.Hostname()), e.rules.blockedSites)
}

func (e *Extractor) isAd(block *html.Node) bool {
	for _, expr := range e.rules.adMarkers {
		if htmlquery.QuerySelector(block, expr) != nil {
			return true
		}
	}
	return false
}

func firstMatch(block *goquery.Selection, sels []cascadia.Selector) *goquery.Selection {
	for _, m := range sels {
		if s := block.FindMatcher(m).First(); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// text returns the element text with whitespace runs collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// absolute resolves href against the page URL. Host-less redirector links
// ("/url?q=...") stay relative so the link sanitizer unwraps them whichever
// host served the page.
func absolute(base *url.URL, href string) string {
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		if _, wrapped := linksan.Destination(href); wrapped {
			return href
		}
	}
	return resolve(base, href)
}

func resolve(base *url.URL, href string) string {
	if base == nil || base.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// outermost drops nodes nested inside another node of the list.
func outermost(nodes []*html.Node) []*html.Node {
	set := make(map[*html.Node]struct{}, len(nodes))
	for _, n := range nodes {
		set[n] = struct{}{}
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		nested := false
		for p := n.Parent; p != nil; p = p.Parent {
			if _, ok := set[p]; ok {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, n)
		}
	}
	return out
}

func within(n, ancestor *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
