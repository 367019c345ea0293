package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
)

// Rules describe how result blocks are recognized. Each field list is tried
// in order and the first selector that yields a value wins, so newer markup
// variants can be prepended without dropping older ones.
type Rules struct {
	// Blocks are CSS selectors for result containers. Only the outermost
	// match is used when containers nest.
	Blocks []string `yaml:"blocks" json:"blocks"`
	// Title, Link, Snippet and Display are CSS selectors evaluated inside a block.
	Title   []string `yaml:"title" json:"title"`
	Link    []string `yaml:"link" json:"link"`
	Snippet []string `yaml:"snippet" json:"snippet"`
	Display []string `yaml:"display" json:"display"`
	// AdMarkers are XPath expressions evaluated with the block as context
	// node. Any match marks the block as an advertisement.
	AdMarkers []string `yaml:"ad_markers" json:"ad_markers"`
	// NonContent are CSS selectors removed from the document before matching.
	NonContent []string `yaml:"non_content" json:"non_content"`
	// InternalHosts are provider hosts (linksan.HostMatches patterns) whose
	// links are navigation rather than results.
	InternalHosts []string `yaml:"internal_hosts" json:"internal_hosts"`

	// BlockedSites are hosts (linksan.HostMatches patterns) whose results
	// are dropped.
	BlockedSites []string `yaml:"blocked_sites" json:"blocked_sites"`
	// BlockTitle drops results whose title matches this regular expression.
	BlockTitle string `yaml:"block_title" json:"block_title"`
	// BlockURL drops results whose destination URL matches this regular
	// expression. Redirector wrappers are unwrapped before matching.
	BlockURL string `yaml:"block_url" json:"block_url"`
}

// adLabels are the visible badges providers put on sponsored results.
var adLabels = []string{
	"Ad", "Ads", "Sponsored", "Sponsored result", "Anzeige", "Annonce",
	"Anuncio", "Annuncio", "Advertentie", "Reklama", "Publicidad",
}

// DefaultRules match the provider's basic-HTML result page and the common
// layouts of other engines.
func DefaultRules() Rules {
	labels := make([]string, len(adLabels))
	for i, l := range adLabels {
		labels[i] = fmt.Sprintf("normalize-space(.)='%s'", l)
	}

	return Rules{
		Blocks:  []string{"div.g", "div.ZINbbc", "div.xpd", "li.b_algo", "div.result"},
		Title:   []string{"h3", "h2", "a.result__a", "div.vvjwJb"},
		Link:    []string{"a[href]"},
		Snippet: []string{"div.s3v9rd", ".VwiC3b", ".IsZvec", ".result__snippet", ".b_caption p", "span.st"},
		Display: []string{"cite", "div.UPmit", ".result__url", ".b_attribution"},
		AdMarkers: []string{
			".//span[" + strings.Join(labels, " or ") + "]",
			"./descendant-or-self::*[@data-text-ad]",
			"./descendant-or-self::*[@aria-label='Ads' or @aria-label='Sponsored']",
			"./descendant-or-self::*[contains(concat(' ', normalize-space(@class), ' '), ' result--ad ')]",
		},
		NonContent: []string{
			"script", "style", "noscript", "template",
			"img[width='1'][height='1']", "img[width='0']", "img[height='0']",
		},
		InternalHosts: []string{"google.*"},
	}
}

// compiled is the ready-to-run form of Rules.
type compiled struct {
	blocks     cascadia.Selector
	title      []cascadia.Selector
	link       []cascadia.Selector
	snippet    []cascadia.Selector
	display    []cascadia.Selector
	adMarkers  []*xpath.Expr
	nonContent cascadia.Selector
	internal   []string
	anchor     cascadia.Selector

	blockedSites []string
	blockTitle   *regexp.Regexp
	blockURL     *regexp.Regexp
}

func (r Rules) compile() (*compiled, error) {
	if len(r.Blocks) == 0 || len(r.Title) == 0 || len(r.Link) == 0 {
		return nil, fmt.Errorf("rules need at least one block, title and link selector")
	}

	c := &compiled{internal: r.InternalHosts}
	var err error

	if c.blocks, err = compileGroup(r.Blocks); err != nil {
		return nil, fmt.Errorf("block selectors: %w", err)
	}
	if c.title, err = compileEach(r.Title); err != nil {
		return nil, fmt.Errorf("title selectors: %w", err)
	}
	if c.link, err = compileEach(r.Link); err != nil {
		return nil, fmt.Errorf("link selectors: %w", err)
	}
	if c.snippet, err = compileEach(r.Snippet); err != nil {
		return nil, fmt.Errorf("snippet selectors: %w", err)
	}
	if c.display, err = compileEach(r.Display); err != nil {
		return nil, fmt.Errorf("display selectors: %w", err)
	}
	if len(r.NonContent) > 0 {
		if c.nonContent, err = compileGroup(r.NonContent); err != nil {
			return nil, fmt.Errorf("non-content selectors: %w", err)
		}
	}
	for _, expr := range r.AdMarkers {
		e, err := xpath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("ad marker %q: %w", expr, err)
		}
		c.adMarkers = append(c.adMarkers, e)
	}
	for _, site := range r.BlockedSites {
		if site = strings.ToLower(strings.TrimSpace(site)); site != "" {
			c.blockedSites = append(c.blockedSites, site)
		}
	}
	if r.BlockTitle != "" {
		if c.blockTitle, err = regexp.Compile(r.BlockTitle); err != nil {
			return nil, fmt.Errorf("block_title: %w", err)
		}
	}
	if r.BlockURL != "" {
		if c.blockURL, err = regexp.Compile(r.BlockURL); err != nil {
			return nil, fmt.Errorf("block_url: %w", err)
		}
	}
	c.anchor = cascadia.MustCompile("a[href]")
	return c, nil
}

func compileGroup(sels []string) (cascadia.Selector, error) {
	return cascadia.Compile(strings.Join(sels, ", "))
}

func compileEach(sels []string) ([]cascadia.Selector, error) {
	out := make([]cascadia.Selector, 0, len(sels))
	for _, s := range sels {
		m, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out = append(out, m)
	}
	return out, nil
}
