package nojs

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/usestring/quietsearch/pkg/contenttype"
	"github.com/usestring/quietsearch/pkg/types"
)

// frameElements embed other documents or plugins.
var frameElements = map[atom.Atom]bool{
	atom.Iframe: true, atom.Frame: true, atom.Frameset: true,
	atom.Object: true, atom.Embed: true, atom.Applet: true,
}

// urlAttrs hold URLs that are absolutized and checked for script schemes.
var urlAttrs = map[string]bool{
	"href": true, "src": true, "action": true, "formaction": true,
	"poster": true, "background": true, "cite": true, "xlink:href": true,
}

var scriptSchemes = []string{"javascript:", "vbscript:"}

// Sanitize removes script-capable content from a fetched target page.
func (f *Fetcher) Sanitize(doc *types.RawDocument) (*types.SanitizedDocument, error) {
	if doc == nil {
		return nil, &TargetFetchError{Reason: "no document"}
	}
	if doc.Kind != types.KindTargetPage {
		return nil, fmt.Errorf("nojs: cannot handle %s documents", doc.Kind)
	}
	if contenttype.IsBinary(doc.ContentType, doc.Body) || !contenttype.IsMarkup(doc.ContentType, doc.Body) {
		return nil, &TargetFetchError{URL: doc.URL, Reason: fmt.Sprintf("not an html page (%s)", contenttype.MediaType(doc.ContentType))}
	}

	r, err := charset.NewReader(bytes.NewReader(doc.Body), doc.ContentType)
	if err != nil {
		return nil, &TargetFetchError{URL: doc.URL, Reason: "unsupported charset", Err: err}
	}
	// With scripting disabled the parser keeps <noscript> content as
	// markup, which is the fallback this page should show.
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, &TargetFetchError{URL: doc.URL, Reason: "parsing page", Err: err}
	}

	base, _ := url.Parse(doc.URL)
	w := &walker{base: base, links: f.links.SanitizeURL}
	w.clean(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, &TargetFetchError{URL: doc.URL, Reason: "rendering page", Err: err}
	}

	out := &types.SanitizedDocument{
		URL:      doc.URL,
		FinalURL: doc.URL,
		Body:     buf.String(),
		Removed:  w.removed,
	}
	out.Title, out.Description, out.SiteName = metadata(out.Body, root, base)
	return out, nil
}

type walker struct {
	base    *url.URL
	links   func(raw string, noJS bool) types.SanitizedURL
	removed types.RemovalStats
}

func (w *walker) clean(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && w.drop(c) {
			n.RemoveChild(c)
		} else {
			if c.Type == html.ElementNode {
				w.attrs(c)
			}
			w.clean(c)
		}
		c = next
	}
}

func (w *walker) drop(n *html.Node) bool {
	switch {
	case n.DataAtom == atom.Script || n.Data == "script":
		w.removed.Scripts++
		return true
	case frameElements[n.DataAtom]:
		w.removed.Frames++
		return true
	case n.DataAtom == atom.Base:
		return true
	case n.DataAtom == atom.Meta && isScriptRefresh(n):
		w.removed.ScriptLinks++
		return true
	}
	return false
}

func (w *walker) attrs(n *html.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if a.Namespace == "xlink" && key == "href" {
			key = "xlink:href"
		}
		switch {
		case strings.HasPrefix(key, "on"):
			w.removed.EventHandlers++
			continue
		case urlAttrs[key] && isScriptURL(a.Val):
			w.removed.ScriptLinks++
			continue
		case key == "srcset":
			a.Val = w.srcset(a.Val)
		case urlAttrs[key]:
			a.Val = w.absolute(a.Val)
			if key == "href" && n.DataAtom == atom.A {
				a.Val = w.anchor(a.Val)
			}
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// anchor sends http(s) links back through the script-free viewer.
func (w *walker) anchor(href string) string {
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return href
	}
	return w.links(href, true).ScriptFreeVariant
}

func (w *walker) absolute(raw string) string {
	raw = strings.TrimSpace(raw)
	if w.base == nil || raw == "" || strings.HasPrefix(raw, "#") {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return w.base.ResolveReference(ref).String()
}

func (w *walker) srcset(val string) string {
	candidates := strings.Split(val, ",")
	for i, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		fields[0] = w.absolute(fields[0])
		candidates[i] = strings.Join(fields, " ")
	}
	return strings.Join(candidates, ", ")
}

// isScriptURL reports whether a URL attribute would execute code. Browsers
// ignore ASCII whitespace and control characters inside the scheme.
func isScriptURL(val string) bool {
	var b strings.Builder
	for _, r := range val {
		if r <= ' ' {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= len("javascript:") {
			break
		}
	}
	s := strings.ToLower(b.String())
	for _, scheme := range scriptSchemes {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}

func isScriptRefresh(n *html.Node) bool {
	var equiv, content string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "http-equiv":
			equiv = strings.ToLower(strings.TrimSpace(a.Val))
		case "content":
			content = a.Val
		}
	}
	if equiv != "refresh" {
		return false
	}
	_, target, ok := strings.Cut(content, "=")
	return ok && isScriptURL(strings.Trim(strings.TrimSpace(target), `'"`))
}
