package nojs

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"golang.org/x/net/html"
)

// metadata reads title, description and site name from OpenGraph tags,
// falling back to the document head and finally the host name.
func metadata(body string, root *html.Node, base *url.URL) (title, description, siteName string) {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(body)); err != nil {
		slog.Debug("opengraph parse failed", slog.String("error", err.Error()))
	}
	title, description, siteName = clean(og.Title), clean(og.Description), clean(og.SiteName)

	if title == "" || description == "" {
		doc := goquery.NewDocumentFromNode(root)
		if title == "" {
			title = clean(doc.Find("head title").First().Text())
		}
		if title == "" {
			title = clean(doc.Find("h1").First().Text())
		}
		if description == "" {
			if desc, ok := doc.Find("meta[name='description']").First().Attr("content"); ok {
				description = clean(desc)
			}
		}
	}

	if siteName == "" && base != nil {
		siteName = strings.TrimPrefix(base.Hostname(), "www.")
	}
	return title, description, siteName
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
