package upstream

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
)

const suggestPath = "/complete/search"

// Suggest returns the provider's query completions for a prefix.
func (c *Client) Suggest(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}

	v := url.Values{}
	v.Set("client", "toolbar")
	v.Set("q", prefix)

	resp, err := c.get(ctx, c.baseURL+suggestPath+"?"+v.Encode(), "text/xml,application/xml")
	if err != nil {
		return nil, err
	}
	return parseSuggestions(resp.body)
}

// parseSuggestions reads the toolbar XML format:
//
//	<toplevel><CompleteSuggestion><suggestion data="..."/></CompleteSuggestion></toplevel>
func parseSuggestions(body []byte) ([]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, "//CompleteSuggestion/suggestion")
	if err != nil {
		return nil, fmt.Errorf("querying suggestions: %w", err)
	}

	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := strings.TrimSpace(n.SelectAttr("data")); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
