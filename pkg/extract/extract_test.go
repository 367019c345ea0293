package extract

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/quietsearch/pkg/types"
)

const searchURL = "https://www.google.com/search?q=coronavirus+updates&gbv=1"

func page(body string) *types.RawDocument {
	return &types.RawDocument{
		Kind:        types.KindSearchResults,
		Body:        []byte(body),
		ContentType: "text/html; charset=UTF-8",
		StatusCode:  200,
		URL:         searchURL,
	}
}

const basicPage = `<!doctype html>
<html><head><title>coronavirus updates</title><script>var tracking = 1;</script></head>
<body><div id="main">
<div class="ZINbbc"><div><a href="/url?q=https://example.com/a&amp;sa=U&amp;ved=2ah"><h3><div class="vvjwJb">Example A</div></h3><div class="UPmit">example.com › a</div></a></div><div class="s3v9rd">Snippet A text</div></div>
<div class="ZINbbc"><div><a href="/url?q=https://example.org/b"><span>no heading in this block</span></a></div></div>
<div class="ZINbbc"><div><a href="/url?q=https://example.net/c"><h3>Example C</h3></a></div><div class="s3v9rd">  Snippet
   C </div></div>
</div></body></html>`

func TestExtract_BasicPage(t *testing.T) {
	rs, err := Default().Extract(page(basicPage))
	require.NoError(t, err)
	require.Len(t, rs, 2)

	assert.Equal(t, types.ResultRecord{
		Title:      "Example A",
		Snippet:    "Snippet A text",
		TargetURL:  "/url?q=https://example.com/a&sa=U&ved=2ah",
		DisplayURL: "example.com › a",
		Rank:       0,
	}, rs[0])

	assert.Equal(t, "Example C", rs[1].Title)
	assert.Equal(t, "Snippet C", rs[1].Snippet)
	assert.Equal(t, "/url?q=https://example.net/c", rs[1].TargetURL)
	assert.Empty(t, rs[1].DisplayURL)
	assert.Equal(t, 1, rs[1].Rank)
}

func TestExtract_Deterministic(t *testing.T) {
	e := Default()
	first, err := e.Extract(page(basicPage))
	require.NoError(t, err)
	second, err := e.Extract(page(basicPage))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtract_FiltersNonOrganicBlocks(t *testing.T) {
	body := `<html><body>
<div class="g"><span>Ad</span><a href="https://ads.example/buy"><h3>Buy now</h3></a></div>
<div class="g"><a href="https://first.example/"><h3>First</h3></a></div>
<div class="g" data-text-ad="1"><a href="https://ads.example/more"><h3>Also an ad</h3></a></div>
<div class="g"><a href="/search?q=more&amp;tbm=isch"><h3>Images</h3></a></div>
<div class="g"><a href="/url?q=https://www.google.com/amp/s/news.example.com/story"><h3>AMP story</h3></a></div>
<div class="g"><a href="https://example-com.cdn.ampproject.org/c/s/example.com/amp-page?x=1"><h3>AMP cache</h3></a></div>
<div class="g"><a href="https://www.google.com/amp/"><h3>Broken AMP</h3></a></div>
<div class="g"><a href="https://x.cdn.ampproject.org/z/other"><h3>Unknown cache path</h3></a></div>
<div class="g"><a href="javascript:void(0)"><h3>Script link</h3></a></div>
<div class="g"><a href="#"><h3>Anchor only</h3></a></div>
<div class="g"><a href="https://last.example/page"><h3>Last</h3></a></div>
</body></html>`

	rs, err := Default().Extract(page(body))
	require.NoError(t, err)

	var titles, targets []string
	for i, r := range rs {
		assert.Equal(t, i, r.Rank, "ranks are dense")
		titles = append(titles, r.Title)
		targets = append(targets, r.TargetURL)
	}
	assert.Equal(t, []string{"First", "AMP story", "AMP cache", "Last"}, titles)
	assert.Equal(t, []string{
		"https://first.example/",
		"https://news.example.com/story",
		"https://example.com/amp-page?x=1",
		"https://last.example/page",
	}, targets)
}

func TestExtract_NestedBlocksUseOutermost(t *testing.T) {
	body := `<html><body>
<div class="g"><div class="g"><a href="https://inner.example/"><h3>Inner</h3></a><span class="st">inner snippet</span></div></div>
</body></html>`

	rs, err := Default().Extract(page(body))
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Inner", rs[0].Title)
	assert.Equal(t, "inner snippet", rs[0].Snippet)
}

func TestExtract_DuckDuckGoLayout(t *testing.T) {
	body := `<html><body>
<div class="result results_links">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fdocs">Example Docs</a></h2>
  <a class="result__snippet" href="#">Read the docs.</a>
  <a class="result__url" href="#">example.com/docs</a>
</div>
</body></html>`
	doc := page(body)
	doc.URL = "https://html.duckduckgo.com/html/?q=docs"

	rs, err := Default().Extract(doc)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Example Docs", rs[0].Title)
	assert.Equal(t, "Read the docs.", rs[0].Snippet)
	assert.Equal(t, "example.com/docs", rs[0].DisplayURL)
	assert.Equal(t, "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fdocs", rs[0].TargetURL)
}

func TestExtract_DeclaredCharset(t *testing.T) {
	doc := page("<html><body><div class=\"g\"><a href=\"https://cafe.example/\"><h3>Caf\xe9</h3></a></div></body></html>")
	doc.ContentType = "text/html; charset=ISO-8859-1"

	rs, err := Default().Extract(doc)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Café", rs[0].Title)
}

func TestExtract_NoResults(t *testing.T) {
	rs, err := Default().Extract(page(`<html><body><p>Your search did not match any documents.</p></body></html>`))
	require.NoError(t, err)
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}

func TestExtract_MalformedDocument(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		reason      string
	}{
		{"empty body", "", "text/html", "empty body"},
		{"whitespace body", " \n\t ", "text/html", "empty body"},
		{"binary", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR", "image/png", "binary payload"},
		{"json", `{"results": []}`, "application/json", "not a markup document"},
		{"plain text", "service temporarily unavailable", "text/plain", "not a markup document"},
		{"truncated", `<html><body><div class="g"><a href="https://a.example/"><h3>A</h3>`, "text/html", "truncated document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := page(tt.body)
			doc.ContentType = tt.contentType

			rs, err := Default().Extract(doc)
			require.Error(t, err)
			assert.Nil(t, rs)

			var malformedErr *MalformedDocumentError
			require.True(t, errors.As(err, &malformedErr))
			assert.Equal(t, tt.reason, malformedErr.Reason)
			assert.Equal(t, 200, malformedErr.StatusCode)
			assert.Equal(t, tt.contentType, malformedErr.ContentType)
		})
	}
}

func TestExtract_RejectsTargetPages(t *testing.T) {
	doc := page(basicPage)
	doc.Kind = types.KindTargetPage

	_, err := Default().Extract(doc)
	require.Error(t, err)

	var malformedErr *MalformedDocumentError
	assert.False(t, errors.As(err, &malformedErr))
}

func TestNew_InvalidRules(t *testing.T) {
	t.Run("missing blocks", func(t *testing.T) {
		r := DefaultRules()
		r.Blocks = nil
		_, err := New(r)
		assert.Error(t, err)
	})

	t.Run("bad selector", func(t *testing.T) {
		r := DefaultRules()
		r.Title = []string{"h3[", "h2"}
		_, err := New(r)
		assert.ErrorContains(t, err, "title selectors")
	})

	t.Run("bad xpath", func(t *testing.T) {
		r := DefaultRules()
		r.AdMarkers = []string{".//span[@"}
		_, err := New(r)
		assert.ErrorContains(t, err, "ad marker")
	})

	t.Run("bad title pattern", func(t *testing.T) {
		r := DefaultRules()
		r.BlockTitle = "(unclosed"
		_, err := New(r)
		assert.ErrorContains(t, err, "block_title")
	})

	t.Run("bad url pattern", func(t *testing.T) {
		r := DefaultRules()
		r.BlockURL = "[z-a]"
		_, err := New(r)
		assert.ErrorContains(t, err, "block_url")
	})
}

const blockListPage = `<html><body>
<div class="g"><a href="/url?q=https://www.pinterest.com/pin/1&amp;sa=U"><h3>Pinned recipes</h3></a></div>
<div class="g"><a href="https://recipes.example/soup"><h3>Tomato soup</h3></a></div>
<div class="g"><a href="https://www.google.com/amp/s/pinterest.de/amp/x"><h3>Mirrored pin</h3></a></div>
<div class="g"><a href="/url?q=https://shop.example/deal?ref=x"><h3>Soup bowls on sale</h3></a></div>
<div class="g"><a href="https://blog.example/soup"><h3>Sponsored: soup stories</h3></a></div>
<div class="g"><a href="https://notpinterest.com/soup"><h3>Lookalike host</h3></a></div>
</body></html>`

func TestExtract_BlockLists(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Rules)
		want []string
	}{
		{
			name: "no block lists",
			edit: func(*Rules) {},
			want: []string{"Pinned recipes", "Tomato soup", "Mirrored pin", "Soup bowls on sale", "Sponsored: soup stories", "Lookalike host"},
		},
		{
			name: "blocked sites match subdomains and unwrapped links",
			edit: func(r *Rules) { r.BlockedSites = []string{" Pinterest.* "} },
			want: []string{"Tomato soup", "Soup bowls on sale", "Sponsored: soup stories", "Lookalike host"},
		},
		{
			name: "title pattern",
			edit: func(r *Rules) { r.BlockTitle = `(?i)^sponsored|on sale` },
			want: []string{"Pinned recipes", "Tomato soup", "Mirrored pin", "Lookalike host"},
		},
		{
			name: "url pattern sees the unwrapped destination",
			edit: func(r *Rules) { r.BlockURL = `^https://shop\.example/` },
			want: []string{"Pinned recipes", "Tomato soup", "Mirrored pin", "Sponsored: soup stories", "Lookalike host"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			tt.edit(&r)
			e, err := New(r)
			require.NoError(t, err)

			rs, err := e.Extract(page(blockListPage))
			require.NoError(t, err)
			var titles []string
			for i, rec := range rs {
				assert.Equal(t, i, rec.Rank, "ranks are dense")
				titles = append(titles, rec.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestDeAMP(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		canonical string
		isAMP     bool
	}{
		{"google https", "https://www.google.com/amp/s/example.com/a", "https://example.com/a", true},
		{"google http", "https://www.google.co.uk/amp/example.com/a", "http://example.com/a", true},
		{"cache viewer", "https://example-com.cdn.ampproject.org/v/s/example.com/a?amp_js_v=0.1", "https://example.com/a?amp_js_v=0.1", true},
		{"cache without host", "https://example-com.cdn.ampproject.org/c/s/", "", true},
		{"not amp", "https://example.com/amp/s/other.com/a", "", false},
		{"plain page", "https://example.com/a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := mustParse(t, tt.in)
			canonical, isAMP := deAMP(u, []string{"google.*"})
			assert.Equal(t, tt.isAMP, isAMP)
			assert.Equal(t, tt.canonical, canonical)
		})
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
