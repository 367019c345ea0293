package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/quietsearch/internal/cache"
	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/extract"
	"github.com/usestring/quietsearch/pkg/nojs"
	"github.com/usestring/quietsearch/pkg/upstream"
)

const resultsTemplate = `<!doctype html>
<html><head><title>results</title></head><body><div id="main">
<div class="ZINbbc"><div><a href="/url?q=%s/article&amp;sa=U"><h3>Local article</h3></a></div><div class="s3v9rd">An article served by the test server</div></div>
<div class="ZINbbc"><span>Ad</span><div><a href="/url?q=https://ads.example.com/"><h3>Sponsored</h3></a></div></div>
</div></body></html>`

const articlePage = `<!doctype html>
<html><head><title>Article</title></head><body>
<h1>Hello</h1><script>alert(1)</script><p onclick="track()">Body text</p>
</body></html>`

const suggestionsXML = `<toplevel>
<CompleteSuggestion><suggestion data="privacy tools list"/></CompleteSuggestion>
</toplevel>`

type handlers struct {
	search  http.HandlerFunc
	suggest http.HandlerFunc
}

func newDeps(t *testing.T, h handlers) *Deps {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if h.search != nil {
			h.search(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, resultsTemplate, srv.URL)
	})
	mux.HandleFunc("/complete/search", func(w http.ResponseWriter, r *http.Request) {
		if h.suggest != nil {
			h.suggest(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(suggestionsXML))
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	searches, err := cache.NewSearchCache(8)
	require.NoError(t, err)

	engine := pipeline.New(
		pipeline.WithUpstream(upstream.New(upstream.WithBaseURL(srv.URL))),
		pipeline.WithPageFetcher(nojs.New(nojs.WithAllowPrivate(true))),
	)
	return &Deps{
		Config: &config.Config{DefaultSuggestLimit: 5},
		Engine: engine,
		Cache:  searches,
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "expected CodedError, got %v", err)
	assert.Equal(t, code, coded.Code)
}

func TestToolSearch_ThenView(t *testing.T) {
	d := newDeps(t, handlers{})
	ctx := context.Background()

	_, out, err := ToolSearch(d)(ctx, nil, SearchInput{Query: "privacy tools", IncludeSuggestions: true})
	require.NoError(t, err)

	require.Len(t, out.Results, 1)
	assert.Equal(t, "Local article", out.Results[0].Title)
	assert.Equal(t, []string{"privacy tools list"}, out.Suggestions)
	require.NotEmpty(t, out.SearchID)
	require.NotNil(t, out.Resource)
	assert.Equal(t, SearchResourceURI(out.SearchID), out.Resource.URI)
	assert.Contains(t, out.Hint, out.SearchID)
	assert.Equal(t, 1, d.Cache.Len())

	rank := 0
	_, view, err := ToolViewScriptFree(d)(ctx, nil, ViewInput{SearchID: out.SearchID, Rank: &rank})
	require.NoError(t, err)
	assert.Equal(t, "Article", view.Page.Title)
	assert.Equal(t, 1, view.Page.Removed.Scripts)
	assert.Equal(t, 1, view.Page.Removed.EventHandlers)
	assert.NotContains(t, view.Page.Body, "<script")
	assert.NotContains(t, view.Page.Body, "onclick")
	assert.False(t, view.Truncated)

	missing := 3
	_, _, err = ToolViewScriptFree(d)(ctx, nil, ViewInput{SearchID: out.SearchID, Rank: &missing})
	requireCode(t, err, ErrCodeNotFound)

	_, _, err = ToolViewScriptFree(d)(ctx, nil, ViewInput{SearchID: "unknown", Rank: &rank})
	requireCode(t, err, ErrCodeNotFound)
}

func TestToolSearch_Filters(t *testing.T) {
	var got string
	d := newDeps(t, handlers{search: func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div id="main"></div></body></html>`))
	}})

	noJS, safe := true, true
	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{
		Query:   "election results",
		Filters: &FilterInput{Region: "countryAT", Language: "lang_de", TimeRange: "Year", NoJS: &noJS, SafeSearch: &safe},
		Start:   10,
	})
	require.NoError(t, err)

	assert.Empty(t, out.Results)
	assert.Equal(t, "AT", out.Filters.Region)
	assert.Equal(t, "de", out.Filters.Language)
	assert.True(t, out.Filters.NoJS)
	assert.True(t, out.Filters.SafeSearch)
	assert.False(t, out.Filters.SiteAlternatives)
	assert.Contains(t, out.Hint, "No organic results")
	assert.Contains(t, got, "cr=countryAT")
	assert.Contains(t, got, "tbs=qdr%3Ay")
	assert.Contains(t, got, "start=10")
	assert.Contains(t, got, "safe=active")
}

func TestToolSearch_SuggestionFailureIgnored(t *testing.T) {
	d := newDeps(t, handlers{suggest: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}})

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "privacy tools", IncludeSuggestions: true})
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
	assert.Empty(t, out.Suggestions)
}

func TestToolSearch_Errors(t *testing.T) {
	tests := []struct {
		name  string
		h     handlers
		input SearchInput
		code  string
	}{
		{
			name:  "empty query",
			input: SearchInput{Query: "   "},
			code:  ErrCodeInvalidInput,
		},
		{
			name:  "directive only",
			input: SearchInput{Query: ":past day"},
			code:  ErrCodeInvalidInput,
		},
		{
			name:  "bad region",
			input: SearchInput{Query: "q", Filters: &FilterInput{Region: "nowhere"}},
			code:  ErrCodeInvalidInput,
		},
		{
			name:  "bad time range",
			input: SearchInput{Query: "q", Filters: &FilterInput{TimeRange: "week"}},
			code:  ErrCodeInvalidInput,
		},
		{
			name:  "negative start",
			input: SearchInput{Query: "q", Start: -10},
			code:  ErrCodeInvalidInput,
		},
		{
			name: "rate limited",
			h: handlers{search: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			}},
			input: SearchInput{Query: "q"},
			code:  ErrCodeUpstreamBlocked,
		},
		{
			name: "not a result page",
			h: handlers{search: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"results": []}`))
			}},
			input: SearchInput{Query: "q"},
			code:  ErrCodeResultsUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps(t, tt.h)
			_, _, err := ToolSearch(d)(context.Background(), nil, tt.input)
			requireCode(t, err, tt.code)
			assert.Zero(t, d.Cache.Len())
		})
	}
}

func TestToolViewScriptFree_Input(t *testing.T) {
	d := newDeps(t, handlers{})
	rank := 0

	tests := []struct {
		name  string
		input ViewInput
		code  string
	}{
		{"nothing", ViewInput{}, ErrCodeInvalidInput},
		{"both", ViewInput{URL: "https://example.com", SearchID: "x", Rank: &rank}, ErrCodeInvalidInput},
		{"search without rank", ViewInput{SearchID: "x"}, ErrCodeInvalidInput},
		{"relative url", ViewInput{URL: "/article"}, ErrCodeInvalidInput},
		{"script url", ViewInput{URL: "javascript:alert(1)"}, ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ToolViewScriptFree(d)(context.Background(), nil, tt.input)
			requireCode(t, err, tt.code)
		})
	}
}

func TestToolViewScriptFree_Truncates(t *testing.T) {
	d := newDeps(t, handlers{})

	_, out, err := ToolSearch(d)(context.Background(), nil, SearchInput{Query: "privacy tools"})
	require.NoError(t, err)

	_, view, err := ToolViewScriptFree(d)(context.Background(), nil, ViewInput{URL: out.Results[0].TargetURL, MaxBodyChars: 12})
	require.NoError(t, err)
	assert.True(t, view.Truncated)
	assert.Equal(t, 12, utf8.RuneCountInString(view.Page.Body))
	assert.Contains(t, view.Hint, "max_body_chars")
}

func TestToolSuggest(t *testing.T) {
	d := newDeps(t, handlers{})

	_, out, err := ToolSuggest(d)(context.Background(), nil, SuggestInput{Query: "privacy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"privacy tools list"}, out.Suggestions)

	_, _, err = ToolSuggest(d)(context.Background(), nil, SuggestInput{Query: ""})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestWrapPipelineError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"timeout", &pipeline.Error{Stage: pipeline.StageNormalized, Kind: pipeline.KindUpstream, Err: &upstream.TimeoutError{}}, ErrCodeUpstreamTimeout},
		{"unreachable", &pipeline.Error{Stage: pipeline.StageNormalized, Kind: pipeline.KindUpstream, Err: &upstream.UnreachableError{Err: errors.New("refused")}}, ErrCodeUpstreamUnreachable},
		{"blocked", &upstream.BlockedError{StatusCode: 200, Reason: "captcha"}, ErrCodeUpstreamBlocked},
		{"malformed", &pipeline.Error{Stage: pipeline.StageFetched, Kind: pipeline.KindParse, Err: &extract.MalformedDocumentError{Reason: "empty body"}}, ErrCodeResultsUnavailable},
		{"target fetch", &nojs.TargetFetchError{URL: "https://example.com", Reason: "request failed"}, ErrCodeTargetFetchFailed},
		{"target blocked", &nojs.TargetBlockedError{URL: "https://example.com", StatusCode: 403}, ErrCodeTargetBlocked},
		{"canceled", &pipeline.Error{Stage: pipeline.StageNormalized, Kind: pipeline.KindCanceled, Err: context.Canceled}, ErrCodeCanceled},
		{"unknown", errors.New("boom"), ErrCodeInternal},
		{"already coded", ErrNotFound("search", "x"), ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireCode(t, WrapPipelineError(tt.err), tt.code)
		})
	}

	assert.NoError(t, WrapPipelineError(nil))
}

func TestFilterInput_NilSelectsNothing(t *testing.T) {
	var in *FilterInput
	sel, err := in.Selection()
	require.NoError(t, err)
	assert.Nil(t, sel.Region)
	assert.Nil(t, sel.TimeRange)
}
