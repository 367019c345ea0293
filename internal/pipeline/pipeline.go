// Package pipeline runs a request through normalization, upstream fetch,
// extraction and link sanitizing, and follows result links through the
// script-free fetcher on demand.
//
// Each request moves through the stages
//
//	received -> normalized -> fetched -> extracted -> sanitized -> complete
//
// and ends in failed when any step returns an error. Nothing is retried.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/usestring/quietsearch/pkg/extract"
	"github.com/usestring/quietsearch/pkg/linksan"
	"github.com/usestring/quietsearch/pkg/nojs"
	"github.com/usestring/quietsearch/pkg/query"
	"github.com/usestring/quietsearch/pkg/types"
	"github.com/usestring/quietsearch/pkg/upstream"
)

// SearchFetcher retrieves result pages and completions from the provider.
type SearchFetcher interface {
	Fetch(ctx context.Context, query string, f types.FilterSet, p upstream.Page) (*types.RawDocument, error)
	Suggest(ctx context.Context, prefix string) ([]string, error)
}

// PageFetcher retrieves and sanitizes followed result links.
type PageFetcher interface {
	Fetch(ctx context.Context, target string) (*types.SanitizedDocument, error)
	Sanitize(doc *types.RawDocument) (*types.SanitizedDocument, error)
}

// SearchResult is a completed search.
type SearchResult struct {
	Query   string          `json:"query"`
	Filters types.FilterSet `json:"filters"`
	Page    upstream.Page   `json:"page"`
	Results types.ResultSet `json:"results"`
	// Redirect is set instead of Results when the query was a bang.
	Redirect string `json:"redirect,omitempty"`
}

// Output is what Process produces for one document.
type Output struct {
	Results types.ResultSet
	Page    *types.SanitizedDocument
}

// Engine wires the components together. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	defaults  types.FilterSet
	upstream  SearchFetcher
	extractor *extract.Extractor
	links     *linksan.Sanitizer
	pages     PageFetcher
	bangs     *query.Bangs
	// excluded hosts are added to upstream queries as -site: operators
	excluded []string
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithDefaults sets the filters used when the caller selects none.
func WithDefaults(f types.FilterSet) Option {
	return func(e *Engine) {
		e.defaults = f
	}
}

// WithUpstream sets the result page fetcher.
func WithUpstream(f SearchFetcher) Option {
	return func(e *Engine) {
		e.upstream = f
	}
}

// WithExtractor sets the result extractor.
func WithExtractor(x *extract.Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithLinkSanitizer sets the link sanitizer.
func WithLinkSanitizer(s *linksan.Sanitizer) Option {
	return func(e *Engine) {
		e.links = s
	}
}

// WithPageFetcher sets the script-free page fetcher.
func WithPageFetcher(p PageFetcher) Option {
	return func(e *Engine) {
		e.pages = p
	}
}

// WithBangs enables bang shortcuts.
func WithBangs(b *query.Bangs) Option {
	return func(e *Engine) {
		e.bangs = b
	}
}

// WithExcludedSites asks the provider to leave out results from the given
// hosts. The caller-visible query is not changed.
func WithExcludedSites(sites []string) Option {
	return func(e *Engine) {
		e.excluded = sites
	}
}

// New creates an Engine. Components not supplied get their defaults.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.upstream == nil {
		e.upstream = upstream.New()
	}
	if e.extractor == nil {
		e.extractor = extract.Default()
	}
	if e.links == nil {
		e.links = linksan.New(linksan.Options{})
	}
	if e.pages == nil {
		e.pages = nojs.New()
	}
	return e
}

// Defaults returns the configured default filters.
func (e *Engine) Defaults() types.FilterSet {
	return e.defaults
}

// Search runs a query through the full pipeline.
func (e *Engine) Search(ctx context.Context, raw string, sel types.FilterSelection, page upstream.Page) (*SearchResult, error) {
	t := newTrace("search")

	if dest, ok := e.bangs.Resolve(raw); ok {
		t.enter(StageComplete, slog.String("redirect_host", hostOf(dest)))
		return &SearchResult{Query: strings.TrimSpace(raw), Filters: types.Merge(e.defaults, sel, types.FilterOverlay{}), Redirect: dest}, nil
	}

	n, err := query.Normalize(raw)
	if err != nil {
		return nil, t.fail(KindInput, err)
	}
	filters := types.Merge(e.defaults, sel, n.Overlay)
	t.enter(StageNormalized, slog.String("time_range", string(filters.TimeRange)))

	doc, err := e.upstream.Fetch(ctx, query.ExcludeSites(n.Query, e.excluded), filters, page)
	if err != nil {
		return nil, t.fail(classify(err), err)
	}
	t.enter(StageFetched, slog.Int("bytes", len(doc.Body)))

	rs, err := e.extract(doc)
	if err != nil {
		return nil, t.fail(classify(err), err)
	}
	t.enter(StageExtracted, slog.Int("results", len(rs)))

	rs = e.links.Sanitize(rs, filters)
	t.enter(StageSanitized)
	t.enter(StageComplete)

	return &SearchResult{Query: n.Query, Filters: filters, Page: page, Results: rs}, nil
}

// View fetches a followed result link with scripts removed.
func (e *Engine) View(ctx context.Context, rawURL string) (*types.SanitizedDocument, error) {
	t := newTrace("view")

	target := e.links.Unwrap(strings.TrimSpace(rawURL))
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, t.fail(KindInput, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL))
	}
	t.enter(StageNormalized)

	doc, err := e.pages.Fetch(ctx, target)
	if err != nil {
		return nil, t.fail(classify(err), err)
	}
	t.enter(StageSanitized, slog.Int("scripts_removed", doc.Removed.Scripts))
	t.enter(StageComplete)
	return doc, nil
}

// Suggest returns completions for a partial query. A prefix that starts a
// bang ("!w") is completed from the bang table without contacting the
// provider.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	t := newTrace("suggest")

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, t.fail(KindInput, query.ErrEmptyQuery)
	}
	if len(prefix) > 1 && strings.HasPrefix(prefix, "!") {
		t.enter(StageComplete)
		return e.bangs.Suggest(prefix, limit), nil
	}

	out, err := e.upstream.Suggest(ctx, prefix)
	if err != nil {
		return nil, t.fail(classify(err), err)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	t.enter(StageComplete)
	return out, nil
}

// Process routes a fetched document by kind: result pages are extracted and
// their links sanitized, target pages are stripped of scripts.
func (e *Engine) Process(doc *types.RawDocument, f types.FilterSet) (Output, error) {
	t := newTrace("process")
	t.enter(StageFetched)

	switch doc.Kind {
	case types.KindSearchResults:
		rs, err := e.extract(doc)
		if err != nil {
			return Output{}, t.fail(classify(err), err)
		}
		t.enter(StageExtracted, slog.Int("results", len(rs)))
		rs = e.links.Sanitize(rs, f)
		t.enter(StageSanitized)
		t.enter(StageComplete)
		return Output{Results: rs}, nil
	case types.KindTargetPage:
		page, err := e.pages.Sanitize(doc)
		if err != nil {
			return Output{}, t.fail(classify(err), err)
		}
		t.enter(StageSanitized)
		t.enter(StageComplete)
		return Output{Page: page}, nil
	default:
		return Output{}, t.fail(KindInternal, fmt.Errorf("unknown document kind %s", doc.Kind))
	}
}

func (e *Engine) extract(doc *types.RawDocument) (types.ResultSet, error) {
	rs, err := e.extractor.Extract(doc)
	if err != nil {
		slog.Warn("results unavailable",
			slog.Int("status", doc.StatusCode),
			slog.String("content_type", doc.ContentType),
			slog.Int("bytes", len(doc.Body)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return rs, nil
}

// trace follows one request through its stages.
type trace struct {
	op    string
	stage Stage
	start time.Time
}

func newTrace(op string) *trace {
	t := &trace{op: op, stage: StageReceived, start: time.Now()}
	slog.Debug("pipeline stage", slog.String("op", op), slog.String("stage", string(StageReceived)))
	return t
}

func (t *trace) enter(s Stage, attrs ...slog.Attr) {
	t.stage = s
	args := []any{
		slog.String("op", t.op),
		slog.String("stage", string(s)),
		slog.Int64("elapsed_ms", time.Since(t.start).Milliseconds()),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	slog.Debug("pipeline stage", args...)
}

func (t *trace) fail(kind Kind, err error) *Error {
	slog.Debug("pipeline stage",
		slog.String("op", t.op),
		slog.String("stage", string(StageFailed)),
		slog.String("after", string(t.stage)),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return &Error{Stage: t.stage, Kind: kind, Err: err}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
