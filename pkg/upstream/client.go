// Package upstream fetches result pages from the search provider.
//
// Every call performs exactly one HTTP request. Failures are reported as
// *TimeoutError, *UnreachableError or *BlockedError and are never retried
// here; retrying a third-party search endpoint invites rate limiting.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/usestring/quietsearch/pkg/types"
)

// DefaultBaseURL is the provider root used when none is configured.
const DefaultBaseURL = "https://www.google.com"

const (
	searchPath = "/search"

	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 4 << 20
)

// recencyParam maps a time range to the provider's qdr value.
var recencyParam = map[types.TimeRange]string{
	types.TimeRangeHour:  "h",
	types.TimeRangeDay:   "d",
	types.TimeRangeMonth: "m",
	types.TimeRangeYear:  "y",
}

// Client fetches search result pages.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	userAgent  string
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets the provider root, e.g. "https://www.google.com".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithUserAgent sets a fixed user agent instead of a randomized one.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a provider client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.userAgent == "" {
		c.userAgent = RandomUserAgent("")
	}
	return c
}

// Page selects a results page beyond the first, a vertical, or a location.
type Page struct {
	Start    int    `json:"start,omitempty"`    // result offset, 10 per page
	Vertical string `json:"vertical,omitempty"` // tbm value, e.g. "nws", "isch"
	Near     string `json:"near,omitempty"`     // city name
}

// SearchURL builds the provider URL for a query.
func (c *Client) SearchURL(query string, f types.FilterSet, p Page) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("gbv", "1")

	if qdr, ok := recencyParam[f.TimeRange]; ok {
		v.Set("tbs", "qdr:"+qdr)
	}
	if f.Region != "" {
		v.Set("gl", strings.ToLower(f.Region))
		v.Set("cr", "country"+strings.ToUpper(f.Region))
	}
	if f.Language != "" {
		v.Set("lr", "lang_"+f.Language)
		v.Set("hl", f.Language)
	}
	if f.SafeSearch {
		v.Set("safe", "active")
	}
	if p.Start > 0 {
		v.Set("start", strconv.Itoa(p.Start))
	}
	if p.Vertical != "" {
		v.Set("tbm", p.Vertical)
	}
	if p.Near != "" {
		v.Set("near", p.Near)
	}
	return c.baseURL + searchPath + "?" + v.Encode()
}

// Fetch requests the result page for a canonical query.
func (c *Client) Fetch(ctx context.Context, query string, f types.FilterSet, p Page) (*types.RawDocument, error) {
	resp, err := c.get(ctx, c.SearchURL(query, f, p), "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	if reason := interstitialReason(resp.finalURL, resp.body); reason != "" {
		return nil, &BlockedError{StatusCode: resp.status, Reason: reason}
	}
	return &types.RawDocument{
		Kind:        types.KindSearchResults,
		Body:        resp.body,
		ContentType: resp.contentType,
		StatusCode:  resp.status,
		URL:         resp.finalURL,
	}, nil
}

type response struct {
	body        []byte
	contentType string
	status      int
	finalURL    string
}

// get performs a single GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, rawURL, accept string) (*response, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	path := req.URL.Path
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("upstream request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, transportError(ctx, c.timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		slog.Debug("upstream request returned error",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, &BlockedError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, transportError(ctx, c.timeout, fmt.Errorf("reading response: %w", err))
	}

	slog.Debug("upstream request completed",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &response{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		status:      resp.StatusCode,
		finalURL:    resp.Request.URL.String(),
	}, nil
}

// captchaText is the notice shown on challenge pages served with a 2xx status.
const captchaText = "our systems have detected unusual traffic"

// interstitialReason reports whether a 2xx page is a challenge instead of
// results. Only page structure counts: a redirect into /sorry/, the captcha
// form, or the notice on a page that has no results container. Result text
// mentioning the same words does not.
func interstitialReason(finalURL string, body []byte) string {
	if u, err := url.Parse(finalURL); err == nil && strings.HasPrefix(u.Path, "/sorry/") {
		return "captcha"
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if doc.Find("form#captcha-form").Length() > 0 {
		return "captcha"
	}
	if doc.Find("#main, #search, #rso").Length() > 0 {
		return ""
	}
	if doc.Find("div.g-recaptcha").Length() > 0 ||
		strings.Contains(strings.ToLower(doc.Find("body").Text()), captchaText) {
		return "captcha"
	}
	return ""
}
