// Package nojs fetches a followed result link and returns the page with all
// script-capable content removed.
package nojs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/usestring/quietsearch/pkg/linksan"
	"github.com/usestring/quietsearch/pkg/types"
	"github.com/usestring/quietsearch/pkg/upstream"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 8 << 20

	maxRedirects = 10
	acceptHTML   = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5"
)

// Fetcher retrieves target pages. It is safe for concurrent use.
type Fetcher struct {
	httpClient   *http.Client
	timeout      time.Duration
	maxBytes     int64
	userAgent    string
	endpoint     string
	allowPrivate bool
	links        *linksan.Sanitizer
}

// Option is a functional option for configuring the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client. The dial-time address guard is
// only installed on the default client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = httpClient
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBytes caps how much of a page is read.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent fixes the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithEndpoint sets the script-free viewer that rewritten anchors point at.
func WithEndpoint(endpoint string) Option {
	return func(f *Fetcher) {
		f.endpoint = endpoint
	}
}

// WithAllowPrivate disables the private-address guard.
func WithAllowPrivate(allow bool) Option {
	return func(f *Fetcher) {
		f.allowPrivate = allow
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
		endpoint: linksan.DefaultScriptFreeEndpoint,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.userAgent == "" {
		f.userAgent = upstream.RandomUserAgent("")
	}
	if f.httpClient == nil {
		f.httpClient = f.defaultClient()
	}
	f.links = linksan.New(linksan.Options{ScriptFreeEndpoint: f.endpoint})
	return f
}

func (f *Fetcher) defaultClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !f.allowPrivate {
		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second, Control: dialGuard}
		transport.DialContext = dialer.DialContext
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return checkTarget(req.URL, f.allowPrivate)
		},
	}
}

// Fetch performs one GET for target and sanitizes the page.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*types.SanitizedDocument, error) {
	target = strings.TrimSpace(target)
	u, err := url.Parse(target)
	if err != nil {
		return nil, &TargetFetchError{URL: target, Reason: "invalid url", Err: err}
	}
	if err := checkTarget(u, f.allowPrivate); err != nil {
		return nil, &TargetFetchError{URL: target, Reason: "url not allowed", Err: err}
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TargetFetchError{URL: target, Reason: "invalid url", Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHTML)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		slog.Debug("target request failed",
			slog.String("host", u.Host),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		reason := "request failed"
		switch {
		case errors.Is(err, errPrivateAddress):
			reason = "url not allowed"
		case errors.Is(err, context.DeadlineExceeded):
			reason = fmt.Sprintf("timed out after %s", f.timeout)
		}
		return nil, &TargetFetchError{URL: target, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &TargetBlockedError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, err
		}
		return nil, &TargetFetchError{URL: target, Reason: "reading body", Err: err}
	}

	slog.Debug("target request completed",
		slog.String("host", u.Host),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	doc, err := f.Sanitize(&types.RawDocument{
		Kind:        types.KindTargetPage,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		URL:         resp.Request.URL.String(),
	})
	if err != nil {
		return nil, err
	}
	doc.URL = target
	return doc, nil
}
