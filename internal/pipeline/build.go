package pipeline

import (
	"fmt"
	"net/http"
	"os"

	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/pkg/extract"
	"github.com/usestring/quietsearch/pkg/linksan"
	"github.com/usestring/quietsearch/pkg/nojs"
	"github.com/usestring/quietsearch/pkg/query"
	"github.com/usestring/quietsearch/pkg/upstream"
)

// FromConfig builds an Engine from the loaded configuration. httpClient is
// used for the provider only and may be nil; followed links always go
// through the script-free fetcher's guarded client.
func FromConfig(cfg *config.Config, httpClient *http.Client) (*Engine, error) {
	defaults, err := cfg.Filters()
	if err != nil {
		return nil, err
	}

	extractor, err := extract.New(cfg.Rules())
	if err != nil {
		return nil, fmt.Errorf("extraction rules: %w", err)
	}

	upstreamOpts := []upstream.Option{
		upstream.WithBaseURL(cfg.UpstreamBaseURL),
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithMaxBytes(int64(cfg.MaxResponseBytes)),
		upstream.WithUserAgent(cfg.UserAgent),
	}
	if httpClient != nil {
		upstreamOpts = append(upstreamOpts, upstream.WithHTTPClient(httpClient))
	}

	endpoint := cfg.ScriptFreeEndpoint()
	links := linksan.New(linksan.Options{
		ScriptFreeEndpoint:  endpoint,
		ExtraTrackingParams: cfg.ExtraTrackingParams,
		SiteAlternatives:    cfg.SiteAlternatives,
	})
	pages := nojs.New(
		nojs.WithTimeout(cfg.TargetTimeout),
		nojs.WithMaxBytes(int64(cfg.MaxResponseBytes)),
		nojs.WithUserAgent(cfg.UserAgent),
		nojs.WithEndpoint(endpoint),
		nojs.WithAllowPrivate(cfg.AllowPrivateTargets),
	)

	opts := []Option{
		WithDefaults(defaults),
		WithUpstream(upstream.New(upstreamOpts...)),
		WithExtractor(extractor),
		WithLinkSanitizer(links),
		WithPageFetcher(pages),
		WithExcludedSites(cfg.BlockedSites),
	}

	if cfg.BangsFile != "" {
		data, err := os.ReadFile(cfg.BangsFile)
		if err != nil {
			return nil, fmt.Errorf("reading bangs file: %w", err)
		}
		bangs, err := query.LoadBangs(data)
		if err != nil {
			return nil, fmt.Errorf("loading bangs from %s: %w", cfg.BangsFile, err)
		}
		opts = append(opts, WithBangs(bangs))
	}

	return New(opts...), nil
}
