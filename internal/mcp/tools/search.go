package tools

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/types"
	"github.com/usestring/quietsearch/pkg/upstream"
)

// SearchInput is the input for search.
type SearchInput struct {
	Query              string       `json:"query" jsonschema:"Search query. A trailing ':past hour|day|month|year' restricts recency. A bang such as '!w' returns a redirect instead of results"`
	Filters            *FilterInput `json:"filters,omitempty" jsonschema:"Filters; unset fields use the server defaults"`
	Start              int          `json:"start,omitempty" jsonschema:"Result offset for later pages (10 per page)"`
	Vertical           string       `json:"vertical,omitempty" jsonschema:"Provider vertical, e.g. nws for news"`
	Near               string       `json:"near,omitempty" jsonschema:"City to localize results to. Default: server setting"`
	IncludeSuggestions bool         `json:"include_suggestions,omitempty" jsonschema:"Also return query completions, fetched concurrently"`
}

// SearchOutput is the output for search.
type SearchOutput struct {
	SearchID    string             `json:"search_id"`
	Query       string             `json:"query"`
	Filters     types.FilterSet    `json:"filters"`
	Results     types.ResultSet    `json:"results,omitzero"`
	Suggestions []string           `json:"suggestions,omitzero"`
	Redirect    string             `json:"redirect,omitempty"`
	Resource    *types.ResourceRef `json:"resource,omitempty"`
	Hint        string             `json:"hint,omitempty"`
}

// ToolSearch runs a private search and caches the result set.
func ToolSearch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchInput) (*sdkmcp.CallToolResult, SearchOutput, error) {
		sel, err := input.Filters.Selection()
		if err != nil {
			return nil, SearchOutput{}, err
		}
		if input.Start < 0 {
			return nil, SearchOutput{}, ErrInvalidInput("start must not be negative")
		}

		page := upstream.Page{Start: input.Start, Vertical: input.Vertical, Near: input.Near}
		if page.Near == "" {
			page.Near = d.Config.Near
		}

		var (
			result      *pipeline.SearchResult
			suggestions []string
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			result, err = d.Engine.Search(gctx, input.Query, sel, page)
			return err
		})
		if input.IncludeSuggestions {
			g.Go(func() error {
				out, err := d.Engine.Suggest(gctx, input.Query, d.Config.DefaultSuggestLimit)
				if err != nil {
					// Completions are optional; the search decides the outcome.
					slog.Debug("suggestions unavailable", slog.String("error", err.Error()))
					return nil
				}
				suggestions = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, SearchOutput{}, WrapPipelineError(err)
		}

		handle := d.Cache.Put(result)
		output := SearchOutput{
			SearchID:    handle.ID,
			Query:       result.Query,
			Filters:     result.Filters,
			Results:     result.Results,
			Suggestions: suggestions,
			Redirect:    result.Redirect,
			Resource: &types.ResourceRef{
				URI:  SearchResourceURI(handle.ID),
				MIME: MimeJSON,
				Hint: "Cached result set, readable until evicted",
			},
		}

		switch {
		case result.Redirect != "":
			output.Hint = "The query was a bang shortcut. Follow redirect instead of reading results."
		case len(result.Results) == 0:
			output.Hint = "No organic results. Try a broader query or drop the time_range filter."
		default:
			output.Hint = fmt.Sprintf("Read a result without scripts: view_script_free(search_id: %q, rank: 0). Next page: search(query: %q, start: %d).",
				handle.ID, input.Query, input.Start+10)
		}

		return nil, output, nil
	}
}
