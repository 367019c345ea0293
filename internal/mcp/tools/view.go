package tools

import (
	"context"
	"fmt"
	"unicode/utf8"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/quietsearch/pkg/types"
)

// ViewInput is the input for view_script_free.
type ViewInput struct {
	URL          string `json:"url,omitempty" jsonschema:"Page to fetch. Provider redirect links are unwrapped first"`
	SearchID     string `json:"search_id,omitempty" jsonschema:"search_id returned by search; use with rank instead of url"`
	Rank         *int   `json:"rank,omitempty" jsonschema:"0-based rank of the result within search_id"`
	MaxBodyChars int    `json:"max_body_chars,omitempty" jsonschema:"Truncate the sanitized body to this many characters (default: 20000, 0 keeps the default)"`
}

// ViewOutput is the output for view_script_free.
type ViewOutput struct {
	Page      types.SanitizedDocument `json:"page"`
	Truncated bool                    `json:"truncated,omitempty"`
	Hint      string                  `json:"hint,omitempty"`
}

const defaultMaxBodyChars = 20000

// ToolViewScriptFree fetches a result page with scripts removed.
func ToolViewScriptFree(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		target, err := resolveTarget(d, input)
		if err != nil {
			return nil, ViewOutput{}, err
		}

		doc, err := d.Engine.View(ctx, target)
		if err != nil {
			return nil, ViewOutput{}, WrapPipelineError(err)
		}

		limit := input.MaxBodyChars
		if limit <= 0 {
			limit = defaultMaxBodyChars
		}
		output := ViewOutput{Page: *doc}
		if utf8.RuneCountInString(doc.Body) > limit {
			output.Page.Body = string([]rune(doc.Body)[:limit])
			output.Truncated = true
			output.Hint = fmt.Sprintf("Body truncated to %d characters. Raise max_body_chars to read more.", limit)
		}
		return nil, output, nil
	}
}

func resolveTarget(d *Deps, input ViewInput) (string, error) {
	switch {
	case input.URL != "" && input.SearchID != "":
		return "", ErrInvalidInput("set either url or search_id, not both")
	case input.URL != "":
		return input.URL, nil
	case input.SearchID == "":
		return "", ErrInvalidInput("url or search_id is required")
	case input.Rank == nil:
		return "", ErrInvalidInput("rank is required with search_id")
	}

	search, ok := d.Cache.Get(input.SearchID)
	if !ok {
		return "", ErrNotFound("search", input.SearchID)
	}
	rec, ok := search.Record(*input.Rank)
	if !ok {
		return "", ErrNotFound("result", fmt.Sprintf("%s rank %d", input.SearchID, *input.Rank))
	}
	return rec.TargetURL, nil
}
