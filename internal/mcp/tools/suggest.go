package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SuggestInput is the input for suggest.
type SuggestInput struct {
	Query string `json:"query" jsonschema:"Partial query. A prefix starting with '!' lists matching bang shortcuts"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max suggestions (default: server setting)"`
}

// SuggestOutput is the output for suggest.
type SuggestOutput struct {
	Suggestions []string `json:"suggestions,omitzero"`
	Hint        string   `json:"hint,omitempty"`
}

// ToolSuggest returns query completions.
func ToolSuggest(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SuggestInput) (*sdkmcp.CallToolResult, SuggestOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SuggestInput) (*sdkmcp.CallToolResult, SuggestOutput, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = d.Config.DefaultSuggestLimit
		}

		out, err := d.Engine.Suggest(ctx, input.Query, limit)
		if err != nil {
			return nil, SuggestOutput{}, WrapPipelineError(err)
		}

		output := SuggestOutput{Suggestions: out}
		if len(out) == 0 {
			output.Hint = "No completions for this prefix."
		}
		return nil, output, nil
	}
}
