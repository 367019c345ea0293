package prompts

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleSearchGuide serves the search syntax reference.
// Bang rows are included only when a bang table is loaded.
func HandleSearchGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# Search Guide\n\n")

		sb.WriteString("## Query Syntax\n\n")
		sb.WriteString("| Goal | Syntax | Example |\n")
		sb.WriteString("|------|--------|--------|\n")
		sb.WriteString("| Plain search | words | `query: \"rust async runtime\"` |\n")
		sb.WriteString("| Recent results only | trailing `:past <range>` | `query: \"coronavirus updates :past hour\"` |\n")
		if cfg.BangsEnabled {
			sb.WriteString("| Jump to a site search | `!<bang>` anywhere | `query: \"!w gopher\"` |\n")
		}

		sb.WriteString("\n**Key rules**:\n")
		sb.WriteString("- The `:past` directive must be the last token; it wins over `filters.time_range`\n")
		sb.WriteString("- An unknown range (`:past week`) is searched as literal text\n")
		sb.WriteString("- A query that is only a directive is rejected as empty\n")
		if cfg.BangsEnabled {
			sb.WriteString("- A bang returns `redirect` and no results; nothing is sent to the search provider\n")
		}

		sb.WriteString("\n## Results\n")
		sb.WriteString("- Only organic results are returned; ads, provider widgets and internal navigation are dropped\n")
		sb.WriteString("- `rank` is 0-based and dense; it is the index to pass to `view_script_free`\n")
		sb.WriteString("- `target_url` has redirect wrappers and tracking parameters removed\n")
		sb.WriteString("- With `filters.no_js: true` each result also carries `script_free_url`\n")
		sb.WriteString("- `filters.site_alternatives: true` moves links to sites like reddit.com onto privacy front ends\n")
		sb.WriteString("- `filters.safe_search: true` asks the provider to hide explicit results\n")

		sb.WriteString("\n## Reading Pages\n")
		sb.WriteString("1. Search: `search(query: \"...\")` returns `search_id`\n")
		sb.WriteString("2. Read: `view_script_free(search_id: \"...\", rank: 0)`\n")
		sb.WriteString("3. Re-read results later from the `quietsearch://search/{search_id}` resource\n")

		return &sdkmcp.GetPromptResult{
			Description: "Search syntax and tool reference",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
