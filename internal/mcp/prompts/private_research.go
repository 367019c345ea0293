package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandlePrivateResearch implements the private research workflow.
func HandlePrivateResearch(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		topic := ""
		recency := ""
		if args != nil {
			if v, ok := args["topic"]; ok {
				topic = strings.TrimSpace(v)
			}
			if v, ok := args["recency"]; ok {
				recency = strings.ToLower(strings.TrimSpace(v))
			}
		}

		var sb strings.Builder

		sb.WriteString("# Private Research\n\n")
		sb.WriteString("You are a careful researcher. Answer from primary sources found through the quietsearch tools, ")
		sb.WriteString("and never visit result pages with scripts enabled.\n\n")

		if topic != "" {
			fmt.Fprintf(&sb, "**Topic**: %s\n\n", topic)
		}

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Search** with a focused query\n")
		if recency != "" {
			fmt.Fprintf(&sb, "   - Append `:past %s` to the query, or set `filters.time_range: %q`\n", recency, recency)
		} else {
			sb.WriteString("   - For current events append `:past day` (or hour, month, year) to the query\n")
		}
		sb.WriteString("   - Set `include_suggestions: true` on the first search to see how others phrase the topic\n")
		sb.WriteString("2. **Pick sources** from `results`\n")
		sb.WriteString("   - `target_url` is already free of tracking parameters; cite it as-is\n")
		sb.WriteString("   - Prefer results whose `display_url` points at the original publisher\n")
		sb.WriteString("3. **Read** a source with `view_script_free(search_id, rank)`\n")
		sb.WriteString("   - Check `removed` to see how much script content the page carried\n")
		sb.WriteString("   - If the body is truncated, raise `max_body_chars` only for the sources you quote\n")
		sb.WriteString("4. **Page further** with `start: 10`, `start: 20` when the first page is thin\n\n")

		sb.WriteString("## Failure Handling\n\n")
		sb.WriteString("| Code | Meaning | Action |\n")
		sb.WriteString("|------|---------|--------|\n")
		sb.WriteString("| `UPSTREAM_BLOCKED` | The provider rate-limited or challenged the request | Wait, then retry once with a different phrasing |\n")
		sb.WriteString("| `RESULTS_UNAVAILABLE` | The provider page had no readable results | Retry later; do not assume the topic has no coverage |\n")
		sb.WriteString("| `TARGET_BLOCKED` / `TARGET_FETCH_FAILED` | One source could not be read | Move to the next result; the result list is still valid |\n")
		sb.WriteString("| `INVALID_INPUT` | Empty query or bad filter | Fix the argument named in the message |\n\n")

		sb.WriteString("## Defaults\n\n")
		fmt.Fprintf(&sb, "- Region: %s\n", orNone(cfg.Defaults.Region))
		fmt.Fprintf(&sb, "- Language: %s\n", orNone(cfg.Defaults.Language))
		fmt.Fprintf(&sb, "- Time range: %s\n", orNone(string(cfg.Defaults.TimeRange)))
		if cfg.BangsEnabled {
			sb.WriteString("\nBang shortcuts (`!w topic`) are enabled. They return a `redirect` instead of results; use `suggest(\"!\")` to list them.\n")
		}

		return &sdkmcp.GetPromptResult{
			Description: "Workflow for researching a topic without tracking",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
