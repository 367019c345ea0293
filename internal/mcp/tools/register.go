package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "search",
		Description: "Search the web without tracking. Returns organic results only (ads, provider widgets and internal links removed) with tracking parameters stripped from every target_url. Returns {search_id, query, filters, results: [{title, snippet, target_url, display_url, rank, script_free_url?}], suggestions?, redirect?, hint}. Pass search_id and rank to view_script_free to read a result.",
	}, ToolSearch(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "view_script_free",
		Description: "Fetch a page and return it with scripts, frames, event handlers and javascript: links removed. Returns {page: {url, final_url, title, description, site_name, body, removed}, truncated, hint}. Takes a url, or a search_id plus rank from a previous search.",
	}, ToolViewScriptFree(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "suggest",
		Description: "Complete a partial query. Prefixes starting with '!' list bang shortcuts without contacting the search provider.",
	}, ToolSuggest(d))
}
