package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "private_research",
		Description: "RECOMMENDED: Research a topic through tracker-free search and script-free page views. Start here - explains the tool chain, error codes and server defaults.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "topic",
				Description: "What to research",
				Required:    false,
			},
			{
				Name:        "recency",
				Description: "Restrict to hour, day, month or year",
				Required:    false,
			},
		},
	}, HandlePrivateResearch(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "search_guide",
		Description: "Reference for search syntax and tool parameters",
	}, HandleSearchGuide(cfg))
}
