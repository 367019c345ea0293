// Package mcpsrv provides an extensible MCP server for private web search.
//
// This package exposes a high-level API for creating and running an MCP server
// with the builtin quietsearch tools (search, view_script_free, suggest),
// prompts and resources. Users can extend the server with custom tools,
// prompts, and resources using functional options.
//
// # Basic Usage
//
// Create a server configured from the environment:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools that reuse the search pipeline:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type HostsInput struct {
//	    Query string `json:"query"`
//	}
//
//	type HostsOutput struct {
//	    Hosts []string `json:"hosts,omitzero"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(&mcp.Tool{Name: "hosts", Description: "Result hosts"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, HostsInput) (*mcp.CallToolResult, HostsOutput, error) {
//	            ...
//	        }),
//	)
//
// See examples/host-summary for a complete program.
//
// # Configuration
//
// Environment variables are read by default. Override them with options:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithSettingsFile("/etc/quietsearch/settings.yaml"),
//	    mcpsrv.WithUpstreamURL("https://www.google.de"),
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/quietsearch.log"),
//	)
package mcpsrv
