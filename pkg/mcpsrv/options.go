package mcpsrv

import (
	"context"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/quietsearch/internal/config"
)

// serverConfig holds configuration built from options.
type serverConfig struct {
	config       *config.Config
	settingsFile string
	upstreamURL  string
	httpClient   *http.Client

	// Logging overrides, empty means use the config
	logLevel string
	logFile  string

	builtinTools   bool
	builtinPrompts bool

	// extensions run in option order once Deps exist
	extensions []func(*mcp.Server, *Deps)
}

func defaultServerConfig() *serverConfig {
	return &serverConfig{builtinTools: true, builtinPrompts: true}
}

// Option configures the server.
type Option func(*serverConfig)

// WithConfig replaces the environment-derived configuration.
func WithConfig(c *config.Config) Option {
	return func(cfg *serverConfig) {
		cfg.config = c
	}
}

// WithSettingsFile applies a YAML settings file over the environment.
// Empty keeps QUIETSEARCH_SETTINGS_FILE.
func WithSettingsFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.settingsFile = path
	}
}

// WithUpstreamURL sets the search provider root, e.g. "https://www.google.de".
// Empty keeps the configured provider.
func WithUpstreamURL(u string) Option {
	return func(cfg *serverConfig) {
		cfg.upstreamURL = u
	}
}

// WithHTTPClient sets the HTTP client for search provider requests.
// Followed result links always go through the guarded script-free fetcher.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile sends logs to a rotated file instead of stderr.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithoutBuiltinTools leaves out search, view_script_free and suggest along
// with the search resources.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.builtinTools = false
	}
}

// WithoutBuiltinPrompts leaves out private_research and search_guide.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.builtinPrompts = false
	}
}

// WithTool registers a tool that needs nothing from the server:
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "echo", Description: "Echo the query"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, in EchoInput) (*mcp.CallToolResult, EchoOutput, error) {
//	        return nil, EchoOutput{Query: in.Query}, nil
//	    })
//
// Registration panics if the zero value of Out does not satisfy its own
// inferred schema; see [AddTool].
func WithTool[In, Out any](tool *mcp.Tool, handler mcp.ToolHandlerFor[In, Out]) Option {
	return extend(func(srv *mcp.Server, _ *Deps) {
		AddTool(srv, tool, handler)
	})
}

// WithDepsTool registers a tool built from the server's Deps, for tools that
// run searches or read cached results:
//
//	mcpsrv.WithDepsTool(&mcp.Tool{Name: "count_results", Description: "Count organic results"},
//	    func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            res, err := d.Engine.Search(ctx, in.Query, types.FilterSelection{}, upstream.Page{})
//	            if err != nil {
//	                return nil, CountOutput{}, err
//	            }
//	            return nil, CountOutput{Count: len(res.Results)}, nil
//	        }
//	    })
func WithDepsTool[In, Out any](tool *mcp.Tool, build func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return extend(func(srv *mcp.Server, d *Deps) {
		AddTool(srv, tool, build(d))
	})
}

// WithPrompt registers a prompt.
func WithPrompt(prompt *mcp.Prompt, handler mcp.PromptHandler) Option {
	return extend(func(srv *mcp.Server, _ *Deps) {
		srv.AddPrompt(prompt, handler)
	})
}

// WithResourceTemplate registers a resource template, e.g. one that serves
// notes kept next to cached searches:
//
//	mcpsrv.WithResourceTemplate(
//	    &mcp.ResourceTemplate{URITemplate: "notes://{search_id}", Name: "Research notes", MIMEType: "text/markdown"},
//	    func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
//	        return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
//	            {URI: req.Params.URI, MIMEType: "text/markdown", Text: notes[req.Params.URI]},
//	        }}, nil
//	    })
func WithResourceTemplate(template *mcp.ResourceTemplate, handler mcp.ResourceHandler) Option {
	return extend(func(srv *mcp.Server, _ *Deps) {
		srv.AddResourceTemplate(template, handler)
	})
}

func extend(fn func(*mcp.Server, *Deps)) Option {
	return func(cfg *serverConfig) {
		cfg.extensions = append(cfg.extensions, fn)
	}
}
