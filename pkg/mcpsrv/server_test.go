package mcpsrv

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/pkg/types"
	"github.com/usestring/quietsearch/pkg/upstream"
)

const resultsPage = `<!doctype html>
<html><body><div id="main">
<div class="ZINbbc"><div><a href="/url?q=https://example.com/a"><h3>A</h3></a></div></div>
<div class="ZINbbc"><div><a href="/url?q=https://example.org/b"><h3>B</h3></a></div></div>
</div></body></html>`

type countInput struct {
	Query string `json:"query"`
}

type countOutput struct {
	Count int `json:"count"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	t.Cleanup(srv.Close)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	return &config.Config{
		UpstreamBaseURL:     srv.URL,
		SearchCacheMaxItems: 4,
		DefaultSuggestLimit: 5,
		LogLevel:            "error",
	}
}

func TestNewServer_DepsTool(t *testing.T) {
	server, err := NewServer(
		WithConfig(testConfig(t)),
		WithoutBuiltinPrompts(),
		WithDepsTool(&mcp.Tool{Name: "count_results", Description: "Count organic results"},
			func(d *Deps) func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, countOutput, error) {
				return func(ctx context.Context, _ *mcp.CallToolRequest, in countInput) (*mcp.CallToolResult, countOutput, error) {
					res, err := d.Engine.Search(ctx, in.Query, types.FilterSelection{}, upstream.Page{})
					if err != nil {
						return nil, countOutput{}, err
					}
					return nil, countOutput{Count: len(res.Results)}, nil
				}
			}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	require.NotNil(t, server.Deps().Engine)

	ctx := context.Background()
	cs := connect(t, server)

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list.Tools, 4)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "count_results", Arguments: map[string]any{"query": "q"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), out["count"])
}

func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.0.0"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

type echoInput struct {
	Query string `json:"query"`
}

type echoOutput struct {
	Query string `json:"query"`
}

func TestNewServer_Extensions(t *testing.T) {
	server, err := NewServer(
		WithConfig(testConfig(t)),
		WithoutBuiltinTools(),
		WithoutBuiltinPrompts(),
		WithTool(&mcp.Tool{Name: "echo", Description: "Echo the query"},
			func(_ context.Context, _ *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, echoOutput, error) {
				return nil, echoOutput{Query: in.Query}, nil
			}),
		WithPrompt(&mcp.Prompt{Name: "compare_sources", Description: "Compare two sources"},
			func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
				return &mcp.GetPromptResult{
					Description: "Compare sources",
					Messages:    []*mcp.PromptMessage{{Role: "user", Content: &mcp.TextContent{Text: "Search both sides first."}}},
				}, nil
			}),
		WithResourceTemplate(&mcp.ResourceTemplate{URITemplate: "notes://{id}", Name: "Research notes", MIMEType: "text/plain"},
			func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
				return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, MIMEType: "text/plain", Text: "note for " + req.Params.URI},
				}}, nil
			}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	ctx := context.Background()
	cs := connect(t, server)

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "echo", list.Tools[0].Name)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"query": "golang"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, map[string]any{"query": "golang"}, res.StructuredContent)

	prompt, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "compare_sources"})
	require.NoError(t, err)
	require.Len(t, prompt.Messages, 1)
	assert.Equal(t, "Search both sides first.", prompt.Messages[0].Content.(*mcp.TextContent).Text)

	read, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "notes://abc"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "note for notes://abc", read.Contents[0].Text)
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestNewServer_HTTPClientAndLogFile(t *testing.T) {
	rt := &countingTransport{}
	logFile := filepath.Join(t.TempDir(), "mcp.log")

	server, err := NewServer(
		WithConfig(testConfig(t)),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithLogLevel("debug"),
		WithLogFile(logFile),
	)
	require.NoError(t, err)

	ctx := context.Background()
	cs := connect(t, server)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "search", Arguments: map[string]any{"query": "golang"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.GreaterOrEqual(t, rt.calls.Load(), int32(1))

	require.NoError(t, server.Close())
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline stage")
}

func TestNewServer_UpstreamURLOverridesConfig(t *testing.T) {
	cfg := testConfig(t)
	server, err := NewServer(WithConfig(cfg), WithUpstreamURL("https://www.google.de"), WithoutBuiltinPrompts())
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	assert.Equal(t, "https://www.google.de", server.Deps().Config.UpstreamBaseURL)
}

func TestNewServer_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Country = "atlantis"

	_, err := NewServer(WithConfig(cfg))
	assert.ErrorContains(t, err, "search pipeline")
}

func TestNewServer_WithoutBuiltins(t *testing.T) {
	server, err := NewServer(WithConfig(testConfig(t)), WithoutBuiltinTools(), WithoutBuiltinPrompts())
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	assert.NotNil(t, server.Deps().Cache)
	assert.Zero(t, server.Deps().Cache.Len())
}
