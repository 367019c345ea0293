package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/quietsearch/internal/cache"
	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/internal/mcp/tools"
	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/upstream"
)

const resultsPage = `<!doctype html>
<html><body><div id="main">
<div class="ZINbbc"><div><a href="/url?q=https://example.com/a%3Futm_source%3Dx&amp;sa=U"><h3>Example A</h3></a></div><div class="s3v9rd">Snippet</div></div>
</div></body></html>`

func connect(t *testing.T, opts ...ServerOption) (*Server, *sdkmcp.ClientSession) {
	t.Helper()

	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	t.Cleanup(upstreamSrv.Close)

	searches, err := cache.NewSearchCache(4)
	require.NoError(t, err)
	deps := &tools.Deps{
		Config: &config.Config{DefaultSuggestLimit: 5},
		Engine: pipeline.New(pipeline.WithUpstream(upstream.New(upstream.WithBaseURL(upstreamSrv.URL)))),
		Cache:  searches,
	}

	srv, err := NewServer(deps, opts...)
	require.NoError(t, err)

	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	ss, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return srv, cs
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
	_, err = NewServer(&tools.Deps{})
	assert.Error(t, err)
}

func TestServer_BuiltinTools(t *testing.T) {
	_, cs := connect(t, WithBuiltinTools(), WithBuiltinPrompts())
	ctx := context.Background()

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search", "view_script_free", "suggest"}, names)

	prompts, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 2)
}

func TestServer_SearchThenResource(t *testing.T) {
	_, cs := connect(t, WithBuiltinTools())
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "search",
		Arguments: map[string]any{"query": "example :past year"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out tools.SearchOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "https://example.com/a", out.Results[0].TargetURL)
	assert.Equal(t, "year", string(out.Filters.TimeRange))

	read, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: tools.SearchResourceURI(out.SearchID)})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	var cached cache.Search
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &cached))
	assert.Equal(t, out.SearchID, cached.ID)
	assert.Equal(t, "example", cached.Result.Query)

	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: tools.SearchResourceURI("unknown")})
	assert.Error(t, err)
}

func TestServer_ToolErrorIsResult(t *testing.T) {
	_, cs := connect(t, WithBuiltinTools())

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "search",
		Arguments: map[string]any{"query": ":past day"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, tools.ErrCodeInvalidInput)
}

func TestServer_ResultSetSchemaResource(t *testing.T) {
	_, cs := connect(t, WithBuiltinTools())

	read, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: resultSetSchemaURI})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &schema))
	assert.Equal(t, "array", schema["type"])
	assert.Equal(t, resultSetSchemaURI, schema["$id"])
	assert.Contains(t, read.Contents[0].Text, "target_url")
}

func TestServer_CustomRegistration(t *testing.T) {
	called := false
	_, _ = connect(t, WithCustomRegistration(func(*sdkmcp.Server) { called = true }))
	assert.True(t, called)
}
