package prompts

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/quietsearch/pkg/types"
)

func promptText(t *testing.T, res *sdkmcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandlePrivateResearch(t *testing.T) {
	cfg := &Config{Defaults: types.FilterSet{Region: "DE"}}
	req := &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{
		Name:      "private_research",
		Arguments: map[string]string{"topic": "heat pumps", "recency": "Month"},
	}}

	res, err := HandlePrivateResearch(cfg)(context.Background(), req)
	require.NoError(t, err)

	text := promptText(t, res)
	assert.Contains(t, text, "**Topic**: heat pumps")
	assert.Contains(t, text, "`:past month`")
	assert.Contains(t, text, "- Region: DE")
	assert.Contains(t, text, "- Language: none")
	assert.NotContains(t, text, "Bang shortcuts")
}

func TestHandleSearchGuide_Bangs(t *testing.T) {
	req := &sdkmcp.GetPromptRequest{Params: &sdkmcp.GetPromptParams{Name: "search_guide"}}

	res, err := HandleSearchGuide(&Config{})(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, promptText(t, res), "!w gopher")

	res, err = HandleSearchGuide(&Config{BangsEnabled: true})(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "!w gopher")
}
