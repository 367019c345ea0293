// Package prompts contains the MCP prompts of quietsearch.
package prompts

import "github.com/usestring/quietsearch/pkg/types"

// Config holds configuration needed by prompts.
type Config struct {
	Defaults     types.FilterSet
	BangsEnabled bool
}
