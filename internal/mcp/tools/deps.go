package tools

import (
	"github.com/usestring/quietsearch/internal/cache"
	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/internal/pipeline"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config *config.Config
	Engine *pipeline.Engine
	Cache  *cache.SearchCache
}
