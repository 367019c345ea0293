package mcpsrv

import (
	"github.com/usestring/quietsearch/internal/cache"
	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/internal/pipeline"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same search pipeline and search
// cache as the builtin tools.
type Deps struct {
	Config *config.Config
	Engine *pipeline.Engine
	Cache  *cache.SearchCache
}
