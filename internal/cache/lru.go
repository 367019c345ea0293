// Package cache keeps recent searches addressable by ID so result links can
// be followed without repeating the search.
package cache

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/types"
)

// Search is a cached search handle.
type Search struct {
	ID        string                 `json:"search_id"`
	CreatedAt time.Time              `json:"created_at"`
	Result    *pipeline.SearchResult `json:"result"`
}

// Record returns the result at rank, if present.
func (s *Search) Record(rank int) (types.ResultRecord, bool) {
	if s == nil || s.Result == nil || rank < 0 || rank >= len(s.Result.Results) {
		return types.ResultRecord{}, false
	}
	return s.Result.Results[rank], true
}

// SearchCache provides thread-safe LRU caching of completed searches.
type SearchCache struct {
	cache *lru.Cache[string, *Search]
}

// NewSearchCache creates a new LRU cache with the specified maximum number of items.
func NewSearchCache(maxItems int) (*SearchCache, error) {
	c, err := lru.New[string, *Search](maxItems)
	if err != nil {
		return nil, err
	}
	return &SearchCache{cache: c}, nil
}

// Put stores a search result under a new ID and returns the handle.
func (c *SearchCache) Put(result *pipeline.SearchResult) *Search {
	s := &Search{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	c.cache.Add(s.ID, s)
	return s
}

// Get retrieves a search by its ID.
// Returns the search and true if found, nil and false otherwise.
func (c *SearchCache) Get(searchID string) (*Search, bool) {
	return c.cache.Get(searchID)
}

// Len returns the current number of items in the cache.
func (c *SearchCache) Len() int {
	return c.cache.Len()
}
