package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/types"
)

func result(titles ...string) *pipeline.SearchResult {
	res := &pipeline.SearchResult{Query: "q", Results: types.ResultSet{}}
	for i, title := range titles {
		res.Results = append(res.Results, types.ResultRecord{Title: title, Rank: i})
	}
	return res
}

func TestSearchCache_PutGet(t *testing.T) {
	c, err := NewSearchCache(4)
	require.NoError(t, err)

	s := c.Put(result("a", "b"))
	_, err = uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.False(t, s.CreatedAt.IsZero())

	got, ok := c.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	rec, ok := got.Record(1)
	require.True(t, ok)
	assert.Equal(t, "b", rec.Title)

	_, ok = got.Record(2)
	assert.False(t, ok)
	_, ok = got.Record(-1)
	assert.False(t, ok)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestSearchCache_Evicts(t *testing.T) {
	c, err := NewSearchCache(2)
	require.NoError(t, err)

	first := c.Put(result("a"))
	c.Put(result("b"))
	c.Put(result("c"))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(first.ID)
	assert.False(t, ok)
}

func TestNewSearchCache_InvalidSize(t *testing.T) {
	_, err := NewSearchCache(0)
	assert.Error(t, err)
}

func TestSearch_RecordNil(t *testing.T) {
	var s *Search
	_, ok := s.Record(0)
	assert.False(t, ok)
}
