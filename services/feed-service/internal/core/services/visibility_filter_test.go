package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

func TestVisibilityFilter_CachesGraphAnswer(t *testing.T) {
	graph := &fakeGraph{sets: map[string]domain.VisibilitySet{
		"viewer": domain.NewVisibilitySet([]string{"a"}, []string{"b"}, []string{"c", "viewer"}),
	}}
	filter := NewVisibilityFilter(graph, newMapCache(), 0)

	set, err := filter.ComputeHidden(context.Background(), "viewer")
	require.NoError(t, err)
	assert.True(t, IsHidden(set, "a"))
	assert.True(t, IsHidden(set, "b"))
	assert.True(t, IsHidden(set, "c"))
	assert.False(t, IsHidden(set, "viewer"), "self is never hidden")
	assert.False(t, IsHidden(set, "d"))

	_, err = filter.ComputeHidden(context.Background(), "viewer")
	require.NoError(t, err)
	assert.Equal(t, 1, graph.calls, "second lookup is served from cache")

	require.NoError(t, filter.Invalidate(context.Background(), "viewer"))
	_, err = filter.ComputeHidden(context.Background(), "viewer")
	require.NoError(t, err)
	assert.Equal(t, 2, graph.calls)
}

func TestVisibilityFilter_Anonymous(t *testing.T) {
	graph := &fakeGraph{}
	set, err := NewVisibilityFilter(graph, newMapCache(), 0).ComputeHidden(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, set.Excluded())
	assert.Zero(t, graph.calls)
}

func TestVisibilityFilter_CacheFailureFallsBackToGraph(t *testing.T) {
	graph := &fakeGraph{sets: map[string]domain.VisibilitySet{
		"viewer": domain.NewVisibilitySet(nil, nil, []string{"m"}),
	}}
	cache := newMapCache()
	cache.getErr = errBoom

	set, err := NewVisibilityFilter(graph, cache, 0).ComputeHidden(context.Background(), "viewer")
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, set.Excluded())
}

func TestVisibilityFilter_GraphFailure(t *testing.T) {
	graph := &fakeGraph{err: errBoom}
	_, err := NewVisibilityFilter(graph, newMapCache(), 0).ComputeHidden(context.Background(), "viewer")
	assert.ErrorIs(t, err, domain.ErrGraphUnavailable)
}
