package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// memorySource rejoue le contrat des sources SQL sur une tranche en mémoire.
type memorySource struct {
	name  string
	items []domain.FeedItem
	err   error
	// leaky ignore le push-down (cache de visibilité obsolète côté source)
	leaky bool

	mu      sync.Mutex
	queries []ports.SourceQuery
}

func (s *memorySource) Name() string { return s.name }

func (s *memorySource) FetchPage(_ context.Context, q ports.SourceQuery) (ports.SourcePage, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.err != nil {
		return ports.SourcePage{}, s.err
	}

	sorted := append([]domain.FeedItem(nil), s.items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NewerThan(sorted[j]) })

	excluded := make(map[string]struct{}, len(q.Exclude))
	for _, id := range q.Exclude {
		excluded[id] = struct{}{}
	}
	var authors map[string]struct{}
	if q.Scope == domain.ScopeFollowing {
		authors = make(map[string]struct{}, len(q.Authors))
		for _, id := range q.Authors {
			authors[id] = struct{}{}
		}
	}

	out := make([]domain.FeedItem, 0, q.Limit)
	for _, item := range sorted {
		if !q.Cursor.Admits(item.CreatedAt, item.ID) {
			continue
		}
		if !q.Since.IsZero() && item.CreatedAt.Before(q.Since) {
			continue
		}
		if _, ok := excluded[item.Author.ID]; ok && !s.leaky {
			continue
		}
		if authors != nil {
			if _, ok := authors[item.Author.ID]; !ok {
				continue
			}
		}
		if !q.Filter.Allows(item) {
			continue
		}
		out = append(out, item)
		if len(out) == q.Limit {
			break
		}
	}
	return ports.SourcePage{Items: out, Exhausted: len(out) < q.Limit}, nil
}

func (s *memorySource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type fakeGraph struct {
	following map[string][]string
	sets      map[string]domain.VisibilitySet
	err       error
	calls     int
}

func (g *fakeGraph) GetFollowing(_ context.Context, viewerID string) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.following[viewerID], nil
}

func (g *fakeGraph) GetBlocksAndMutes(_ context.Context, viewerID string) (domain.VisibilitySet, error) {
	g.calls++
	if g.err != nil {
		return domain.VisibilitySet{}, g.err
	}
	return g.sets[viewerID], nil
}

type fakeSignals struct {
	library  map[string]domain.LibraryStatus
	reviewed map[string]struct{}
	err      error
}

func (f *fakeSignals) GetLibrary(context.Context, string) (map[string]domain.LibraryStatus, error) {
	return f.library, f.err
}

func (f *fakeSignals) GetReviewedGames(context.Context, string) (map[string]struct{}, error) {
	return f.reviewed, f.err
}

type mapCache struct {
	sets   map[string]domain.VisibilitySet
	getErr error
}

func newMapCache() *mapCache {
	return &mapCache{sets: map[string]domain.VisibilitySet{}}
}

func (c *mapCache) Get(_ context.Context, viewerID string) (domain.VisibilitySet, bool, error) {
	if c.getErr != nil {
		return domain.VisibilitySet{}, false, c.getErr
	}
	set, ok := c.sets[viewerID]
	return set, ok, nil
}

func (c *mapCache) Set(_ context.Context, viewerID string, set domain.VisibilitySet, _ time.Duration) error {
	c.sets[viewerID] = set
	return nil
}

func (c *mapCache) Delete(_ context.Context, viewerIDs ...string) error {
	for _, id := range viewerIDs {
		delete(c.sets, id)
	}
	return nil
}

var errBoom = errors.New("boom")

func post(id, author string, at time.Time) domain.FeedItem {
	return domain.FeedItem{
		ID:        id,
		Kind:      domain.KindPost,
		CreatedAt: at,
		Author:    domain.Author{ID: author, Username: author},
		Content:   "post " + id,
	}
}

func rating(id, author, game string, score int, at time.Time) domain.FeedItem {
	return domain.FeedItem{
		ID:        id,
		Kind:      domain.KindRating,
		CreatedAt: at,
		Author:    domain.Author{ID: author, Username: author},
		Game:      &domain.Game{ID: game, Name: game},
		Content:   "Rated",
		Rating:    &score,
	}
}

func keys(items []domain.FeedItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item.Kind) + ":" + item.ID
	}
	return out
}
