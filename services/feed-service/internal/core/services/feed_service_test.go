package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

type harness struct {
	posts   *memorySource
	reviews *memorySource
	graph   *fakeGraph
	signals *fakeSignals
	svc     *FeedService
}

func newHarness(settings Settings) *harness {
	h := &harness{
		posts:   &memorySource{name: "posts"},
		reviews: &memorySource{name: "reviews"},
		graph: &fakeGraph{
			following: map[string][]string{},
			sets:      map[string]domain.VisibilitySet{},
		},
		signals: &fakeSignals{},
	}
	h.svc = NewFeedService(
		[]ports.ContentSource{h.posts, h.reviews},
		h.graph,
		NewVisibilityFilter(h.graph, newMapCache(), time.Second),
		h.signals,
		clockwork.NewFakeClockAt(now),
		settings,
	)
	return h
}

func TestBuildPage_FollowingOrdersByRecency(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.following["viewer"] = []string{"A", "B"}
	t10 := now.Add(-50 * time.Minute)
	t12 := now.Add(-48 * time.Minute)
	h.posts.items = []domain.FeedItem{post("p1", "A", t10)}
	h.reviews.items = []domain.FeedItem{rating("r1", "B", "G", 70, t12)}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{
		ViewerID: "viewer",
		Scope:    domain.ScopeFollowing,
		Limit:    10,
	})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"rating:r1", "post:p1"}, keys(page.Items)); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
	assert.Equal(t, "reviews", page.Items[0].Source)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.DegradedSources)

	token, err := domain.DecodePageToken(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "r1", token["reviews"].LastID)
	assert.True(t, t12.Equal(token["reviews"].LastCreatedAt))
	assert.Equal(t, "p1", token["posts"].LastID)
}

func TestBuildPage_FollowingOnlyFollowedAuthors(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.following["viewer"] = []string{"A"}
	h.posts.items = []domain.FeedItem{
		post("p1", "A", now.Add(-time.Hour)),
		post("p2", "stranger", now.Add(-time.Minute)),
		post("p3", "viewer", now.Add(-2*time.Minute)),
	}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{
		ViewerID: "viewer",
		Scope:    domain.ScopeFollowing,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"post:p1"}, keys(page.Items))
}

func TestBuildPage_FollowingWithoutViewerOrFollows(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.posts.items = []domain.FeedItem{post("p1", "A", now)}

	for _, viewer := range []string{"", "loner"} {
		page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{
			ViewerID: viewer,
			Scope:    domain.ScopeFollowing,
		})
		require.NoError(t, err, "viewer %q", viewer)
		assert.Empty(t, page.Items)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	}
	assert.Zero(t, h.posts.calls(), "no source is queried when nobody is followed")
}

func TestBuildPage_ForYouScoring(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.following["viewer"] = []string{"friend"}
	h.signals.library = map[string]domain.LibraryStatus{"G": domain.LibraryOwned}

	h.posts.items = []domain.FeedItem{post("x", "friend", now.Add(-time.Hour))}
	h.reviews.items = []domain.FeedItem{rating("y", "stranger", "G", 50, now.Add(-30*time.Minute))}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{
		ViewerID: "viewer",
		Scope:    domain.ScopeForYou,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	assert.Equal(t, "y", page.Items[0].ID)
	assert.InDelta(t, 2.6, page.Items[0].Score, 1e-9)
	assert.Equal(t, "x", page.Items[1].ID)
	assert.InDelta(t, 1.8, page.Items[1].Score, 1e-9)
}

func TestBuildPage_ForYouFetchesTwiceTheLimit(t *testing.T) {
	h := newHarness(DefaultSettings())
	for i := 0; i < 30; i++ {
		h.posts.items = append(h.posts.items, post(fmt.Sprintf("p%02d", i), "A", now.Add(-time.Duration(i)*time.Minute)))
	}

	_, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, h.posts.queries)
	assert.Equal(t, 10, h.posts.queries[0].Limit)
	assert.False(t, h.posts.queries[0].Since.IsZero(), "forYou is time windowed")
}

func TestBuildPage_FallbackFloorWidensWindow(t *testing.T) {
	h := newHarness(DefaultSettings())
	// 3 items dans la fenêtre de 72h, 27 plus anciens
	for i := 0; i < 3; i++ {
		h.posts.items = append(h.posts.items, post(fmt.Sprintf("fresh%d", i), "A", now.Add(-time.Duration(i+1)*time.Hour)))
	}
	for i := 0; i < 27; i++ {
		h.posts.items = append(h.posts.items, post(fmt.Sprintf("old%02d", i), "A", now.Add(-time.Duration(100+i)*time.Hour)))
	}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, Limit: 20})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(page.Items), 10)
	assert.Len(t, page.Items, 20)
	assert.True(t, page.HasMore)

	require.GreaterOrEqual(t, len(h.posts.queries), 2)
	widened := h.posts.queries[1]
	assert.True(t, widened.Since.IsZero(), "widening drops the recency cutoff")
	assert.Equal(t, "fresh2", widened.Cursor.LastID, "widening continues from the oldest fetched row")
}

func TestBuildPage_FloorStopsWhenSourcesExhausted(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.posts.items = []domain.FeedItem{post("p1", "A", now.Add(-200*time.Hour))}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"post:p1"}, keys(page.Items))
	assert.False(t, page.HasMore)
	assert.LessOrEqual(t, h.posts.calls(), 2)
}

func TestBuildPage_VisibilityInvariant(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.sets["viewer"] = domain.NewVisibilitySet(
		[]string{"blocked"},
		[]string{"blocker", "viewer"},
		[]string{"muted"},
	)
	h.posts.leaky = true
	h.reviews.leaky = true
	for i, author := range []string{"blocked", "blocker", "muted", "ok", "viewer"} {
		at := now.Add(-time.Duration(i) * time.Minute)
		h.posts.items = append(h.posts.items, post("p-"+author, author, at))
		h.reviews.items = append(h.reviews.items, rating("r-"+author, author, "G", 90, at))
	}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{ViewerID: "viewer", Scope: domain.ScopeForYou})
	require.NoError(t, err)

	hidden := map[string]bool{"blocked": true, "blocker": true, "muted": true}
	for _, item := range page.Items {
		assert.False(t, hidden[item.Author.ID], "hidden author %s leaked through", item.Author.ID)
	}
	assert.Len(t, page.Items, 4, "the viewer's own content is never hidden")

	require.NotEmpty(t, h.posts.queries)
	assert.Equal(t, []string{"blocked", "blocker", "muted"}, h.posts.queries[0].Exclude)
}

func TestBuildPage_Deterministic(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.following["viewer"] = []string{"A"}
	h.signals.library = map[string]domain.LibraryStatus{"G": domain.LibraryWishlist}
	same := now.Add(-3 * time.Hour)
	for i := 0; i < 8; i++ {
		h.posts.items = append(h.posts.items, post(fmt.Sprintf("p%d", i), "A", same))
		h.reviews.items = append(h.reviews.items, rating(fmt.Sprintf("r%d", i), "B", "G", 60+i*5, same))
	}

	req := domain.FeedRequest{ViewerID: "viewer", Scope: domain.ScopeForYou, Limit: 6}
	first, err := h.svc.BuildPage(context.Background(), req)
	require.NoError(t, err)
	second, err := h.svc.BuildPage(context.Background(), req)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("buildPage is not deterministic (-first +second):\n%s", diff)
	}
}

func TestBuildPage_PaginationNoDuplicatesAndOrdered(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.following["viewer"] = []string{"A", "B"}
	for i := 0; i < 15; i++ {
		// timestamps partagés deux à deux pour exercer le départage par id
		at := now.Add(-time.Duration(i/2) * time.Minute)
		h.posts.items = append(h.posts.items, post(fmt.Sprintf("p%02d", i), "A", at))
		h.reviews.items = append(h.reviews.items, rating(fmt.Sprintf("r%02d", i), "B", "G", 75, at))
	}

	seen := map[string]bool{}
	var all []domain.FeedItem
	cursor := ""
	for pages := 0; pages < 50; pages++ {
		page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{
			ViewerID: "viewer",
			Scope:    domain.ScopeFollowing,
			Cursor:   cursor,
			Limit:    4,
		})
		require.NoError(t, err)
		for _, item := range page.Items {
			k := string(item.Kind) + ":" + item.ID
			require.False(t, seen[k], "item %s emitted twice", k)
			seen[k] = true
		}
		all = append(all, page.Items...)
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	assert.Len(t, all, 30)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].NewerThan(all[i]), "items %d and %d out of order", i-1, i)
	}
}

// walkForYou suit les pages forYou jusqu'à hasMore=false et vérifie qu'aucun item ne revient.
func walkForYou(t *testing.T, h *harness, limit int) []string {
	t.Helper()
	var emitted []string
	seen := map[string]bool{}
	cursor := ""
	for pages := 0; pages < 50; pages++ {
		page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{
			ViewerID: "viewer",
			Scope:    domain.ScopeForYou,
			Cursor:   cursor,
			Limit:    limit,
		})
		require.NoError(t, err)
		for _, k := range keys(page.Items) {
			require.False(t, seen[k], "item %s emitted twice", k)
			seen[k] = true
			emitted = append(emitted, k)
		}
		if !page.HasMore {
			return emitted
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}
	t.Fatal("forYou pagination did not terminate")
	return nil
}

func TestBuildPage_ForYouPaginationKeepsOutrankedItems(t *testing.T) {
	h := newHarness(DefaultSettings())
	y := post("y", "B", now.Add(-3*time.Hour))
	y.Content = strings.Repeat("a", 300)
	y.Reactions.Likes = 3
	h.posts.items = []domain.FeedItem{
		post("x", "A", now.Add(-time.Hour)),
		y,
		post("z", "C", now.Add(-2*time.Hour)),
		post("w", "D", now.Add(-4*time.Hour)),
	}

	emitted := walkForYou(t, h, 2)
	if diff := cmp.Diff([]string{"post:x", "post:y", "post:z", "post:w"}, emitted); diff != "" {
		t.Errorf("unexpected forYou walk (-want +got):\n%s", diff)
	}
}

func TestBuildPage_ForYouPaginationEmitsEveryRowOnce(t *testing.T) {
	h := newHarness(DefaultSettings())
	want := map[string]bool{}
	for i := 0; i < 14; i++ {
		// les items anciens sont mieux notés que les récents
		p := post(fmt.Sprintf("p%02d", i), "A", now.Add(-time.Duration(i+1)*time.Hour))
		if i >= 7 {
			p.Content = strings.Repeat("b", 300)
			p.Reactions.Likes = 1
		}
		h.posts.items = append(h.posts.items, p)
		want["post:"+p.ID] = true

		score := 40
		if i%3 == 0 {
			score = 90
		}
		r := rating(fmt.Sprintf("r%02d", i), "B", "G", score, now.Add(-time.Duration(i)*time.Hour-30*time.Minute))
		h.reviews.items = append(h.reviews.items, r)
		want["rating:"+r.ID] = true
	}

	for _, limit := range []int{1, 3, 5} {
		emitted := walkForYou(t, h, limit)
		got := map[string]bool{}
		for _, k := range emitted {
			got[k] = true
		}
		assert.Equal(t, want, got, "limit %d", limit)
	}
}

func TestBuildPage_DegradedSource(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.following["viewer"] = []string{"A"}
	h.posts.items = []domain.FeedItem{post("p1", "A", now.Add(-time.Minute))}
	h.reviews.err = fmt.Errorf("query reviews: %w", domain.ErrSourceUnavailable)

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{ViewerID: "viewer", Scope: domain.ScopeFollowing})
	require.NoError(t, err, "a failing source never fails the page")
	assert.Equal(t, []string{"post:p1"}, keys(page.Items))
	assert.Equal(t, []string{"reviews"}, page.DegradedSources)
	assert.Equal(t, 1, h.reviews.calls(), "a failed source is not retried within the page")

	token, err := domain.DecodePageToken(page.NextCursor)
	require.NoError(t, err)
	_, ok := token["reviews"]
	assert.False(t, ok, "the failed source keeps its previous (empty) cursor")
}

func TestBuildPage_AllSourcesDown(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.posts.err = errBoom
	h.reviews.err = errBoom

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Equal(t, []string{"posts", "reviews"}, page.DegradedSources)
}

func TestBuildPage_Filter(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.posts.items = []domain.FeedItem{post("p1", "A", now.Add(-time.Minute))}
	h.reviews.items = []domain.FeedItem{
		rating("r1", "B", "G1", 80, now.Add(-2*time.Minute)),
		rating("r2", "B", "G2", 80, now.Add(-3*time.Minute)),
	}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, FilterTag: "game:G2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rating:r2"}, keys(page.Items))

	page, err = h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, FilterTag: "post"})
	require.NoError(t, err)
	assert.Equal(t, []string{"post:p1"}, keys(page.Items))
}

func TestBuildPage_AnonymousForYou(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.posts.items = []domain.FeedItem{post("p1", "A", now.Add(-time.Hour))}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.InDelta(t, 1.0, page.Items[0].Score, 1e-9)
	assert.Zero(t, h.graph.calls, "anonymous viewers never hit the graph")
}

func TestBuildPage_InvalidInput(t *testing.T) {
	h := newHarness(DefaultSettings())

	_, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: "trending"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, FilterTag: "video"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, Cursor: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestBuildPage_GraphDown(t *testing.T) {
	h := newHarness(DefaultSettings())
	h.graph.err = errBoom

	_, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{ViewerID: "viewer", Scope: domain.ScopeForYou})
	assert.ErrorIs(t, err, domain.ErrGraphUnavailable)
}

func TestBuildPage_LimitClamped(t *testing.T) {
	h := newHarness(DefaultSettings())
	for i := 0; i < 150; i++ {
		h.posts.items = append(h.posts.items, post(fmt.Sprintf("p%03d", i), "A", now.Add(-time.Duration(i)*time.Second)))
	}

	page, err := h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Items, 100)

	page, err = h.svc.BuildPage(context.Background(), domain.FeedRequest{Scope: domain.ScopeForYou})
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
}
