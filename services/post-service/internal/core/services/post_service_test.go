package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/gamefeed/pkg/ratelimit"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/ports"
)

type memoryRepo struct {
	posts map[string]*domain.Post
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{posts: map[string]*domain.Post{}}
}

func (r *memoryRepo) Save(_ context.Context, p *domain.Post) error {
	r.posts[p.ID] = p
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	delete(r.posts, id)
	return nil
}

func (r *memoryRepo) ListByAuthor(_ context.Context, authorID string, limit int, c domain.PageCursor) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, p := range r.posts {
		if p.AuthorID != authorID {
			continue
		}
		if !c.IsZero() && !(p.CreatedAt.Before(c.CreatedAt) || (p.CreatedAt.Equal(c.CreatedAt) && p.ID < c.ID)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingPublisher struct {
	created, deleted []string
}

func (p *recordingPublisher) PublishPostCreated(_ context.Context, post *domain.Post) error {
	p.created = append(p.created, post.ID)
	return nil
}

func (p *recordingPublisher) PublishPostDeleted(_ context.Context, post *domain.Post) error {
	p.deleted = append(p.deleted, post.ID)
	return nil
}

type fixture struct {
	repo  *memoryRepo
	pub   *recordingPublisher
	clock *clockwork.FakeClock
	svc   ports.PostService
}

func newFixture(budget int) *fixture {
	f := &fixture{
		repo:  newMemoryRepo(),
		pub:   &recordingPublisher{},
		clock: clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)),
	}
	limiter := ratelimit.NewMemoryLimiter(f.clock, ratelimit.Budgets{
		Default: ratelimit.Budget{Limit: budget, Window: time.Minute},
	})
	f.svc = NewPostService(f.repo, f.pub, limiter, f.clock)
	return f
}

func TestCreatePost(t *testing.T) {
	f := newFixture(10)

	post, err := f.svc.CreatePost(context.Background(), ports.CreatePostInput{
		AuthorID: "u1",
		GameID:   " g1 ",
		Content:  "  first clear!  ",
		Media:    []domain.Media{{URL: "https://cdn/a.png", Type: domain.MediaTypeImage}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "first clear!", post.Content)
	assert.Equal(t, "g1", post.GameID)
	assert.NotEmpty(t, post.Media[0].ID)
	assert.Equal(t, f.clock.Now().UTC(), post.CreatedAt)
	assert.Equal(t, []string{post.ID}, f.pub.created)
}

func TestCreatePost_Validation(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	_, err := f.svc.CreatePost(ctx, ports.CreatePostInput{AuthorID: "u1", Content: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreatePost(ctx, ports.CreatePostInput{AuthorID: "u1", Content: strings.Repeat("x", domain.MaxContentRunes+1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreatePost(ctx, ports.CreatePostInput{AuthorID: "u1", Content: "ok", Media: []domain.Media{{URL: "x", Type: "gif"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreatePost(ctx, ports.CreatePostInput{Content: "anonymous"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Empty(t, f.repo.posts)
}

func TestCreatePost_RateLimited(t *testing.T) {
	f := newFixture(2)
	ctx := context.Background()
	in := ports.CreatePostInput{AuthorID: "u1", Content: "spam"}

	for i := 0; i < 2; i++ {
		_, err := f.svc.CreatePost(ctx, in)
		require.NoError(t, err)
	}
	_, err := f.svc.CreatePost(ctx, in)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = f.svc.CreatePost(ctx, ports.CreatePostInput{AuthorID: "u2", Content: "hello"})
	assert.NoError(t, err, "budgets are per viewer")

	f.clock.Advance(time.Minute)
	_, err = f.svc.CreatePost(ctx, in)
	assert.NoError(t, err, "budget refills after the window")
}

func TestDeletePost(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()
	post, err := f.svc.CreatePost(ctx, ports.CreatePostInput{AuthorID: "u1", Content: "bye"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, post.ID, "u2"), domain.ErrForbidden)
	require.NoError(t, f.svc.DeletePost(ctx, post.ID, "u1"))
	assert.Equal(t, []string{post.ID}, f.pub.deleted)

	_, err = f.svc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPostsByAuthor_KeysetPagination(t *testing.T) {
	f := newFixture(100)
	ctx := context.Background()
	// 5 posts dont 3 au même instant
	for i := 0; i < 5; i++ {
		if i >= 3 {
			f.clock.Advance(time.Second)
		}
		_, err := f.svc.CreatePost(ctx, ports.CreatePostInput{AuthorID: "u1", Content: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	token := ""
	pages := 0
	for {
		posts, next, err := f.svc.ListPostsByAuthor(ctx, "u1", 2, token)
		require.NoError(t, err)
		pages++
		for _, p := range posts {
			require.False(t, seen[p.ID], "post %s listed twice", p.ID)
			seen[p.ID] = true
		}
		if next == "" {
			break
		}
		token = next
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)

	_, _, err := f.svc.ListPostsByAuthor(ctx, "u1", 2, "!!")
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
