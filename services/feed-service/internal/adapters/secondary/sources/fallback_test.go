package sources

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

// recordingQuerier échoue systématiquement et garde les requêtes reçues.
type recordingQuerier struct {
	errs []error
	sqls []string
}

func (q *recordingQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.sqls = append(q.sqls, sql)
	err := q.errs[0]
	if len(q.errs) > 1 {
		q.errs = q.errs[1:]
	}
	return nil, err
}

func TestTranslatePgError(t *testing.T) {
	for _, code := range []string{"42P01", "42703", "42883"} {
		err := translatePgError(&pgconn.PgError{Code: code, Message: "nope"})
		assert.ErrorIs(t, err, domain.ErrSchemaMismatch, code)
	}
	other := &pgconn.PgError{Code: "57014"}
	assert.Same(t, error(other), translatePgError(other))
	assert.NoError(t, translatePgError(nil))
}

func TestWithSchemaFallback(t *testing.T) {
	ctx := context.Background()
	mismatch := func(context.Context) (int, error) { return 0, &pgconn.PgError{Code: "42P01"} }
	ok := func(v int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return v, nil }
	}

	got, err := withSchemaFallback(ctx, "posts", ok(1), ok(2))
	require.NoError(t, err)
	assert.Equal(t, 1, got, "primary wins when it works")

	got, err = withSchemaFallback(ctx, "posts", mismatch, ok(2))
	require.NoError(t, err)
	assert.Equal(t, 2, got, "legacy answers on schema mismatch")

	legacyCalls := 0
	down := errors.New("connection refused")
	_, err = withSchemaFallback(ctx, "posts",
		func(context.Context) (int, error) { return 0, down },
		func(context.Context) (int, error) { legacyCalls++; return 0, nil },
	)
	assert.ErrorIs(t, err, down)
	assert.Zero(t, legacyCalls, "outages do not trigger the fallback")

	_, err = withSchemaFallback(ctx, "posts", mismatch, mismatch)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestPostsSource_FallbackExhausted(t *testing.T) {
	db := &recordingQuerier{errs: []error{&pgconn.PgError{Code: "42P01"}, &pgconn.PgError{Code: "42703"}}}
	src := NewPostsSource(db)

	_, err := src.FetchPage(context.Background(), ports.SourceQuery{Scope: domain.ScopeForYou, Limit: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	var srcErr *domain.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "posts", srcErr.Source)

	require.Len(t, db.sqls, 2, "exactly one retry")
	assert.Contains(t, db.sqls[0], "FROM feed_posts_v")
	assert.Contains(t, db.sqls[1], "FROM posts")
	assert.Contains(t, db.sqls[1], "user_id")
}

func TestReviewsSource_OutageIsNotRetried(t *testing.T) {
	db := &recordingQuerier{errs: []error{errors.New("dial tcp: refused")}}
	_, err := NewReviewsSource(db).FetchPage(context.Background(), ports.SourceQuery{Scope: domain.ScopeForYou, Limit: 10})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Len(t, db.sqls, 1)
}

func TestSources_FilterShortCircuit(t *testing.T) {
	db := &recordingQuerier{errs: []error{errors.New("should not be called")}}

	page, err := NewPostsSource(db).FetchPage(context.Background(), ports.SourceQuery{
		Filter: domain.FilterTag{Kinds: []domain.Kind{domain.KindRating}},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.True(t, page.Exhausted)

	page, err = NewReviewsSource(db).FetchPage(context.Background(), ports.SourceQuery{
		Filter: domain.FilterTag{Kinds: []domain.Kind{domain.KindPost}},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.True(t, page.Exhausted)
	assert.Empty(t, db.sqls)
}

func TestReviewKindCondition(t *testing.T) {
	cond, ok := reviewKindCondition(domain.FilterTag{})
	assert.True(t, ok)
	assert.Empty(t, cond)

	cond, ok = reviewKindCondition(domain.FilterTag{Kinds: []domain.Kind{domain.KindReview}})
	assert.True(t, ok)
	assert.True(t, strings.HasSuffix(cond, "<> ''"))

	cond, ok = reviewKindCondition(domain.FilterTag{Kinds: []domain.Kind{domain.KindRating}})
	assert.True(t, ok)
	assert.True(t, strings.HasSuffix(cond, "= ''"))
}
