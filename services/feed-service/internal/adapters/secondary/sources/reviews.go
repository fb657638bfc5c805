package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

const (
	enrichedReviewColumns = `id, author_id, author_username, author_display_name, author_avatar_url,
		game_id, game_name, game_cover_url, rating, body,
		like_count::bigint, comment_count::bigint, created_at`
	legacyReviewColumns = `id, author_id, ''::text, ''::text, ''::text,
		game_id, NULL::text, NULL::text, rating, body,
		0::bigint, 0::bigint, created_at`
)

// ReviewsSource lit reviews et ratings (même table, kind dérivé du texte).
type ReviewsSource struct {
	db Querier
}

func NewReviewsSource(db Querier) *ReviewsSource {
	return &ReviewsSource{db: db}
}

func (s *ReviewsSource) Name() string { return "reviews" }

func (s *ReviewsSource) FetchPage(ctx context.Context, q ports.SourceQuery) (ports.SourcePage, error) {
	kindCond, ok := reviewKindCondition(q.Filter)
	if !ok || q.Limit <= 0 {
		return ports.SourcePage{Items: []domain.FeedItem{}, Exhausted: true}, nil
	}
	var extra []string
	if kindCond != "" {
		extra = append(extra, kindCond)
	}

	rows, err := withSchemaFallback(ctx, s.Name(),
		func(ctx context.Context) ([]reviewRow, error) {
			sql, args := pageSQL(enrichedReviewColumns, "feed_reviews_v", "author_id", q, extra...)
			return s.query(ctx, sql, args)
		},
		func(ctx context.Context) ([]reviewRow, error) {
			sql, args := pageSQL(legacyReviewColumns, "reviews", "author_id", q, extra...)
			return s.query(ctx, sql, args)
		},
	)
	if err != nil {
		return ports.SourcePage{}, &domain.SourceError{Source: s.Name(), Err: err}
	}

	items := make([]domain.FeedItem, len(rows))
	for i, row := range rows {
		items[i] = normalizeReview(row)
	}
	return ports.SourcePage{Items: items, Exhausted: len(items) < q.Limit}, nil
}

// reviewKindCondition pousse le filtre review/rating en SQL ; ok=false si
// le filtre exclut les deux kinds.
func reviewKindCondition(f domain.FilterTag) (string, bool) {
	review, rating := f.AllowsKind(domain.KindReview), f.AllowsKind(domain.KindRating)
	switch {
	case review && rating:
		return "", true
	case review:
		return "NOT (" + blankBodySQL + ")", true
	case rating:
		return blankBodySQL, true
	default:
		return "", false
	}
}

func (s *ReviewsSource) query(ctx context.Context, sql string, args []any) ([]reviewRow, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reviewRow, error) {
		var r reviewRow
		err := row.Scan(
			&r.ID, &r.Author.ID, &r.Author.Username, &r.Author.DisplayName, &r.Author.AvatarURL,
			&r.Game.ID, &r.Game.Name, &r.Game.CoverURL, &r.Rating, &r.Body,
			&r.Likes, &r.Comments, &r.CreatedAt,
		)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	return out, nil
}
