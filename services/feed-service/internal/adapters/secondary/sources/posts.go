package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

const (
	enrichedPostColumns = `id, author_id, author_username, author_display_name, author_avatar_url,
		game_id, game_name, game_cover_url, content, COALESCE(media, '[]'::jsonb),
		like_count::bigint, comment_count::bigint, share_count::bigint, created_at`
	legacyPostColumns = `id, user_id, ''::text, ''::text, ''::text,
		game_id, NULL::text, NULL::text, content, COALESCE(media, '[]'::jsonb),
		0::bigint, 0::bigint, 0::bigint, created_at`
)

// PostsSource lit les posts : vue enrichie feed_posts_v, repli sur la table posts.
type PostsSource struct {
	db Querier
}

func NewPostsSource(db Querier) *PostsSource {
	return &PostsSource{db: db}
}

func (s *PostsSource) Name() string { return "posts" }

func (s *PostsSource) FetchPage(ctx context.Context, q ports.SourceQuery) (ports.SourcePage, error) {
	if !q.Filter.AllowsKind(domain.KindPost) || q.Limit <= 0 {
		return ports.SourcePage{Items: []domain.FeedItem{}, Exhausted: true}, nil
	}

	rows, err := withSchemaFallback(ctx, s.Name(),
		func(ctx context.Context) ([]postRow, error) {
			sql, args := pageSQL(enrichedPostColumns, "feed_posts_v", "author_id", q)
			return s.query(ctx, sql, args)
		},
		func(ctx context.Context) ([]postRow, error) {
			sql, args := pageSQL(legacyPostColumns, "posts", "user_id", q)
			return s.query(ctx, sql, args)
		},
	)
	if err != nil {
		return ports.SourcePage{}, &domain.SourceError{Source: s.Name(), Err: err}
	}

	items := make([]domain.FeedItem, len(rows))
	for i, row := range rows {
		items[i] = normalizePost(row)
	}
	return ports.SourcePage{Items: items, Exhausted: len(items) < q.Limit}, nil
}

func (s *PostsSource) query(ctx context.Context, sql string, args []any) ([]postRow, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (postRow, error) {
		var p postRow
		err := row.Scan(
			&p.ID, &p.Author.ID, &p.Author.Username, &p.Author.DisplayName, &p.Author.AvatarURL,
			&p.Game.ID, &p.Game.Name, &p.Game.CoverURL, &p.Content, &p.Media,
			&p.Likes, &p.Comments, &p.Shares, &p.CreatedAt,
		)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	return out, nil
}
