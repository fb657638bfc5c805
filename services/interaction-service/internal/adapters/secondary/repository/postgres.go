package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/gamefeed/pkg/reactable"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/ports"
)

// Les deux tables sont indexées par la forme canonique de la clé
// ("post:<id>" ou "review:<author>:<game>"), c'est aussi ce que joignent les vues du feed.
const (
	likeSQL   = `INSERT INTO reactions (reactable_key, user_id, created_at) VALUES ($1, $2, now()) ON CONFLICT DO NOTHING`
	unlikeSQL = `DELETE FROM reactions WHERE reactable_key = $1 AND user_id = $2`

	stateSQL = `
		SELECT
			(SELECT count(*) FROM reactions WHERE reactable_key = $1),
			EXISTS (SELECT 1 FROM reactions WHERE reactable_key = $1 AND user_id = $2),
			(SELECT count(*) FROM comments WHERE reactable_key = $1)`
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) ports.InteractionRepository {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) SetReaction(ctx context.Context, key reactable.Key, viewerID string, liked bool) (bool, error) {
	query := unlikeSQL
	if liked {
		query = likeSQL
	}
	tag, err := r.db.Exec(ctx, query, key.String(), viewerID)
	if err != nil {
		return false, fmt.Errorf("set reaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) GetReactionState(ctx context.Context, key reactable.Key, viewerID string) (domain.ReactionState, error) {
	var (
		likes, comments int64
		liked           bool
	)
	if err := r.db.QueryRow(ctx, stateSQL, key.String(), viewerID).Scan(&likes, &liked, &comments); err != nil {
		return domain.ReactionState{}, fmt.Errorf("reaction state: %w", err)
	}
	return domain.ReactionState{Liked: liked, Count: int(likes), Comments: int(comments)}, nil
}

func (r *PostgresRepo) SaveComment(ctx context.Context, c *domain.Comment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO comments (id, reactable_key, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Key.String(), c.AuthorID, c.Body, c.CreatedAt)
	return err
}

func (r *PostgresRepo) FindComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	var (
		c   domain.Comment
		raw string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, reactable_key, author_id, body, created_at
		FROM comments WHERE id = $1`, commentID).
		Scan(&c.ID, &raw, &c.AuthorID, &c.Body, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if c.Key, err = reactable.Parse(raw); err != nil {
		return nil, fmt.Errorf("comment %s: %w", commentID, err)
	}
	return &c, nil
}

func (r *PostgresRepo) DeleteComment(ctx context.Context, commentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) CountComments(ctx context.Context, key reactable.Key) (int, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM comments WHERE reactable_key = $1`, key.String()).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}
