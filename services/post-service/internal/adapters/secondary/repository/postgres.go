package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/ports"
)

// DTO interne pour mapper le JSONB proprement sans polluer le Domain avec des tags JSON.
// C'est aussi le format lu par les sources du feed-service.
type mediaDTO struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

const postColumns = `id, user_id, COALESCE(game_id, ''), content, media, created_at, updated_at`

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) ports.PostRepository {
	return &PostgresRepo{db: db}
}

// Save : Insertion simple
func (r *PostgresRepo) Save(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, user_id, game_id, content, media, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`
	mediaJSON, err := marshalMedia(post.Media)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.GameID,
		post.Content,
		mediaJSON,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return err
}

// FindByID : Récupération unitaire
func (r *PostgresRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return r.scanPost(r.db.QueryRow(ctx, query, postID))
}

// ListByAuthor : PAGINATION KEYSET (Cursor-based)
// Le couple (created_at, id) départage les posts publiés au même instant.
func (r *PostgresRepo) ListByAuthor(ctx context.Context, authorID string, limit int, cursor domain.PageCursor) ([]*domain.Post, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor.IsZero() {
		// Cas 1: Première page
		rows, err = r.db.Query(ctx, `
			SELECT `+postColumns+`
			FROM posts
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, authorID, limit)
	} else {
		// Cas 2: Page suivante
		rows, err = r.db.Query(ctx, `
			SELECT `+postColumns+`
			FROM posts
			WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`, authorID, cursor.CreatedAt, cursor.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectRows(rows)
}

func (r *PostgresRepo) Delete(ctx context.Context, postID string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- Helpers pour éviter la duplication de code ---

func (r *PostgresRepo) scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var mediaJSON []byte
	if err := row.Scan(&p.ID, &p.AuthorID, &p.GameID, &p.Content, &mediaJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Media = unmarshalMedia(mediaJSON)
	return &p, nil
}

func (r *PostgresRepo) collectRows(rows pgx.Rows) ([]*domain.Post, error) {
	var posts []*domain.Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func marshalMedia(media []domain.Media) ([]byte, error) {
	dtos := make([]mediaDTO, len(media))
	for i, m := range media {
		dtos[i] = mediaDTO{ID: m.ID, URL: m.URL, Type: string(m.Type)}
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal media: %w", err)
	}
	return data, nil
}

func unmarshalMedia(data []byte) []domain.Media {
	var dtos []mediaDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return []domain.Media{} // Fallback safe
	}
	out := make([]domain.Media, len(dtos))
	for i, d := range dtos {
		out[i] = domain.Media{ID: d.ID, URL: d.URL, Type: domain.MediaType(d.Type)}
	}
	return out
}
