package ports

import (
	"context"

	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
)

type CreatePostInput struct {
	AuthorID string
	GameID   string
	Content  string
	Media    []domain.Media
}

type PostService interface {
	CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	DeletePost(ctx context.Context, postID, userID string) error

	// Pagination profil : le token est opaque pour l'appelant
	ListPostsByAuthor(ctx context.Context, authorID string, limit int, pageToken string) ([]*domain.Post, string, error)
}
