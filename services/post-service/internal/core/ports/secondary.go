package ports

import (
	"context"

	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
)

type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, postID string) (*domain.Post, error)
	Delete(ctx context.Context, postID string) error

	// Pagination keyset : (created_at, id) < cursor
	ListByAuthor(ctx context.Context, authorID string, limit int, cursor domain.PageCursor) ([]*domain.Post, error)
}

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
	PublishPostDeleted(ctx context.Context, post *domain.Post) error
}

// RateLimiter est satisfait par pkg/ratelimit.
type RateLimiter interface {
	Allow(ctx context.Context, subject, action string) error
}
