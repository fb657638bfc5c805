package ports

import (
	"context"

	"github.com/jupiterclapton/gamefeed/pkg/reactable"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/domain"
)

// --- Driving ---

type InteractionService interface {
	ToggleReaction(ctx context.Context, viewerID, key, action string) (domain.ReactionState, error)
	GetReactionState(ctx context.Context, viewerID, key string) (domain.ReactionState, error)
	AddComment(ctx context.Context, viewerID, key, body string) (*domain.Comment, int, error)
	// DeleteComment retourne la clé du fil et le nouveau compte.
	DeleteComment(ctx context.Context, viewerID, commentID string) (reactable.Key, int, error)
	GetCommentCount(ctx context.Context, key string) (int, error)
}

// --- Driven ---

type InteractionRepository interface {
	// SetReaction pose ou retire le like ; changed=false si l'état était déjà celui demandé.
	SetReaction(ctx context.Context, key reactable.Key, viewerID string, liked bool) (changed bool, err error)
	GetReactionState(ctx context.Context, key reactable.Key, viewerID string) (domain.ReactionState, error)

	SaveComment(ctx context.Context, c *domain.Comment) error
	FindComment(ctx context.Context, commentID string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	CountComments(ctx context.Context, key reactable.Key) (int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type RateLimiter interface {
	Allow(ctx context.Context, subject, action string) error
}
