package ports

import (
	"context"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// --- DRIVING (Ce que le service expose) ---

type FeedService interface {
	// BuildPage est une fonction pure de ses entrées + l'état courant des sources et du graphe.
	BuildPage(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error)
}

// VisibilityInvalidator est appelé par le consumer NATS quand une arête block/mute change.
type VisibilityInvalidator interface {
	Invalidate(ctx context.Context, viewerIDs ...string) error
}
