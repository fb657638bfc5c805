package ports

import (
	"context"

	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/domain"
)

// GraphService est le port Driving (API)
type GraphService interface {
	CreateRelation(ctx context.Context, actorID, targetID string, relType domain.RelationType) error
	DeleteRelation(ctx context.Context, actorID, targetID string, relType domain.RelationType) error
	CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	// Lectures utilisées par le feed-service à chaque page
	GetFollowing(ctx context.Context, userID string) ([]string, error)
	GetBlocksAndMutes(ctx context.Context, userID string) (*domain.VisibilityLists, error)
}
