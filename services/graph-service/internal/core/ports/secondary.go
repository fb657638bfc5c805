package ports

import (
	"context"

	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/domain"
)

// GraphRepository est le port Driven (Database Neo4j)
type GraphRepository interface {
	// EnsureSchema crée les contraintes et index (Idempotent)
	EnsureSchema(ctx context.Context) error

	// CreateRelation est idempotent (MERGE). Un BLOCKS supprime les FOLLOWS dans les deux sens.
	CreateRelation(ctx context.Context, rel domain.Relation) error
	DeleteRelation(ctx context.Context, actorID, targetID string, relType domain.RelationType) error
	GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	ListFollowing(ctx context.Context, userID string) ([]string, error)
	GetBlocksAndMutes(ctx context.Context, userID string) (*domain.VisibilityLists, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}
