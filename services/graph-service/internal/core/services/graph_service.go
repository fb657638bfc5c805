package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jupiterclapton/gamefeed/pkg/events"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/ports"
)

type graphService struct {
	repo      ports.GraphRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewGraphService(repo ports.GraphRepository, pub ports.EventPublisher) ports.GraphService {
	return &graphService{repo: repo, publisher: pub, now: time.Now}
}

func validatePair(actorID, targetID string) error {
	if actorID == "" || targetID == "" {
		return fmt.Errorf("%w: ids cannot be empty", domain.ErrValidation)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: self relations are not allowed", domain.ErrValidation)
	}
	return nil
}

func (s *graphService) CreateRelation(ctx context.Context, actorID, targetID string, relType domain.RelationType) error {
	if err := validatePair(actorID, targetID); err != nil {
		return err
	}
	rel := domain.Relation{ActorID: actorID, TargetID: targetID, Type: relType, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateRelation(ctx, rel); err != nil {
		return err
	}
	s.publish(ctx, rel, true)
	return nil
}

func (s *graphService) DeleteRelation(ctx context.Context, actorID, targetID string, relType domain.RelationType) error {
	if err := validatePair(actorID, targetID); err != nil {
		return err
	}
	if err := s.repo.DeleteRelation(ctx, actorID, targetID, relType); err != nil {
		return err
	}
	s.publish(ctx, domain.Relation{ActorID: actorID, TargetID: targetID, Type: relType, CreatedAt: s.now().UTC()}, false)
	return nil
}

// publish ne fait pas échouer l'écriture : la donnée est déjà dans Neo4j et le
// cache de visibilité du feed expire de lui-même (TTL court).
func (s *graphService) publish(ctx context.Context, rel domain.Relation, created bool) {
	if s.publisher == nil {
		return
	}
	subject := events.GraphSubject(rel.Type.EventName(), created)
	err := s.publisher.Publish(ctx, subject, events.RelationChanged{
		ActorID:  rel.ActorID,
		TargetID: rel.TargetID,
		Relation: string(rel.Type),
		Created:  created,
		At:       rel.CreatedAt,
	})
	if err != nil {
		slog.Error("❌ Failed to publish relation event", "subject", subject, "error", err)
	}
}

func (s *graphService) CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	if actorID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: ids cannot be empty", domain.ErrValidation)
	}
	return s.repo.GetRelationStatus(ctx, actorID, targetID)
}

func (s *graphService) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.repo.ListFollowing(ctx, userID)
}

func (s *graphService) GetBlocksAndMutes(ctx context.Context, userID string) (*domain.VisibilityLists, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.repo.GetBlocksAndMutes(ctx, userID)
}
