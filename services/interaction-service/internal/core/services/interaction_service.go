package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/jupiterclapton/gamefeed/pkg/events"
	"github.com/jupiterclapton/gamefeed/pkg/ratelimit"
	"github.com/jupiterclapton/gamefeed/pkg/reactable"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/ports"
)

// Clés de budget du rate limiter.
const (
	ActionToggleReaction = "reaction.toggle"
	ActionAddComment     = "comment.add"
)

type service struct {
	repo      ports.InteractionRepository
	publisher ports.EventPublisher
	limiter   ports.RateLimiter
	clock     clockwork.Clock
}

func NewInteractionService(repo ports.InteractionRepository, pub ports.EventPublisher, limiter ports.RateLimiter, clock clockwork.Clock) ports.InteractionService {
	return &service{repo: repo, publisher: pub, limiter: limiter, clock: clock}
}

func (s *service) ToggleReaction(ctx context.Context, viewerID, rawKey, rawAction string) (domain.ReactionState, error) {
	// 1. Validation
	if viewerID == "" {
		return domain.ReactionState{}, domain.ErrUnauthorized
	}
	key, err := parseKey(rawKey)
	if err != nil {
		return domain.ReactionState{}, err
	}
	action, err := domain.ParseAction(rawAction)
	if err != nil {
		return domain.ReactionState{}, err
	}

	// 2. Budget (l'appelant décide de réessayer, jamais nous)
	if err := s.allow(ctx, viewerID, ActionToggleReaction); err != nil {
		return domain.ReactionState{}, err
	}

	// 3. Écriture
	current, err := s.repo.GetReactionState(ctx, key, viewerID)
	if err != nil {
		return domain.ReactionState{}, err
	}
	desired := action.Resolve(current.Liked)
	changed, err := s.repo.SetReaction(ctx, key, viewerID, desired)
	if err != nil {
		return domain.ReactionState{}, err
	}

	// 4. Relecture : le compte renvoyé fait autorité, il inclut les autres viewers
	state, err := s.repo.GetReactionState(ctx, key, viewerID)
	if err != nil {
		return domain.ReactionState{}, err
	}

	if changed {
		delta := 1
		if !desired {
			delta = -1
		}
		s.publish(ctx, events.SubjectReactionToggled, events.ReactionToggled{
			Key:      key.String(),
			ViewerID: viewerID,
			Liked:    state.Liked,
			Count:    state.Count,
			Delta:    delta,
		})
	}
	return state, nil
}

func (s *service) GetReactionState(ctx context.Context, viewerID, rawKey string) (domain.ReactionState, error) {
	key, err := parseKey(rawKey)
	if err != nil {
		return domain.ReactionState{}, err
	}
	// viewer anonyme : liked toujours faux
	return s.repo.GetReactionState(ctx, key, viewerID)
}

func (s *service) AddComment(ctx context.Context, viewerID, rawKey, body string) (*domain.Comment, int, error) {
	if viewerID == "" {
		return nil, 0, domain.ErrUnauthorized
	}
	key, err := parseKey(rawKey)
	if err != nil {
		return nil, 0, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, 0, fmt.Errorf("%w: comment cannot be empty", domain.ErrValidation)
	}
	if utf8.RuneCountInString(body) > domain.MaxCommentRunes {
		return nil, 0, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrValidation, domain.MaxCommentRunes)
	}
	if err := s.allow(ctx, viewerID, ActionAddComment); err != nil {
		return nil, 0, err
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		Key:       key,
		AuthorID:  viewerID,
		Body:      body,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.SaveComment(ctx, comment); err != nil {
		return nil, 0, err
	}
	count, err := s.repo.CountComments(ctx, key)
	if err != nil {
		return nil, 0, err
	}

	s.publish(ctx, events.SubjectCommentAdded, events.CommentChanged{
		Key:       key.String(),
		CommentID: comment.ID,
		AuthorID:  viewerID,
		Count:     count,
	})
	return comment, count, nil
}

func (s *service) DeleteComment(ctx context.Context, viewerID, commentID string) (reactable.Key, int, error) {
	if viewerID == "" {
		return reactable.Key{}, 0, domain.ErrUnauthorized
	}
	if commentID == "" {
		return reactable.Key{}, 0, fmt.Errorf("%w: comment id is required", domain.ErrValidation)
	}
	comment, err := s.repo.FindComment(ctx, commentID)
	if err != nil {
		return reactable.Key{}, 0, err
	}
	// Seul l'auteur peut supprimer
	if comment.AuthorID != viewerID {
		return reactable.Key{}, 0, domain.ErrForbidden
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return reactable.Key{}, 0, err
	}
	count, err := s.repo.CountComments(ctx, comment.Key)
	if err != nil {
		return reactable.Key{}, 0, err
	}

	s.publish(ctx, events.SubjectCommentDeleted, events.CommentChanged{
		Key:       comment.Key.String(),
		CommentID: commentID,
		AuthorID:  viewerID,
		Count:     count,
	})
	return comment.Key, count, nil
}

func (s *service) GetCommentCount(ctx context.Context, rawKey string) (int, error) {
	key, err := parseKey(rawKey)
	if err != nil {
		return 0, err
	}
	return s.repo.CountComments(ctx, key)
}

func (s *service) allow(ctx context.Context, viewerID, action string) error {
	if err := s.limiter.Allow(ctx, viewerID, action); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}
		return err
	}
	return nil
}

// publish : l'écriture est déjà faite, un échec NATS ne fait pas échouer la requête.
func (s *service) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		slog.Error("❌ Failed to publish event", "subject", subject, "error", err)
	}
}

func parseKey(raw string) (reactable.Key, error) {
	key, err := reactable.Parse(raw)
	if err != nil {
		return reactable.Key{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return key, nil
}
