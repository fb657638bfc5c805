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

	"github.com/jupiterclapton/gamefeed/pkg/ratelimit"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/ports"
)

// ActionCreatePost est la clé de budget du rate limiter.
const ActionCreatePost = "post.create"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type service struct {
	repo      ports.PostRepository
	publisher ports.EventPublisher
	limiter   ports.RateLimiter
	clock     clockwork.Clock
}

func NewPostService(repo ports.PostRepository, pub ports.EventPublisher, limiter ports.RateLimiter, clock clockwork.Clock) ports.PostService {
	return &service{repo: repo, publisher: pub, limiter: limiter, clock: clock}
}

func (s *service) CreatePost(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
	// 1. Validation
	if in.AuthorID == "" {
		return nil, fmt.Errorf("%w: author is required", domain.ErrUnauthorized)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", domain.ErrValidation)
	}
	if utf8.RuneCountInString(content) > domain.MaxContentRunes {
		return nil, fmt.Errorf("%w: content exceeds %d characters", domain.ErrValidation, domain.MaxContentRunes)
	}
	for i, m := range in.Media {
		if m.URL == "" || !m.Type.Valid() {
			return nil, fmt.Errorf("%w: media #%d is malformed", domain.ErrValidation, i)
		}
	}

	// 2. Budget par viewer (jamais retenté automatiquement)
	if err := s.limiter.Allow(ctx, in.AuthorID, ActionCreatePost); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	media := make([]domain.Media, len(in.Media))
	for i, m := range in.Media {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		media[i] = m
	}
	post := &domain.Post{
		ID:        uuid.NewString(),
		AuthorID:  in.AuthorID,
		GameID:    strings.TrimSpace(in.GameID),
		Content:   content,
		Media:     media,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 3. Sauvegarde DB (Source of Truth)
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}

	// 4. Publication Événement
	// Note: un "Transactional Outbox" rendrait la publication atomique avec l'écriture.
	if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
		// La donnée est sauvée, on ne fait pas échouer la requête utilisateur
		slog.Error("❌ Failed to publish post.created", "post_id", post.ID, "error", err)
	}

	return post, nil
}

func (s *service) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}
	return s.repo.FindByID(ctx, postID)
}

func (s *service) DeletePost(ctx context.Context, postID, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	// Seul l'auteur peut supprimer
	if post.AuthorID != userID {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	if err := s.publisher.PublishPostDeleted(ctx, post); err != nil {
		slog.Error("❌ Failed to publish post.deleted", "post_id", postID, "error", err)
	}
	return nil
}

// ListPostsByAuthor : pagination keyset (created_at, id), robuste aux timestamps égaux.
func (s *service) ListPostsByAuthor(ctx context.Context, authorID string, limit int, pageToken string) ([]*domain.Post, string, error) {
	if authorID == "" {
		return nil, "", fmt.Errorf("%w: author id is required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	// 1. Décodage du Token
	cursor, err := domain.DecodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}

	// 2. Appel au Repository (limit+1 pour savoir s'il reste une page)
	posts, err := s.repo.ListByAuthor(ctx, authorID, limit+1, cursor)
	if err != nil {
		return nil, "", err
	}

	// 3. Calcul du prochain Token
	nextToken := ""
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		nextToken = domain.EncodePageToken(domain.PageCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return posts, nextToken, nil
}
