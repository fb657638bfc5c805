package eventbroker

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/jupiterclapton/gamefeed/pkg/events"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
)

type NatsPublisher struct {
	inner *events.Publisher
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{inner: events.NewPublisher(nc)}
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	slog.Info("📢 Publishing event with trace context", "topic", events.SubjectPostCreated, "post_id", post.ID)
	return p.inner.Publish(ctx, events.SubjectPostCreated, events.PostCreated{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		GameID:    post.GameID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	})
}

func (p *NatsPublisher) PublishPostDeleted(ctx context.Context, post *domain.Post) error {
	return p.inner.Publish(ctx, events.SubjectPostDeleted, events.PostDeleted{
		ID:       post.ID,
		AuthorID: post.AuthorID,
	})
}
