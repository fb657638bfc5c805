package eventbroker

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/jupiterclapton/gamefeed/pkg/events"
)

type NatsPublisher struct {
	inner *events.Publisher
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{inner: events.NewPublisher(nc)}
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload any) error {
	slog.Debug("📢 Publishing interaction event", "topic", subject)
	return p.inner.Publish(ctx, subject, payload)
}
