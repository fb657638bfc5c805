package reactionsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
)

const (
	TopicReactions = "reactionsync.reactions"
	TopicComments  = "reactionsync.comments"
)

// Message circule entre onglets. Origin identifie l'émetteur, qui ignore ses propres messages.
type Message struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
	Liked  bool   `json:"liked,omitempty"`
	Delta  int    `json:"delta"`
}

// LocalBus relie les clients d'un même appareil.
type LocalBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe appelle handler pour chaque message jusqu'à l'annulation de ctx.
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
	Close() error
}

// --- Même process (watermill gochannel) ---

type GoChannelBus struct {
	pubsub *gochannel.GoChannel
}

func NewGoChannelBus(logger watermill.LoggerAdapter) *GoChannelBus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &GoChannelBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
	}
}

func (b *GoChannelBus) Publish(_ context.Context, topic string, payload []byte) error {
	return b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

func (b *GoChannelBus) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			handler(msg.Payload)
			msg.Ack()
		}
	}()
	return nil
}

func (b *GoChannelBus) Close() error {
	return b.pubsub.Close()
}

// --- Même appareil, plusieurs process (NATS local) ---

// NatsBus préfixe les sujets par l'identifiant d'appareil : les messages ne sortent pas de l'appareil.
type NatsBus struct {
	nc     *nats.Conn
	prefix string

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNatsBus(nc *nats.Conn, deviceID string) *NatsBus {
	return &NatsBus{nc: nc, prefix: "device." + deviceID + "."}
}

func (b *NatsBus) subject(topic string) string {
	return b.prefix + topic
}

func (b *NatsBus) Publish(_ context.Context, topic string, payload []byte) error {
	if err := b.nc.Publish(b.subject(topic), payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", topic, err)
	}
	return nil
}

func (b *NatsBus) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	sub, err := b.nc.Subscribe(b.subject(topic), func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", topic, err)
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (b *NatsBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	return nil
}
