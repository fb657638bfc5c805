// Package events regroupe les sujets NATS et les payloads échangés entre
// services (contrat implicite), avec la propagation du contexte de trace
// dans les headers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	SubjectPostCreated     = "post.created"
	SubjectPostDeleted     = "post.deleted"
	SubjectGraphAll        = "graph.>"
	SubjectReactionToggled = "reaction.toggled"
	SubjectCommentAdded    = "comment.added"
	SubjectCommentDeleted  = "comment.deleted"
)

// GraphSubject donne "graph.<relation>.<created|deleted>", ex: graph.blocks.created
func GraphSubject(relation string, created bool) string {
	op := "deleted"
	if created {
		op = "created"
	}
	return fmt.Sprintf("graph.%s.%s", relation, op)
}

type PostCreated struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	GameID    string    `json:"game_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PostDeleted struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
}

type RelationChanged struct {
	ActorID  string    `json:"actor_id"`
	TargetID string    `json:"target_id"`
	Relation string    `json:"relation"` // FOLLOWS, BLOCKS, MUTES
	Created  bool      `json:"created"`
	At       time.Time `json:"at"`
}

type ReactionToggled struct {
	Key      string `json:"key"`
	ViewerID string `json:"viewer_id"`
	Liked    bool   `json:"liked"`
	Count    int    `json:"count"`
	Delta    int    `json:"delta"`
}

type CommentChanged struct {
	Key       string `json:"key"`
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
	Count     int    `json:"count"`
}

// Publisher publie des payloads JSON en injectant le TraceID dans les headers NATS.
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	return p.nc.PublishMsg(msg)
}

// Extract reconstruit le contexte de trace du producteur depuis les headers.
func Extract(msg *nats.Msg) context.Context {
	ctx := context.Background()
	if msg.Header == nil {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
}
