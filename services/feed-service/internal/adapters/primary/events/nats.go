package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/gamefeed/pkg/events"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

const invalidateTimeout = 5 * time.Second

type EventHandler struct {
	visibility ports.VisibilityInvalidator
}

func NewEventHandler(visibility ports.VisibilityInvalidator) *EventHandler {
	return &EventHandler{visibility: visibility}
}

// Subscribe branche le handler sur graph.> .
func (h *EventHandler) Subscribe(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(events.SubjectGraphAll, h.HandleRelationChanged)
}

// HandleRelationChanged purge le VisibilitySet des deux extrémités d'une arête
// block/mute : blockedMe côté cible, blockedByMe/mutedByMe côté acteur.
func (h *EventHandler) HandleRelationChanged(msg *nats.Msg) {
	ctx := events.Extract(msg)
	ctx, span := otel.Tracer("feed-service").Start(ctx, "process_relation_changed", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var event events.RelationChanged
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		span.RecordError(err)
		slog.Error("❌ Invalid event format", "subject", msg.Subject, "error", err)
		return
	}
	span.SetAttributes(attribute.String("graph.relation", event.Relation))

	// Les follows ne sont pas mis en cache
	switch strings.ToUpper(event.Relation) {
	case "BLOCKS", "MUTES":
	default:
		return
	}

	ctx, cancel := context.WithTimeout(ctx, invalidateTimeout)
	defer cancel()
	if err := h.visibility.Invalidate(ctx, event.ActorID, event.TargetID); err != nil {
		span.RecordError(err)
		slog.Error("❌ Visibility invalidation failed", "actor_id", event.ActorID, "target_id", event.TargetID, "error", err)
		return
	}
	slog.Debug("Visibility cache invalidated", "relation", event.Relation, "actor_id", event.ActorID, "target_id", event.TargetID)
}
