package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

const DefaultVisibilityTTL = 10 * time.Second

// VisibilityFilter calcule (et met en cache) l'ensemble des auteurs masqués pour un viewer.
type VisibilityFilter struct {
	graph ports.SocialGraph
	cache ports.VisibilityCache
	ttl   time.Duration
}

func NewVisibilityFilter(graph ports.SocialGraph, cache ports.VisibilityCache, ttl time.Duration) *VisibilityFilter {
	if ttl <= 0 {
		ttl = DefaultVisibilityTTL
	}
	return &VisibilityFilter{graph: graph, cache: cache, ttl: ttl}
}

// ComputeHidden retourne le VisibilitySet du viewer. Un viewer anonyme ne masque personne.
func (f *VisibilityFilter) ComputeHidden(ctx context.Context, viewerID string) (domain.VisibilitySet, error) {
	if viewerID == "" {
		return domain.VisibilitySet{}, nil
	}

	// 1. Cache (une erreur de cache n'est pas bloquante, on retombe sur le graphe)
	if set, ok, err := f.cache.Get(ctx, viewerID); err != nil {
		slog.Warn("Visibility cache read failed", "viewer_id", viewerID, "error", err)
	} else if ok {
		return set, nil
	}

	// 2. Source de vérité : le Graph Service
	set, err := f.graph.GetBlocksAndMutes(ctx, viewerID)
	if err != nil {
		return domain.VisibilitySet{}, fmt.Errorf("%w: %v", domain.ErrGraphUnavailable, err)
	}
	set = set.WithoutSelf(viewerID)

	if err := f.cache.Set(ctx, viewerID, set, f.ttl); err != nil {
		slog.Warn("Visibility cache write failed", "viewer_id", viewerID, "error", err)
	}
	return set, nil
}

// IsHidden est le prédicat partagé par le push-down et la passe mémoire.
func IsHidden(set domain.VisibilitySet, authorID string) bool {
	return set.IsHidden(authorID)
}

// Invalidate purge le cache (appelé sur les events graph.blocks.* / graph.mutes.*).
func (f *VisibilityFilter) Invalidate(ctx context.Context, viewerIDs ...string) error {
	return f.cache.Delete(ctx, viewerIDs...)
}
