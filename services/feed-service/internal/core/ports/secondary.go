package ports

import (
	"context"
	"time"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// --- DRIVEN (Ce dont le service a besoin) ---

// SourceQuery est le contrat commun "fetch page since cursor" de toutes les sources.
type SourceQuery struct {
	Scope   domain.Scope
	Authors []string // allowlist (following), ignorée en forYou
	Exclude []string // push-down du filtre de visibilité
	Filter  domain.FilterTag
	Since   time.Time // fenêtre forYou, zéro = pas de borne
	Cursor  domain.Cursor
	Limit   int
}

type SourcePage struct {
	Items     []domain.FeedItem
	Exhausted bool // moins de Limit lignes : la source n'a plus rien dans cette fenêtre
}

// ContentSource encapsule un type de contenu physique (posts, reviews).
// Ordre toujours (createdAt desc, id desc). Lecture seule.
type ContentSource interface {
	Name() string
	FetchPage(ctx context.Context, q SourceQuery) (SourcePage, error)
}

type SocialGraph interface {
	GetFollowing(ctx context.Context, viewerID string) ([]string, error)
	GetBlocksAndMutes(ctx context.Context, viewerID string) (domain.VisibilitySet, error)
}

// SignalsRepository fournit la bibliothèque et l'historique de reviews du viewer.
type SignalsRepository interface {
	GetLibrary(ctx context.Context, viewerID string) (map[string]domain.LibraryStatus, error)
	GetReviewedGames(ctx context.Context, viewerID string) (map[string]struct{}, error)
}

// VisibilityCache borne la fraîcheur des VisibilitySet (TTL court, ~10s).
type VisibilityCache interface {
	Get(ctx context.Context, viewerID string) (domain.VisibilitySet, bool, error)
	Set(ctx context.Context, viewerID string, set domain.VisibilitySet, ttl time.Duration) error
	Delete(ctx context.Context, viewerIDs ...string) error
}
