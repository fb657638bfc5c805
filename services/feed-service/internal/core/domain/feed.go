package domain

import (
	"time"

	"github.com/jupiterclapton/gamefeed/pkg/reactable"
)

// Kind discrimine l'union FeedItem (Post | Review | Rating).
type Kind string

const (
	KindPost   Kind = "post"
	KindReview Kind = "review"
	KindRating Kind = "rating"
)

func (k Kind) Valid() bool {
	return k == KindPost || k == KindReview || k == KindRating
}

type Scope string

const (
	ScopeFollowing Scope = "following"
	ScopeForYou    Scope = "forYou"
)

func (s Scope) Valid() bool {
	return s == ScopeFollowing || s == ScopeForYou
}

type Author struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

type Game struct {
	ID       string
	Name     string
	CoverURL string
}

type ReactionCounts struct {
	Likes    int
	Comments int
	Shares   int // toujours 0 pour les reviews/ratings
}

// FeedItem est la forme normalisée de tout contenu du feed.
// Media n'est renseigné que pour les posts, Rating que pour les reviews/ratings.
type FeedItem struct {
	ID        string
	Source    string // nom de la source qui l'a produit (curseur par source)
	Kind      Kind
	CreatedAt time.Time
	Author    Author
	Game      *Game
	Content   string
	Media     []string
	Rating    *int
	Reactions ReactionCounts
	Score     float64 // renseigné uniquement en forYou
}

// ItemKey est la clé de dédoublonnage (kind, id).
type ItemKey struct {
	Kind Kind
	ID   string
}

func (i FeedItem) Key() ItemKey {
	return ItemKey{Kind: i.Kind, ID: i.ID}
}

// Cursor est la position de pagination que représente cet item.
func (i FeedItem) Cursor() Cursor {
	return Cursor{LastID: i.ID, LastCreatedAt: i.CreatedAt}
}

func (i FeedItem) ReactableKey() reactable.Key {
	if i.Kind == KindPost {
		return reactable.PostKey(i.ID)
	}
	gameID := ""
	if i.Game != nil {
		gameID = i.Game.ID
	}
	return reactable.ReviewKey(i.Author.ID, gameID)
}

// NewerThan implémente l'ordre du feed : (createdAt desc, id desc), puis kind
// pour départager deux sources qui partageraient un id.
func (i FeedItem) NewerThan(o FeedItem) bool {
	if !i.CreatedAt.Equal(o.CreatedAt) {
		return i.CreatedAt.After(o.CreatedAt)
	}
	if i.ID != o.ID {
		return i.ID > o.ID
	}
	return i.Kind > o.Kind
}

// FilterTag restreint les kinds ou le jeu : "post", "review", "rating", "game:<id>".
type FilterTag struct {
	Kinds  []Kind
	GameID string
}

func (f FilterTag) AllowsKind(k Kind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, allowed := range f.Kinds {
		if allowed == k {
			return true
		}
	}
	return false
}

func (f FilterTag) Allows(item FeedItem) bool {
	if !f.AllowsKind(item.Kind) {
		return false
	}
	if f.GameID != "" && (item.Game == nil || item.Game.ID != f.GameID) {
		return false
	}
	return true
}

// FeedRequest encapsule les critères de la requête de feed
type FeedRequest struct {
	ViewerID  string // vide = anonyme
	Scope     Scope
	FilterTag string
	Cursor    string // PageToken encodé, vide = page 1
	Limit     int
}

type FeedPage struct {
	Items           []FeedItem
	NextCursor      string
	HasMore         bool
	DegradedSources []string // sources en échec, remplacées par une page vide
}

// LibraryStatus qualifie la présence d'un jeu dans la bibliothèque du viewer.
type LibraryStatus string

const (
	LibraryOwned    LibraryStatus = "owned"
	LibraryWishlist LibraryStatus = "wishlist"
)

// ViewerSignals alimente le scoring forYou.
type ViewerSignals struct {
	Followed      map[string]struct{}
	Library       map[string]LibraryStatus
	ReviewedGames map[string]struct{}
}
