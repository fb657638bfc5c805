package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnknownRelation = errors.New("unknown relation type")
)

// RelationType est le type d'arête dirigée entre deux utilisateurs.
type RelationType string

const (
	RelationFollows RelationType = "FOLLOWS"
	RelationBlocks  RelationType = "BLOCKS"
	RelationMutes   RelationType = "MUTES"
)

func ParseRelationType(s string) (RelationType, error) {
	switch t := RelationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case RelationFollows, RelationBlocks, RelationMutes:
		return t, nil
	case "":
		return RelationFollows, nil
	default:
		return "", ErrUnknownRelation
	}
}

// EventName donne le segment de sujet NATS : follows, blocks, mutes.
func (t RelationType) EventName() string {
	return strings.ToLower(string(t))
}

// Relation représente un lien dirigé dans le graphe (User -> Type -> User)
type Relation struct {
	ActorID   string // Celui qui fait l'action
	TargetID  string // Celui qui subit l'action
	Type      RelationType
	CreatedAt time.Time
}

// RelationStatus est utilisé pour l'UI (CheckRelation)
type RelationStatus struct {
	IsFollowing  bool // Actor suit Target
	IsFollowedBy bool // Target suit Actor
	IsBlocking   bool
	IsBlockedBy  bool
	IsMuting     bool
}

// VisibilityLists : de quoi construire le VisibilitySet d'un viewer en une requête.
type VisibilityLists struct {
	BlockedByMe []string
	BlockedMe   []string
	MutedByMe   []string
}
