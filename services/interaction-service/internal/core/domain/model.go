package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/jupiterclapton/gamefeed/pkg/reactable"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrRateLimited  = errors.New("rate limited")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("viewer required")
	ErrForbidden    = errors.New("forbidden")
)

const MaxCommentRunes = 1000

type Action string

const (
	ActionLike   Action = "like"
	ActionUnlike Action = "unlike"
	ActionToggle Action = "toggle"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionLike, ActionUnlike, ActionToggle:
		return a, nil
	case "":
		return ActionToggle, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, s)
	}
}

// Resolve donne l'état "liked" visé à partir de l'état courant.
func (a Action) Resolve(liked bool) bool {
	switch a {
	case ActionLike:
		return true
	case ActionUnlike:
		return false
	default:
		return !liked
	}
}

// ReactionState est la vérité serveur pour un viewer et un objet.
type ReactionState struct {
	Liked    bool
	Count    int
	Comments int
}

type Comment struct {
	ID        string
	Key       reactable.Key
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
