package domain

import (
	"errors"
	"time"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrRateLimited      = errors.New("rate limited")
	ErrNotFound         = errors.New("post not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidPageToken = errors.New("invalid page token")
)

// MaxContentRunes borne la taille d'un post.
const MaxContentRunes = 2000

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

func (t MediaType) Valid() bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

type Media struct {
	ID   string
	URL  string
	Type MediaType
}

type Post struct {
	ID        string
	AuthorID  string
	GameID    string // optionnel : post rattaché à un jeu
	Content   string
	Media     []Media
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PageCursor est la position keyset (created_at, id) du dernier post d'une page.
type PageCursor struct {
	CreatedAt time.Time
	ID        string
}

func (c PageCursor) IsZero() bool {
	return c.ID == "" && c.CreatedAt.IsZero()
}
