// Package reactable définit l'identité sous laquelle les likes et les
// commentaires sont suivis : un post par son id, une review par le couple
// (auteur, jeu).
package reactable

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindPost   Kind = "post"
	KindReview Kind = "review"
)

var ErrInvalidKey = errors.New("invalid reactable key")

type Key struct {
	Kind     Kind
	PostID   string
	AuthorID string
	GameID   string
}

func PostKey(postID string) Key {
	return Key{Kind: KindPost, PostID: postID}
}

func ReviewKey(authorID, gameID string) Key {
	return Key{Kind: KindReview, AuthorID: authorID, GameID: gameID}
}

// String donne la forme canonique stockée en base : "post:<id>" ou "review:<author>:<game>".
func (k Key) String() string {
	switch k.Kind {
	case KindPost:
		return "post:" + k.PostID
	case KindReview:
		return "review:" + k.AuthorID + ":" + k.GameID
	default:
		return ""
	}
}

func (k Key) Valid() bool {
	switch k.Kind {
	case KindPost:
		return k.PostID != "" && !strings.Contains(k.PostID, ":")
	case KindReview:
		return k.AuthorID != "" && k.GameID != "" &&
			!strings.Contains(k.AuthorID, ":") && !strings.Contains(k.GameID, ":")
	default:
		return false
	}
}

func Parse(s string) (Key, error) {
	parts := strings.Split(s, ":")
	var k Key
	switch {
	case len(parts) == 2 && parts[0] == string(KindPost):
		k = PostKey(parts[1])
	case len(parts) == 3 && parts[0] == string(KindReview):
		k = ReviewKey(parts[1], parts[2])
	default:
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	if !k.Valid() {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return k, nil
}

func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, ErrInvalidKey
	}
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
