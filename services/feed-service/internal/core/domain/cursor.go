package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Cursor est la position (lastId, lastCreatedAt) du dernier item émis.
// Seen liste les ids déjà émis plus anciens que la position : en forYou le
// classement peut émettre un item avant des items plus récents de la même source.
type Cursor struct {
	LastID        string
	LastCreatedAt time.Time
	Seen          []string
}

func (c Cursor) IsZero() bool {
	return c.AtStart() && len(c.Seen) == 0
}

// AtStart : aucune position, la source est lue depuis sa ligne la plus récente.
func (c Cursor) AtStart() bool {
	return c.LastID == "" && c.LastCreatedAt.IsZero()
}

// Position retire la liste Seen.
func (c Cursor) Position() Cursor {
	return Cursor{LastID: c.LastID, LastCreatedAt: c.LastCreatedAt}
}

func (c Cursor) HasSeen(id string) bool {
	return slices.Contains(c.Seen, id)
}

// Admits dit si une ligne (createdAt, id) vient strictement après le curseur :
// createdAt < t OR (createdAt = t AND id < lastId).
func (c Cursor) Admits(createdAt time.Time, id string) bool {
	if c.AtStart() {
		return true
	}
	if createdAt.Before(c.LastCreatedAt) {
		return true
	}
	return createdAt.Equal(c.LastCreatedAt) && id < c.LastID
}

// Older retourne le plus ancien des deux curseurs (un curseur vide compte comme "début").
func (c Cursor) Older(o Cursor) Cursor {
	if c.AtStart() {
		return o
	}
	if o.AtStart() {
		return c
	}
	if c.Admits(o.LastCreatedAt, o.LastID) {
		return o
	}
	return c
}

// PageToken garde un curseur par source : les sources sont paginées
// séparément avant la fusion.
type PageToken map[string]Cursor

type cursorDTO struct {
	ID   string   `json:"id,omitempty"`
	T    string   `json:"t,omitempty"`
	Seen []string `json:"s,omitempty"`
}

// Encode produit un token opaque base64url(JSON). Un token vide encode "".
func (p PageToken) Encode() string {
	if len(p) == 0 {
		return ""
	}
	dto := make(map[string]cursorDTO, len(p))
	for source, c := range p {
		if c.IsZero() {
			continue
		}
		d := cursorDTO{Seen: c.Seen}
		if !c.AtStart() {
			d.ID, d.T = c.LastID, c.LastCreatedAt.UTC().Format(time.RFC3339Nano)
		}
		dto[source] = d
	}
	if len(dto) == 0 {
		return ""
	}
	// json.Marshal trie les clés de map : l'encodage est déterministe
	data, _ := json.Marshal(dto)
	return base64.RawURLEncoding.EncodeToString(data)
}

func DecodePageToken(s string) (PageToken, error) {
	token := PageToken{}
	if s == "" {
		return token, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var dto map[string]cursorDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	for source, c := range dto {
		cur := Cursor{Seen: c.Seen}
		if c.ID != "" || c.T != "" || len(c.Seen) == 0 {
			t, err := time.Parse(time.RFC3339Nano, c.T)
			if err != nil || c.ID == "" {
				return nil, fmt.Errorf("%w: bad position for source %q", ErrInvalidCursor, source)
			}
			cur.LastID, cur.LastCreatedAt = c.ID, t
		}
		token[source] = cur
	}
	return token, nil
}
