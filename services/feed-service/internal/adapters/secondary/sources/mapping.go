package sources

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// Une ligne par représentation physique, une fonction de normalisation par source.

type authorCols struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

type gameCols struct {
	ID       *string
	Name     *string
	CoverURL *string
}

type postRow struct {
	ID        string
	Author    authorCols
	Game      gameCols
	Content   string
	Media     []byte
	Likes     int64
	Comments  int64
	Shares    int64
	CreatedAt time.Time
}

type reviewRow struct {
	ID        string
	Author    authorCols
	Game      gameCols
	Rating    int
	Body      *string
	Likes     int64
	Comments  int64
	CreatedAt time.Time
}

// mediaDTO suit le format JSONB écrit par le post-service.
// blankChars est l'ensemble d'espaces partagé avec blankBodySQL.
const blankChars = " \t\r\n\v\f"

// blankBodySQL rend le même verdict que blankBody côté Postgres (\x0B = \v).
const blankBodySQL = `btrim(COALESCE(body, ''), E' \t\r\n\x0B\f') = ''`

func blankBody(body *string) bool {
	return body == nil || strings.Trim(*body, blankChars) == ""
}

type mediaDTO struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

func normalizePost(row postRow) domain.FeedItem {
	return domain.FeedItem{
		ID:        row.ID,
		Kind:      domain.KindPost,
		CreatedAt: row.CreatedAt.UTC(),
		Author:    row.Author.toDomain(),
		Game:      row.Game.toDomain(),
		Content:   row.Content,
		Media:     mediaURLs(row.Media),
		Reactions: domain.ReactionCounts{
			Likes:    int(row.Likes),
			Comments: int(row.Comments),
			Shares:   int(row.Shares),
		},
	}
}

// normalizeReview dérive le kind : texte non vide = review, sinon rating.
// Le contenu d'un rating est synthétisé ici, jamais stocké.
func normalizeReview(row reviewRow) domain.FeedItem {
	score := row.Rating
	item := domain.FeedItem{
		ID:        row.ID,
		Kind:      domain.KindReview,
		CreatedAt: row.CreatedAt.UTC(),
		Author:    row.Author.toDomain(),
		Game:      row.Game.toDomain(),
		Rating:    &score,
		Reactions: domain.ReactionCounts{
			Likes:    int(row.Likes),
			Comments: int(row.Comments),
		},
	}
	if blankBody(row.Body) {
		item.Kind = domain.KindRating
		item.Content = fmt.Sprintf("Rated %d/100", score)
	} else {
		item.Content = *row.Body
	}
	return item
}

func (a authorCols) toDomain() domain.Author {
	out := domain.Author{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
	// tables legacy : pas de profil joint
	if out.Username == "" {
		out.Username = a.ID
	}
	if out.DisplayName == "" {
		out.DisplayName = out.Username
	}
	return out
}

func (g gameCols) toDomain() *domain.Game {
	if g.ID == nil || *g.ID == "" {
		return nil
	}
	game := &domain.Game{ID: *g.ID}
	if g.Name != nil {
		game.Name = *g.Name
	}
	if g.CoverURL != nil {
		game.CoverURL = *g.CoverURL
	}
	return game
}

func mediaURLs(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var dtos []mediaDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil
	}
	urls := make([]string, 0, len(dtos))
	for _, m := range dtos {
		if m.URL != "" {
			urls = append(urls, m.URL)
		}
	}
	return urls
}
