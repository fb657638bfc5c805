package services

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// Weights regroupe les constantes du score forYou. Ce sont des paramètres
// réglables, pas un modèle : les défauts reproduisent le comportement observé.
type Weights struct {
	MinAgeHours      float64 // plancher de l'âge dans 1/max(MinAgeHours, ageHours)
	Follow           float64
	LibraryOwned     float64
	LibraryWishlist  float64
	History          float64
	QualityHigh      float64
	QualityLow       float64
	Engagement       float64
	HighRating       int // note >= HighRating -> QualityHigh
	GoodRating       int // note >= GoodRating -> QualityLow
	SubstantiveRunes int // texte >= SubstantiveRunes -> QualityHigh
	ShortTextRunes   int // texte >= ShortTextRunes -> QualityLow
}

func DefaultWeights() Weights {
	return Weights{
		MinAgeHours:      0.5,
		Follow:           0.8,
		LibraryOwned:     0.6,
		LibraryWishlist:  0.5,
		History:          0.4,
		QualityHigh:      0.2,
		QualityLow:       0.1,
		Engagement:       0.1,
		HighRating:       80,
		GoodRating:       60,
		SubstantiveRunes: 280,
		ShortTextRunes:   80,
	}
}

type Scorer struct {
	w Weights
}

func NewScorer(w Weights) Scorer {
	return Scorer{w: w}
}

// Score = recency + follow + library + history + quality + engagement.
func (s Scorer) Score(item domain.FeedItem, signals domain.ViewerSignals, now time.Time) float64 {
	ageHours := now.Sub(item.CreatedAt).Hours()
	score := 1 / math.Max(s.w.MinAgeHours, ageHours)

	if _, ok := signals.Followed[item.Author.ID]; ok {
		score += s.w.Follow
	}

	if item.Game != nil {
		switch signals.Library[item.Game.ID] {
		case domain.LibraryOwned:
			score += s.w.LibraryOwned
		case domain.LibraryWishlist:
			score += s.w.LibraryWishlist
		}
		if _, ok := signals.ReviewedGames[item.Game.ID]; ok {
			score += s.w.History
		}
	}

	score += s.quality(item)

	if item.Reactions.Likes >= 1 {
		score += s.w.Engagement
	}
	return score
}

func (s Scorer) quality(item domain.FeedItem) float64 {
	best := 0.0
	if item.Rating != nil {
		switch {
		case *item.Rating >= s.w.HighRating:
			best = s.w.QualityHigh
		case *item.Rating >= s.w.GoodRating:
			best = s.w.QualityLow
		}
	}
	// Le contenu synthétisé d'un rating ("Rated x/100") n'est pas du texte substantiel
	if item.Kind != domain.KindRating {
		n := utf8.RuneCountInString(item.Content)
		switch {
		case n >= s.w.SubstantiveRunes:
			best = math.Max(best, s.w.QualityHigh)
		case n >= s.w.ShortTextRunes:
			best = math.Max(best, s.w.QualityLow)
		}
	}
	return best
}
