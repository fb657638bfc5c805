package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// SignalsRepo lit la bibliothèque (user_games) et l'historique de reviews du viewer.
type SignalsRepo struct {
	db Querier
}

func NewSignalsRepo(db Querier) *SignalsRepo {
	return &SignalsRepo{db: db}
}

func (r *SignalsRepo) GetLibrary(ctx context.Context, viewerID string) (map[string]domain.LibraryStatus, error) {
	rows, err := r.db.Query(ctx, `SELECT game_id, status FROM user_games WHERE user_id = $1`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query user_games: %w", translatePgError(err))
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([2]string, error) {
		var e [2]string
		err := row.Scan(&e[0], &e[1])
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan user_games: %w", err)
	}

	library := make(map[string]domain.LibraryStatus, len(entries))
	for _, e := range entries {
		// "played" et "owned" comptent pareil pour le scoring
		if e[1] == string(domain.LibraryWishlist) {
			if _, ok := library[e[0]]; !ok {
				library[e[0]] = domain.LibraryWishlist
			}
			continue
		}
		library[e[0]] = domain.LibraryOwned
	}
	return library, nil
}

func (r *SignalsRepo) GetReviewedGames(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT game_id FROM reviews WHERE author_id = $1`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", translatePgError(err))
	}
	games, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	out := make(map[string]struct{}, len(games))
	for _, g := range games {
		out[g] = struct{}{}
	}
	return out, nil
}
