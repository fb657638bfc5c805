package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// Querier est le sous-ensemble de pgxpool.Pool utilisé par les sources.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Codes PostgreSQL qui signalent une dérive de schéma plutôt qu'une panne.
const (
	pgUndefinedTable    = "42P01"
	pgUndefinedColumn   = "42703"
	pgUndefinedFunction = "42883"
)

// translatePgError traduit les erreurs de forme de requête en ErrSchemaMismatch.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgUndefinedColumn, pgUndefinedFunction:
			return fmt.Errorf("%w: %s (%s)", domain.ErrSchemaMismatch, pgErr.Message, pgErr.Code)
		}
	}
	return err
}

// withSchemaFallback tente la représentation enrichie puis, sur ErrSchemaMismatch
// uniquement, rejoue une seule fois contre la représentation legacy.
// L'appelant ne voit aucune différence de contrat.
func withSchemaFallback[T any](ctx context.Context, source string, primary, legacy func(context.Context) (T, error)) (T, error) {
	out, err := primary(ctx)
	err = translatePgError(err)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		return out, err
	}

	slog.Warn("Enriched view unavailable, falling back to legacy tables", "source", source, "error", err)
	out, err = legacy(ctx)
	if err = translatePgError(err); err != nil {
		return out, fmt.Errorf("legacy query after fallback: %w", err)
	}
	return out, nil
}
