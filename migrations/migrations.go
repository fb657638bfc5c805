// Package migrations embarque le schéma Postgres partagé par post, interaction et feed.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var FS embed.FS

const dir = "sql"

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Run exécute une commande goose (up, down, status, version, redo, reset).
func Run(ctx context.Context, dsn, command string, args ...string) error {
	db, err := open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applique toutes les migrations en attente et retourne la version courante.
func Up(ctx context.Context, dsn string) (int64, error) {
	db, err := open(dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
