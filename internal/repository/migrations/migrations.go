// Package migrations embeds the SQL schema and applies it with goose.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var embedded embed.FS

// FS exposes the migration files rooted at the sql directory.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		// the directory is compiled in; a failure here is a build defect
		panic(err)
	}
	return sub
}

// Runner applies migrations through a database/sql handle borrowed from the pgx pool.
type Runner struct {
	provider *goose.Provider
	log      zerolog.Logger
}

// NewRunner builds a goose provider on top of pool. The caller must Close the
// runner; doing so releases the database/sql handle but leaves pool open.
func NewRunner(pool *pgxpool.Pool, logger zerolog.Logger) (*Runner, error) {
	db := stdlib.OpenDBFromPool(pool)
	p, err := goose.NewProvider(goose.DialectPostgres, db, FS())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	return &Runner{provider: p, log: logger.With().Str("component", "migrations").Logger()}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	for _, res := range results {
		r.log.Info().
			Int64("version", res.Source.Version).
			Str("file", res.Source.Path).
			Dur("took", res.Duration).
			Msg("migration applied")
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	if len(results) == 0 {
		r.log.Info().Msg("schema is up to date")
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	res, err := r.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if res != nil {
		r.log.Info().Int64("version", res.Source.Version).Msg("migration rolled back")
	}
	return nil
}

// Close releases the database/sql handle opened over the pool.
func (r *Runner) Close() error {
	return r.provider.Close()
}

// Status is one migration and whether it has been applied.
type Status struct {
	Version int64
	File    string
	Applied bool
}

// Status lists every embedded migration in version order with its applied state.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	list, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	out := make([]Status, 0, len(list))
	for _, s := range list {
		out = append(out, Status{
			Version: s.Source.Version,
			File:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
