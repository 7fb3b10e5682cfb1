package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maxviazov/crm-service/internal/repository"
)

// DB is the subset of *pgxpool.Pool the repositories need.
// pgxmock pools satisfy it too, which keeps SQL tests free of a live database.
type DB interface {
	q
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// q is a minimal query executor implemented by both the pool and pgx.Tx.
type q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// getQ returns the transaction carried by ctx, or the pool when there is none.
func getQ(ctx context.Context, db DB) q {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

type txManager struct{ db DB }

func NewTxManager(db DB) repository.TxManager { return &txManager{db: db} }

func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ensureDB(m.db); err != nil {
		return err
	}
	if _, nested := ctx.Value(txKey{}).(pgx.Tx); nested {
		return fn(ctx)
	}
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return repository.MapPgError(err)
	}
	committed := false
	defer func() {
		if !committed {
			// background ctx: the request ctx may already be canceled
			_ = tx.Rollback(context.Background())
		}
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return repository.MapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return repository.MapPgError(err)
	}
	committed = true
	return nil
}

var _ repository.TxManager = (*txManager)(nil)

func ensureDB(db DB) error {
	if db == nil {
		return errors.New("postgres db is nil")
	}
	return nil
}

// rowsAffectedOrNotFound turns an UPDATE/DELETE that touched nothing into ErrNotFound.
func rowsAffectedOrNotFound(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// notFoundOr maps pgx.ErrNoRows to ErrNotFound and everything else through MapPgError.
func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return repository.MapPgError(err)
}
