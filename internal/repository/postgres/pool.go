// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"soundwave/internal/model"
)

// PgxPool is a minimal abstraction over a Postgres connection pool,
// used by repositories. It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// BeginTx starts a transaction with the provided options.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Close shuts down the pool and frees resources.
	Close()
}

// DB wraps pgxpool.Pool to satisfy repository constructors and allow testing.
// Hook, when set, straddles every RunTx commit boundary.
type DB struct {
	Pool PgxPool
	Hook CommitHook
}

// New creates a new connection pool for the given DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() { db.Pool.Close() }

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

// ChangeSet is the immutable snapshot of a transaction's pending changes,
// filtered to entities whose type participates in search. It is handed to the
// commit hook immediately before commit, while the pending set is still visible.
type ChangeSet struct {
	Added   []model.Searchable
	Updated []model.Searchable
	Deleted []model.Searchable
}

// Empty reports whether the snapshot carries no searchable changes.
func (cs ChangeSet) Empty() bool {
	return len(cs.Added) == 0 && len(cs.Updated) == 0 && len(cs.Deleted) == 0
}

// PostCommitFunc runs strictly after a successful commit. It is never invoked
// for a rolled-back transaction.
type PostCommitFunc func(ctx context.Context)

// CommitHook receives the pre-commit snapshot and returns the work to perform
// once the commit has succeeded. Returning nil skips the post-commit phase.
type CommitHook func(ChangeSet) PostCommitFunc

// Changes records entities created, updated and deleted inside one transaction.
// Entities of any type may be recorded; the snapshot keeps only Searchable ones.
type Changes struct {
	added   []any
	updated []any
	deleted []any
}

// Created records a newly inserted entity.
func (c *Changes) Created(e any) { c.added = append(c.added, e) }

// Updated records a modified entity.
func (c *Changes) Updated(e any) { c.updated = append(c.updated, e) }

// Deleted records a removed entity.
func (c *Changes) Deleted(e any) { c.deleted = append(c.deleted, e) }

func filterSearchable(in []any) []model.Searchable {
	var out []model.Searchable
	for _, e := range in {
		if s, ok := e.(model.Searchable); ok {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot filters the recorded changes down to searchable entities.
func (c *Changes) Snapshot() ChangeSet {
	return ChangeSet{
		Added:   filterSearchable(c.added),
		Updated: filterSearchable(c.updated),
		Deleted: filterSearchable(c.deleted),
	}
}

// RunTx executes fn inside a transaction with a change recorder. If a commit
// hook is registered it is called with the snapshot right before commit; the
// returned post-commit func runs only after the commit succeeds. A failed or
// rolled-back transaction never reaches the post-commit phase.
func (db *DB) RunTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx, ch *Changes) error) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	ch := &Changes{}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(ctx, tx, ch); err != nil {
		return err
	}
	var post PostCommitFunc
	if db.Hook != nil {
		if snap := ch.Snapshot(); !snap.Empty() {
			post = db.Hook(snap)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}
	if post != nil {
		post(ctx)
	}
	return nil
}
