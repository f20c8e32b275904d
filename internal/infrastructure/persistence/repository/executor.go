// Package repository provides sqlite-backed implementations of the
// persistence ports.
package repository

import (
	"context"
	"database/sql"

	"github.com/hrops/approval-engine/internal/infrastructure/persistence/sqlite"
)

// executor covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// executorFor returns the context transaction when present, else the db
func executorFor(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}
