package repository

import (
	"context"
	"database/sql"
	"time"

	cerror "training-job-runner/core/errors"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool used by the job ledger
type DB struct {
	*sql.DB
}

// NewDB opens and pings a Postgres database
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrLedgerFailure, err, "open")
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, cerror.WrapError(cerror.ErrLedgerFailure, err, "ping")
	}
	return &DB{DB: db}, nil
}
