// Package database reads advisory opinions from the relational source.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnreachable is returned when the database cannot be reached at start-up.
var ErrUnreachable = errors.New("database unreachable")

// Postgres is the advisory opinion source backed by the aouser schema.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to dsn and pings it with retry before returning.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db := &Postgres{pool: pool, logger: logger}
	if err := db.pingWithRetry(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return db, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

func (db *Postgres) pingWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		err := db.pool.Ping(ctx)
		if err != nil {
			db.logger.Warn("database ping failed", "error", err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// Ping checks the connection once.
func (db *Postgres) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (db *Postgres) Close() {
	db.pool.Close()
}

func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func dateValue(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
