// Package repo contains the storage adapters: Postgres for identity and
// issues, Mongo for the regulation catalog, Redis for short-lived OAuth
// state.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ipanov/UrbanAI-sub002/migrations/postgres"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// PG wraps the shared connection pool.
type PG struct {
	Pool *pgxpool.Pool
}

func NewPG(ctx context.Context, dsn string) (*PG, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return &PG{Pool: pool}, nil
}

// EnsureSchema applies the embedded DDL. Every statement is idempotent.
func (p *PG) EnsureSchema(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, postgres.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *PG) Close() { p.Pool.Close() }

// IsUniqueViolation reports whether err is a 23505 constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
