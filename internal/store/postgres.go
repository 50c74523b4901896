package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store using PostgreSQL. Only this package and main use *pgxpool.Pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Store backed by the given pool. Caller must call Close on the pool when done.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the parameters table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS parameters (
			name        TEXT PRIMARY KEY,
			value       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// GetParameter returns the value for name. Returns ErrNotFound when no row exists.
func (p *Postgres) GetParameter(ctx context.Context, name string) (string, error) {
	var v string
	err := p.pool.QueryRow(ctx, `SELECT value FROM parameters WHERE name = $1`, name).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// PutParameter upserts the value for name.
func (p *Postgres) PutParameter(ctx context.Context, name, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO parameters (name, value, description, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, name, value, ParameterDescription)
	return err
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
