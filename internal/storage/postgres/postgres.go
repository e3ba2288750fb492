// Package postgres persists actor snapshots in PostgreSQL using pgx v5 and
// applies derived proposals back to them transactionally.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/knave/internal/config"
)

// ErrStoreDisabled is returned by NewPool when database.enabled is false.
var ErrStoreDisabled = errors.New("snapshot store is disabled")

// Pool owns the connection pool behind the snapshot store.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the snapshot database.
//
// Precondition: cfg.Enabled; the remaining fields pass config validation.
// Postcondition: Returns a pinged Pool, ErrStoreDisabled, or a connection error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if !cfg.Enabled {
		return nil, ErrStoreDisabled
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Health checks that the database is reachable within the given timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil if the database responds within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Snapshots returns a repository over this pool.
func (p *Pool) Snapshots() *SnapshotRepository {
	return NewSnapshotRepository(p.pool)
}
