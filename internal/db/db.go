package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions tunes the pgx pool. Zero fields keep the defaults below.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

var defaultPoolOptions = PoolOptions{
	MaxConns:        5,
	MinConns:        1,
	MaxConnLifetime: 30 * time.Minute,
	ConnectTimeout:  5 * time.Second,
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = defaultPoolOptions.MaxConns
	}
	if o.MinConns <= 0 || o.MinConns > o.MaxConns {
		o.MinConns = defaultPoolOptions.MinConns
	}
	if o.MaxConnLifetime <= 0 {
		o.MaxConnLifetime = defaultPoolOptions.MaxConnLifetime
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultPoolOptions.ConnectTimeout
	}
	return o
}

// NewPool opens the pool and pings it once so a bad DSN fails at startup.
func NewPool(ctx context.Context, dbURL string, opts ...PoolOptions) (*pgxpool.Pool, error) {
	var o PoolOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	cfg.MaxConns = o.MaxConns
	cfg.MinConns = o.MinConns
	cfg.MaxConnLifetime = o.MaxConnLifetime

	ctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}
