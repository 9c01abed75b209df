package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/accounts/pkg/composables"
	"github.com/iota-uz/accounts/pkg/configuration"
)

func connectDB(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cfg, err := pgxpool.ParseConfig(conf.Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("db config: %w", err)
	}
	if conf.Database.MaxConns > 0 {
		cfg.MaxConns = conf.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return pool, nil
}

// withDB runs fn with a pool stored in ctx and closes the pool afterwards.
func withDB(ctx context.Context, conf *configuration.Configuration, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	pool, err := connectDB(ctx, conf)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(composables.WithPool(ctx, pool), pool)
}
