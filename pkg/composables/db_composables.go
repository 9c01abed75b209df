package composables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/pkg/constants"
	"github.com/iota-uz/accounts/pkg/repo"
)

var ErrNoPool = errors.New("no database pool found in context")

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, constants.TxKey, tx)
}

// UseTx returns the transaction in ctx, falling back to the pool.
func UseTx(ctx context.Context) (repo.Tx, error) {
	if tx, ok := AmbientTx(ctx); ok {
		return tx, nil
	}
	pool, err := UsePool(ctx)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// AmbientTx returns the transaction already open in ctx, if any.
func AmbientTx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(constants.TxKey).(pgx.Tx)
	return tx, ok && tx != nil
}

func WithPool(ctx context.Context, pool repo.Pool) context.Context {
	return context.WithValue(ctx, constants.PoolKey, pool)
}

// UsePool returns the pool stored by WithPool, usually a *pgxpool.Pool.
func UsePool(ctx context.Context) (repo.Pool, error) {
	pool, ok := ctx.Value(constants.PoolKey).(repo.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPool
	}
	return pool, nil
}

// InTx runs fn in a new transaction. It always begins one, even if ctx already carries a
// transaction.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	return run(ctx, tx, fn)
}

// InSharedTx joins the transaction already in ctx, or opens one when there is none. A joined
// transaction is left for its owner to commit or roll back.
func InSharedTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := AmbientTx(ctx); ok {
		return fn(ctx)
	}
	return InTx(ctx, fn)
}

func InSharedTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InSharedTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

func run(ctx context.Context, tx pgx.Tx, fn func(context.Context) error) error {
	if err := fn(WithTx(ctx, tx)); err != nil {
		if rErr := tx.Rollback(context.WithoutCancel(ctx)); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
