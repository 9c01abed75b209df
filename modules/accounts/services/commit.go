package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/committer"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

// Committer is the part of *committer.Committer the services depend on.
type Committer interface {
	Commit(ctx context.Context, uow *unitofwork.UnitOfWork, actor audit.Actor) (committer.Result, error)
}

// commit persists uow on behalf of the actor in ctx.
func commit(ctx context.Context, c Committer, uow *unitofwork.UnitOfWork) error {
	actor, err := audit.UseActor(ctx)
	if err != nil {
		return err
	}
	_, err = c.Commit(ctx, uow, actor)
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
