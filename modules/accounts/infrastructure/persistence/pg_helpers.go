package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func liveClause(includeDeleted bool) string {
	if includeDeleted {
		return ""
	}
	return " AND NOT is_deleted"
}

// notFound maps pgx.ErrNoRows to the aggregate's own not-found error.
func notFound(err, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}
