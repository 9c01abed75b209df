package committer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/serrors"
)

var (
	ErrRetriesExhausted = serrors.NewError("COMMIT_RETRIES_EXHAUSTED", "commit failed after retrying transient errors", "")
	ErrRowNotFound      = serrors.NewError("COMMIT_ROW_NOT_FOUND", "tracked row no longer exists", "")

	// ErrGeneratedValueMissing is returned when the store did not hand back a value for a
	// column it was expected to generate.
	ErrGeneratedValueMissing = audit.ErrGeneratedValueMissing
)

// transientReason classifies err as retryable. The reason is used as a metric label.
func transientReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001": // serialization_failure
			return "serialization", true
		case "40P01": // deadlock_detected
			return "deadlock", true
		case "57P01", "57P02", "57P03": // admin_shutdown, crash_shutdown, cannot_connect_now
			return "shutdown", true
		}
		if strings.HasPrefix(pgErr.Code, "08") { // connection_exception
			return "connection", true
		}
		return "", false
	}

	if pgconn.SafeToRetry(err) {
		return "connection", true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network", true
	}
	return "", false
}

// IsTransient reports whether a failed commit may succeed when retried from scratch.
func IsTransient(err error) bool {
	_, ok := transientReason(err)
	return ok
}

func rowNotFound(entity string, key []any) error {
	return fmt.Errorf("%w: %s %v", ErrRowNotFound, entity, key)
}
