package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gotransfer/internal/domain"
)

// PostgreSQL error codes that signal contention rather than failure.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
	pgErrTooManyConnections   = "53300"
)

// isThrottleError reports whether err is a contention signal worth
// retrying the same commit for.
func isThrottleError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable, pgErrTooManyConnections:
			return true
		}
	}
	return pgconn.Timeout(err)
}

// classify maps a pgx error onto the store error taxonomy. Errors that are
// already classified pass through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, domain.ErrConditionFailed),
		errors.Is(err, domain.ErrThrottled),
		errors.Is(err, domain.ErrStoreUnavailable):
		return err
	case isThrottleError(err):
		return fmt.Errorf("%w: %v", domain.ErrThrottled, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}
