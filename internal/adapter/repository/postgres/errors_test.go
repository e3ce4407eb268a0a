package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/gotransfer/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"serialization failure", &pgconn.PgError{Code: pgErrSerializationFailure}, domain.ErrThrottled},
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, domain.ErrThrottled},
		{"lock not available", &pgconn.PgError{Code: pgErrLockNotAvailable}, domain.ErrThrottled},
		{"too many connections", &pgconn.PgError{Code: pgErrTooManyConnections}, domain.ErrThrottled},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrStoreUnavailable},
		{"generic", errors.New("broken pipe"), domain.ErrStoreUnavailable},
		{"already classified", domain.ErrConditionFailed, domain.ErrConditionFailed},
		{"cancelled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if classify(nil) != nil {
		t.Fatalf("classify(nil) must be nil")
	}
}
