package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/gotransfer/internal/adapter/repository/postgres"
	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/infrastructure/postgres"
	"github.com/iho/gotransfer/internal/usecase"
)

// TestDB provides a migrated Postgres database and a store on top of it.
type TestDB struct {
	Pool  *pgxpool.Pool
	Store *postgresRepo.Store
	t     *testing.T
}

// NewTestDB connects to DATABASE_URL, runs migrations and registers cleanup.
// The test is skipped when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	// Tests run from the package directory; walk up until migrations are found.
	migrationsPath := "internal/infrastructure/postgres/migrations"
	for _, prefix := range []string{"", "../", "../../", "../../../"} {
		if _, err := os.Stat(prefix + migrationsPath); err == nil {
			migrationsPath = prefix + migrationsPath
			break
		}
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return &TestDB{
		Pool:  pool,
		Store: postgresRepo.NewStore(pool),
		t:     t,
	}
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE transactions, accounts`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// SeedAccounts writes the given balances.
func (db *TestDB) SeedAccounts(ctx context.Context, balances map[string]int64) {
	db.t.Helper()

	for id, balance := range balances {
		if err := db.Store.PutAccount(ctx, &domain.Account{ID: id, Balance: balance}); err != nil {
			db.t.Fatalf("failed to seed account %s: %v", id, err)
		}
	}
}

// Balance reads one balance, failing the test on error.
func (db *TestDB) Balance(ctx context.Context, id string) int64 {
	db.t.Helper()

	account, err := db.Store.GetAccount(ctx, id)
	if err != nil {
		db.t.Fatalf("failed to read account %s: %v", id, err)
	}

	return account.Balance
}

// FastPolicy keeps retry pauses short so contention tests finish quickly.
func FastPolicy() usecase.RetryPolicy {
	return usecase.RetryPolicy{
		CommitMaxAttempts:      3,
		CommitRetryDelay:       5 * time.Millisecond,
		ConflictMaxAttempts:    10,
		ConflictInitialWait:    2 * time.Millisecond,
		ConflictMaxWait:        50 * time.Millisecond,
		StatusWriteMaxAttempts: 3,
		StatusWriteRetryDelay:  5 * time.Millisecond,
	}
}

// NewExecutor wires a transfer executor over the database store.
func (db *TestDB) NewExecutor() *usecase.TransferExecutor {
	guard := usecase.NewIdempotencyGuard(db.Store, FastPolicy(), zerolog.Nop(), nil)
	return usecase.NewTransferExecutor(db.Store, guard, FastPolicy(), zerolog.Nop(), nil)
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
