package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/adapter/repository/postgres"
	"github.com/iho/moveledger/internal/domain"
	infra "github.com/iho/moveledger/internal/infrastructure/postgres"
)

// TestDB provides a migrated database for integration tests.
type TestDB struct {
	Pool      *pgxpool.Pool
	Directory *postgres.ClientDirectory
	Accounts  *postgres.AccountRepository
	t         *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations. The test is
// skipped in short mode or when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	if err := infra.RunMigrations(dbURL, migrationsPath(), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}

	db := &TestDB{
		Pool:      pool,
		Directory: postgres.NewClientDirectory(pool),
		Accounts:  postgres.NewAccountRepository(pool),
		t:         t,
	}
	t.Cleanup(pool.Close)

	return db
}

func migrationsPath() string {
	for _, p := range []string{
		"internal/infrastructure/postgres/migrations",
		"../../internal/infrastructure/postgres/migrations",
		"../../../internal/infrastructure/postgres/migrations",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "internal/infrastructure/postgres/migrations"
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE outbox_events, movements, accounts, clients CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestClient registers a client and returns its id.
func (db *TestDB) CreateTestClient(ctx context.Context, name string) string {
	db.t.Helper()

	id := GenerateID()
	if err := db.Directory.CreateClient(ctx, id, name); err != nil {
		db.t.Fatalf("failed to create test client: %v", err)
	}
	return id
}

// CreateTestAccount opens an account for clientID with the given balance.
func (db *TestDB) CreateTestAccount(ctx context.Context, clientID, currency string, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	account := &domain.Account{
		ID:        GenerateID(),
		ClientID:  clientID,
		Currency:  currency,
		Balance:   balance,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Accounts.Create(ctx, account); err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// Balance reads the current balance of an account.
func (db *TestDB) Balance(ctx context.Context, accountID string) decimal.Decimal {
	db.t.Helper()

	account, err := db.Accounts.GetByID(ctx, accountID)
	if err != nil {
		db.t.Fatalf("failed to read account %s: %v", accountID, err)
	}
	return account.Balance
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
