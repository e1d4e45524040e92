package integration

import (
	"sync"
	"time"

	"github.com/iho/moveledger/internal/adapter/repository/postgres"
	"github.com/iho/moveledger/internal/usecase"
	"github.com/iho/moveledger/tests/testutil"
)

type ledger struct {
	uc        *usecase.MovementUseCase
	movements *postgres.MovementRepository
	outbox    *postgres.OutboxRepository
}

func newLedger(db *testutil.TestDB) *ledger {
	pool := db.Pool
	movements := postgres.NewMovementRepository(pool)
	outbox := postgres.NewOutboxRepository(pool)

	uc := usecase.NewMovementUseCase(
		postgres.NewTxManager(pool),
		db.Directory,
		db.Accounts,
		movements,
		outbox,
		postgres.NewULIDGenerator(),
	).WithRetrier(postgres.NewRetrier())

	return &ledger{uc: uc, movements: movements, outbox: outbox}
}

// manualClock is a settable usecase.Clock.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
