package usecase_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/adapter/repository/memory"
	"github.com/iho/moveledger/internal/usecase"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

type ledgerFixture struct {
	store *memory.Store
	clock *fakeClock
	uc    *usecase.MovementUseCase
}

// newLedger seeds Alice (acc-1, 1000, and acc-3, 0) and Bob (acc-2, 0).
func newLedger() *ledgerFixture {
	store := memory.NewStore()
	store.AddClient("alice", "Alice")
	store.AddClient("bob", "Bob")
	store.AddAccount("acc-1", "alice", "USD", decimal.NewFromInt(1000))
	store.AddAccount("acc-3", "alice", "USD", decimal.Zero)
	store.AddAccount("acc-2", "bob", "USD", decimal.Zero)

	clock := newFakeClock()
	uc := usecase.NewMovementUseCase(
		store,
		store,
		store.Accounts(),
		store.Movements(),
		store.Outbox(),
		&seqIDs{},
	).WithClock(clock)

	return &ledgerFixture{store: store, clock: clock, uc: uc}
}

func strPtr(s string) *string { return &s }
