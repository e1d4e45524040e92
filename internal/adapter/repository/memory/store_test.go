package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/moveledger/internal/domain"
)

func seededStore() *Store {
	s := NewStore()
	s.AddClient("client-1", "Alice")
	s.AddClient("client-2", "Bob")
	s.AddAccount("acc-1", "client-1", "USD", decimal.NewFromInt(1000))
	s.AddAccount("acc-2", "client-2", "USD", decimal.Zero)
	return s
}

func testMovement(id string, now time.Time) *domain.Movement {
	dest := "acc-2"
	recipient := "client-2"
	return domain.NewMovement(id, domain.MovementParams{
		SenderClientID:     "client-1",
		RecipientClientID:  &recipient,
		OriginAccount:      "acc-1",
		DestinationAccount: &dest,
		Type:               domain.MovementTypeTransfer,
		Amount:             decimal.NewFromInt(100),
	}, decimal.NewFromInt(900), now)
}

func TestResolveClient(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	c, err := s.ResolveClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", c.Name)
	assert.Equal(t, []string{"acc-1"}, c.AccountIDs)

	_, err = s.ResolveClient(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestCommitAppliesStagedWrites(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	movements := s.Movements()
	accounts := s.Accounts()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	m := testMovement("mov-1", time.Now().UTC())
	require.NoError(t, movements.Create(ctx, tx, m))
	require.NoError(t, accounts.UpdateBalance(ctx, tx, "acc-1", decimal.NewFromInt(900), time.Now()))

	_, err = movements.GetByID(ctx, "mov-1")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound, "uncommitted movement must not be visible")

	require.NoError(t, tx.Commit(ctx))

	got, err := movements.GetByID(ctx, "mov-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.OriginAccount)

	acc, err := accounts.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, int64(1), acc.Version)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := seededStore()
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Movements().Create(ctx, tx, testMovement("mov-1", time.Now())))
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx))

	all, err := s.Movements().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, tx.Commit(ctx), errTxClosed)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	repo := s.Movements()

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, testMovement("mov-1", time.Now())))
	assert.ErrorIs(t, repo.Create(ctx, tx, testMovement("mov-1", time.Now())), domain.ErrMovementExists)
	require.NoError(t, tx.Commit(ctx))

	tx, _ = s.Begin(ctx)
	defer func() { _ = tx.Rollback(ctx) }()
	assert.ErrorIs(t, repo.Create(ctx, tx, testMovement("mov-1", time.Now())), domain.ErrMovementExists)
}

func TestMarkReversedOnlyOnce(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	repo := s.Movements()

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, testMovement("mov-1", time.Now())))
	require.NoError(t, tx.Commit(ctx))

	tx, _ = s.Begin(ctx)
	require.NoError(t, repo.MarkReversed(ctx, tx, "mov-1"))
	require.NoError(t, tx.Commit(ctx))

	tx, _ = s.Begin(ctx)
	defer func() { _ = tx.Rollback(ctx) }()
	assert.ErrorIs(t, repo.MarkReversed(ctx, tx, "mov-1"), domain.ErrMovementNotReversible)
	assert.ErrorIs(t, repo.MarkReversed(ctx, tx, "missing"), domain.ErrMovementNotFound)

	got, err := repo.GetByID(ctx, "mov-1")
	require.NoError(t, err)
	assert.False(t, got.Reversible)
}

func TestListsFilterAndPreserveOrder(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	repo := s.Movements()
	now := time.Now()

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, testMovement("mov-1", now)))
	deposit := domain.NewMovement("mov-2", domain.MovementParams{
		SenderClientID: "client-2",
		OriginAccount:  "acc-2",
		Type:           domain.MovementTypeDeposit,
		Amount:         decimal.NewFromInt(5),
	}, decimal.NewFromInt(-5), now)
	require.NoError(t, repo.Create(ctx, tx, deposit))
	require.NoError(t, tx.Commit(ctx))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "mov-1", all[0].ID)
	assert.Equal(t, "mov-2", all[1].ID)

	byClient, err := repo.ListByParticipant(ctx, "client-2")
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	byClient, err = repo.ListByParticipant(ctx, "client-1")
	require.NoError(t, err)
	assert.Len(t, byClient, 1)

	byType, err := repo.ListByType(ctx, domain.MovementTypeDeposit)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "mov-2", byType[0].ID)

	byType, err = repo.ListByType(ctx, "deposit")
	require.NoError(t, err)
	assert.Empty(t, byType)
}

func TestReturnedMovementsAreCopies(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	repo := s.Movements()

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, testMovement("mov-1", time.Now())))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, "mov-1")
	require.NoError(t, err)
	got.Reversible = false
	*got.DestinationAccount = "tampered"

	again, err := repo.GetByID(ctx, "mov-1")
	require.NoError(t, err)
	assert.True(t, again.Reversible)
	assert.Equal(t, "acc-2", *again.DestinationAccount)
}

func TestDelete(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	repo := s.Movements()

	tx, _ := s.Begin(ctx)
	require.NoError(t, repo.Create(ctx, tx, testMovement("mov-1", time.Now())))
	require.NoError(t, tx.Commit(ctx))

	tx, _ = s.Begin(ctx)
	require.NoError(t, repo.Delete(ctx, tx, "mov-1"))
	require.NoError(t, tx.Commit(ctx))

	_, err := repo.GetByID(ctx, "mov-1")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)

	tx, _ = s.Begin(ctx)
	defer func() { _ = tx.Rollback(ctx) }()
	assert.ErrorIs(t, repo.Delete(ctx, tx, "mov-1"), domain.ErrMovementNotFound)
}

func TestRowLockBlocksSecondTransaction(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	accounts := s.Accounts()

	first, _ := s.Begin(ctx)
	_, err := accounts.GetByIDsForUpdate(ctx, first, []string{"acc-1"})
	require.NoError(t, err)

	second, _ := s.Begin(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = accounts.GetByIDsForUpdate(waitCtx, second, []string{"acc-1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Commit(ctx))

	got, err := accounts.GetByIDsForUpdate(ctx, second, []string{"acc-1", "unknown"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, second.Rollback(ctx))
}

func TestConcurrentBalanceUpdatesSerialize(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	accounts := s.Accounts()

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := s.Begin(ctx)
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = tx.Rollback(ctx) }()

			locked, err := accounts.GetByIDsForUpdate(ctx, tx, []string{"acc-1"})
			if !assert.NoError(t, err) || !assert.Len(t, locked, 1) {
				return
			}
			next := locked[0].Balance.Sub(decimal.NewFromInt(10))
			assert.NoError(t, accounts.UpdateBalance(ctx, tx, "acc-1", next, time.Now()))
			assert.NoError(t, tx.Commit(ctx))
		}()
	}
	wg.Wait()

	acc, err := accounts.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(750)), "got %s", acc.Balance)
	assert.Equal(t, int64(workers), acc.Version)
}

func TestOutbox(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	outbox := s.Outbox()
	now := time.Now().UTC()

	tx, _ := s.Begin(ctx)
	m := testMovement("mov-1", now)
	require.NoError(t, outbox.Create(ctx, tx, domain.NewMovementEvent("ev-1", domain.EventTypeMovementCreated, m, now)))
	require.NoError(t, outbox.Create(ctx, tx, domain.NewMovementEvent("ev-2", domain.EventTypeMovementReversed, m, now)))
	require.NoError(t, tx.Commit(ctx))

	pending, err := outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, outbox.MarkPublished(ctx, "ev-1", now))

	pending, err = outbox.GetUnpublished(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ev-2", pending[0].ID)
}

func TestForeignTransactionRejected(t *testing.T) {
	s := seededStore()
	err := s.Movements().Create(context.Background(), fakeTx{}, testMovement("mov-1", time.Now()))
	assert.ErrorIs(t, err, errNotMemoryTx)
}

type fakeTx struct{}

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

func TestRowLocksAreDroppedAfterUse(t *testing.T) {
	s := seededStore()
	ctx := context.Background()
	movements := s.Movements()

	for _, id := range []string{"ghost-1", "ghost-2", "ghost-3"} {
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		_, err = movements.GetByIDForUpdate(ctx, tx, id)
		assert.ErrorIs(t, err, domain.ErrMovementNotFound)
		assert.ErrorIs(t, movements.Delete(ctx, tx, id), domain.ErrMovementNotFound)
		require.NoError(t, tx.Rollback(ctx))
	}
	assert.Zero(t, s.locks.size())

	first, _ := s.Begin(ctx)
	_, err := s.Accounts().GetByIDsForUpdate(ctx, first, []string{"acc-1"})
	require.NoError(t, err)

	// A waiter that gives up must not leak its entry either.
	second, _ := s.Begin(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = s.Accounts().GetByIDsForUpdate(waitCtx, second, []string{"acc-1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, s.locks.size())

	require.NoError(t, first.Commit(ctx))
	require.NoError(t, second.Rollback(ctx))
	assert.Zero(t, s.locks.size())
}
