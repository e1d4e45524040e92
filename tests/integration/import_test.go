package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
	"github.com/iho/moveledger/tests/testutil"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	db.TruncateAll(ctx)
	l := newLedger(db)

	alice := db.CreateTestClient(ctx, "Alice")
	bob := db.CreateTestClient(ctx, "Bob")
	source := db.CreateTestAccount(ctx, alice, "EUR", decimal.NewFromInt(1000))
	external := "DE89370400440532013000"

	for _, amount := range []int64{10, 20, 30} {
		_, err := l.uc.CreateMovement(ctx, usecase.CreateMovementInput{
			SenderClientID:     alice,
			RecipientClientID:  &bob,
			OriginAccount:      source.ID,
			DestinationAccount: &external,
			Type:               domain.MovementTypePayment,
			Amount:             decimal.NewFromInt(amount),
		})
		require.NoError(t, err)
	}
	assert.True(t, db.Balance(ctx, source.ID).Equal(decimal.NewFromInt(940)))

	exported, err := l.uc.GetAllMovements(ctx)
	require.NoError(t, err)
	require.Len(t, exported, 3)

	// Duplicates abort the whole batch.
	_, err = l.uc.ImportMovements(ctx, exported)
	assert.ErrorIs(t, err, domain.ErrMovementExists)

	for _, m := range exported {
		require.NoError(t, l.uc.DeleteMovement(ctx, m.ID))
	}

	n, err := l.uc.ImportMovements(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	restored, err := l.uc.GetMovementsByClientID(ctx, bob)
	require.NoError(t, err)
	require.Len(t, restored, 3)
	for i, m := range restored {
		assert.Equal(t, exported[i].ID, m.ID)
		assert.True(t, exported[i].BalanceAfter.Equal(m.BalanceAfter))
		assert.True(t, exported[i].CreatedAt.Equal(m.CreatedAt))
	}

	// Import never touches balances.
	assert.True(t, db.Balance(ctx, source.ID).Equal(decimal.NewFromInt(940)))
}
