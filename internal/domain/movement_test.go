package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validParams() MovementParams {
	return MovementParams{
		SenderClientID:     "C1",
		RecipientClientID:  strPtr("C2"),
		OriginAccount:      "IBANA",
		DestinationAccount: strPtr("IBANB"),
		Type:               MovementTypeTransfer,
		Amount:             decimal.NewFromInt(100),
	}
}

func TestMovementParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(p *MovementParams)
		expectError error
	}{
		{name: "valid transfer", mutate: func(p *MovementParams) {}},
		{
			name: "standalone deposit without destination or recipient",
			mutate: func(p *MovementParams) {
				p.DestinationAccount = nil
				p.RecipientClientID = nil
				p.Type = MovementTypeDeposit
			},
		},
		{
			name:        "missing sender",
			mutate:      func(p *MovementParams) { p.SenderClientID = "" },
			expectError: ErrMissingSender,
		},
		{
			name:        "missing origin account",
			mutate:      func(p *MovementParams) { p.OriginAccount = "" },
			expectError: ErrMissingOriginAccount,
		},
		{
			name:        "empty type",
			mutate:      func(p *MovementParams) { p.Type = "" },
			expectError: ErrMissingType,
		},
		{
			name:        "zero amount",
			mutate:      func(p *MovementParams) { p.Amount = decimal.Zero },
			expectError: ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			mutate:      func(p *MovementParams) { p.Amount = decimal.NewFromInt(-1) },
			expectError: ErrInvalidAmount,
		},
		{
			name:        "same origin and destination",
			mutate:      func(p *MovementParams) { p.DestinationAccount = strPtr("IBANA") },
			expectError: ErrSameAccount,
		},
		{
			name:        "blank recipient",
			mutate:      func(p *MovementParams) { p.RecipientClientID = strPtr("") },
			expectError: ErrInvalidIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			err := p.Validate()
			if tt.expectError == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectError)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewMovement_FixesReversalWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	m := NewMovement("mv-1", validParams(), decimal.NewFromInt(900), now)

	assert.Equal(t, now, m.CreatedAt)
	assert.Equal(t, now.Add(7*24*time.Hour), m.ReversalDeadline)
	assert.True(t, m.Reversible)
	assert.Equal(t, MovementStateCreated, m.State())
	assert.True(t, m.BalanceAfter.Equal(decimal.NewFromInt(900)))
	require.NoError(t, m.Validate())
}

func TestMovement_ValidateRejectsShiftedDeadline(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMovement("mv-1", validParams(), decimal.Zero, now)
	m.ReversalDeadline = m.ReversalDeadline.Add(time.Hour)

	assert.ErrorIs(t, m.Validate(), ErrInvalidReversalDeadline)

	m.ReversalDeadline = now.Add(ReversalWindow)
	m.ID = ""
	assert.ErrorIs(t, m.Validate(), ErrMissingMovementID)
}

func TestMovement_ValidateRejectsUnstorableValues(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	m := NewMovement("mv-1", validParams(), decimal.RequireFromString("1.123456789"), now)
	assert.ErrorIs(t, m.Validate(), ErrInvalidAmount)

	m.BalanceAfter = decimal.RequireFromString("-900.5")
	require.NoError(t, m.Validate())

	m.Amount = decimal.RequireFromString("0.000000001")
	assert.ErrorIs(t, m.Validate(), ErrValidation)
}

func TestMovement_CanReverse(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		reversible  bool
		at          time.Time
		expectError error
	}{
		{name: "one day later", reversible: true, at: created.Add(24 * time.Hour)},
		{name: "exactly at deadline", reversible: true, at: created.Add(ReversalWindow)},
		{name: "after deadline", reversible: true, at: created.Add(8 * 24 * time.Hour), expectError: ErrReversalWindowExpired},
		{name: "already reversed", reversible: false, at: created.Add(time.Hour), expectError: ErrMovementAlreadyReversed},
		{name: "already reversed and expired", reversible: false, at: created.Add(30 * 24 * time.Hour), expectError: ErrMovementAlreadyReversed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMovement("mv-1", validParams(), decimal.Zero, created)
			m.Reversible = tt.reversible

			err := m.CanReverse(tt.at)
			if tt.expectError == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectError)
			assert.True(t, errors.Is(err, ErrMovementNotReversible))
		})
	}
}

func TestMovement_MarkReversedIsMonotonic(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMovement("mv-1", validParams(), decimal.NewFromInt(900), created)

	require.NoError(t, m.MarkReversed(created.Add(24*time.Hour)))
	assert.False(t, m.Reversible)
	assert.Equal(t, MovementStateReversed, m.State())
	assert.True(t, m.BalanceAfter.Equal(decimal.NewFromInt(900)))

	err := m.MarkReversed(created.Add(25 * time.Hour))
	assert.ErrorIs(t, err, ErrMovementNotReversible)
	assert.False(t, m.Reversible)
}

func TestMovement_Involves(t *testing.T) {
	m := &Movement{SenderClientID: "C1", RecipientClientID: strPtr("C2")}

	assert.True(t, m.Involves("C1"))
	assert.True(t, m.Involves("C2"))
	assert.False(t, m.Involves("C3"))

	deposit := &Movement{SenderClientID: "C1"}
	assert.False(t, deposit.Involves("C2"))
}
