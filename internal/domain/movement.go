package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReversalWindow is how long after creation a movement may be reversed.
const ReversalWindow = 7 * 24 * time.Hour

// MovementType is an open tag used for filtering. It never changes how the
// ledger computes balances.
type MovementType string

const (
	MovementTypeTransfer MovementType = "TRANSFER"
	MovementTypePayment  MovementType = "PAYMENT"
	MovementTypeDeposit  MovementType = "DEPOSIT"
)

// MovementState is derived from the reversible flag.
type MovementState string

const (
	MovementStateCreated  MovementState = "created"
	MovementStateReversed MovementState = "reversed"
)

// Movement records a single fund transfer. Reversible is the only field that
// changes after creation.
type Movement struct {
	CreatedAt          time.Time
	ReversalDeadline   time.Time
	DestinationAccount *string
	RecipientClientID  *string
	ID                 string
	OriginAccount      string
	SenderClientID     string
	Type               MovementType
	Amount             decimal.Decimal
	BalanceAfter       decimal.Decimal
	Reversible         bool
}

// NewMovement builds a fresh movement created at now.
func NewMovement(id string, in MovementParams, balanceAfter decimal.Decimal, now time.Time) *Movement {
	return &Movement{
		ID:                 id,
		OriginAccount:      in.OriginAccount,
		DestinationAccount: in.DestinationAccount,
		SenderClientID:     in.SenderClientID,
		RecipientClientID:  in.RecipientClientID,
		Type:               in.Type,
		Amount:             in.Amount,
		BalanceAfter:       balanceAfter,
		CreatedAt:          now,
		ReversalDeadline:   now.Add(ReversalWindow),
		Reversible:         true,
	}
}

// MovementParams holds the caller-supplied part of a movement.
type MovementParams struct {
	DestinationAccount *string
	RecipientClientID  *string
	SenderClientID     string
	OriginAccount      string
	Type               MovementType
	Amount             decimal.Decimal
}

// Validate rejects requests before anything is read or written.
func (p MovementParams) Validate() error {
	if err := ValidateIdentifier(p.SenderClientID); err != nil {
		return ErrMissingSender
	}

	if err := ValidateIdentifier(p.OriginAccount); err != nil {
		return ErrMissingOriginAccount
	}

	if p.RecipientClientID != nil {
		if err := ValidateIdentifier(*p.RecipientClientID); err != nil {
			return err
		}
	}

	if p.DestinationAccount != nil {
		if err := ValidateIdentifier(*p.DestinationAccount); err != nil {
			return err
		}
		if *p.DestinationAccount == p.OriginAccount {
			return ErrSameAccount
		}
	}

	if err := ValidateMovementType(p.Type); err != nil {
		return err
	}

	return ValidateAmount(p.Amount)
}

// Validate checks the invariants every stored movement must satisfy.
func (m *Movement) Validate() error {
	if err := ValidateIdentifier(m.ID); err != nil {
		return ErrMissingMovementID
	}

	params := MovementParams{
		DestinationAccount: m.DestinationAccount,
		RecipientClientID:  m.RecipientClientID,
		SenderClientID:     m.SenderClientID,
		OriginAccount:      m.OriginAccount,
		Type:               m.Type,
		Amount:             m.Amount,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if err := ValidateMoney(m.BalanceAfter); err != nil {
		return fmt.Errorf("balance after: %w", err)
	}

	if !m.ReversalDeadline.Equal(m.CreatedAt.Add(ReversalWindow)) {
		return ErrInvalidReversalDeadline
	}

	return nil
}

// State reports where the movement is in its lifecycle.
func (m *Movement) State() MovementState {
	if m.Reversible {
		return MovementStateCreated
	}
	return MovementStateReversed
}

// CanReverse reports whether a reversal at now is allowed. Expiry is checked
// independently of the flag.
func (m *Movement) CanReverse(now time.Time) error {
	if !m.Reversible {
		return ErrMovementAlreadyReversed
	}

	if now.After(m.ReversalDeadline) {
		return ErrReversalWindowExpired
	}

	return nil
}

// MarkReversed applies the Created -> Reversed transition.
func (m *Movement) MarkReversed(now time.Time) error {
	if err := m.CanReverse(now); err != nil {
		return err
	}

	m.Reversible = false

	return nil
}

// Involves reports whether clientID is the sender or the recipient.
func (m *Movement) Involves(clientID string) bool {
	if m.SenderClientID == clientID {
		return true
	}
	return m.RecipientClientID != nil && *m.RecipientClientID == clientID
}
