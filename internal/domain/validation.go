package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrValidation)
	ErrInvalidType       = fmt.Errorf("%w: invalid movement type", ErrValidation)
)

// Validation constants
const (
	MaxIdentifierLength   = 64
	MaxMovementTypeLength = 32

	// AmountScale and AmountIntegerDigits match the NUMERIC(38, 8) columns.
	AmountScale         = 8
	AmountIntegerDigits = 30
)

var maxAmount = decimal.New(1, AmountIntegerDigits)

// ValidateIdentifier validates client, account and movement identifiers.
func ValidateIdentifier(id string) error {
	trimmed := strings.TrimSpace(id)

	if trimmed == "" {
		return fmt.Errorf("%w: identifier cannot be empty", ErrInvalidIdentifier)
	}

	if trimmed != id {
		return fmt.Errorf("%w: identifier has surrounding whitespace", ErrInvalidIdentifier)
	}

	if len(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: identifier exceeds %d characters", ErrInvalidIdentifier, MaxIdentifierLength)
	}

	return nil
}

// ValidateMovementType validates a type tag. The tag itself is opaque.
func ValidateMovementType(t MovementType) error {
	if strings.TrimSpace(string(t)) == "" {
		return ErrMissingType
	}

	if len(t) > MaxMovementTypeLength {
		return fmt.Errorf("%w: type exceeds %d characters", ErrInvalidType, MaxMovementTypeLength)
	}

	return nil
}

// ValidateAmount validates a movement amount. Amounts must be positive and
// fit the stored precision exactly.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return ValidateMoney(amount)
}

// ValidateMoney checks that a value has at most AmountScale decimal places
// and fewer than AmountIntegerDigits integer digits.
func ValidateMoney(value decimal.Decimal) error {
	if !value.Equal(value.Truncate(AmountScale)) {
		return fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, AmountScale)
	}

	if value.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: exceeds %d integer digits", ErrInvalidAmount, AmountIntegerDigits)
	}

	return nil
}
