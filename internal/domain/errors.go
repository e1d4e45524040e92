package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every input rejection.
	ErrValidation = errors.New("validation error")

	// Client and account errors
	ErrClientNotFound  = errors.New("client not found")
	ErrAccountNotFound = errors.New("account not found")

	// Movement errors
	ErrMovementNotFound      = errors.New("movement not found")
	ErrMovementNotReversible = errors.New("movement is not reversible")
	ErrMovementExists        = errors.New("movement already exists")
)

// Detailed causes. Each one still matches its kind with errors.Is.
var (
	ErrInvalidAmount           = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrMissingSender           = fmt.Errorf("%w: sender client id is required", ErrValidation)
	ErrMissingOriginAccount    = fmt.Errorf("%w: origin account is required", ErrValidation)
	ErrMissingType             = fmt.Errorf("%w: movement type is required", ErrValidation)
	ErrMissingMovementID       = fmt.Errorf("%w: movement id is required", ErrValidation)
	ErrSameAccount             = fmt.Errorf("%w: origin and destination accounts are the same", ErrValidation)
	ErrInvalidReversalDeadline = fmt.Errorf("%w: reversal deadline must be created_at + 7 days", ErrValidation)

	ErrMovementAlreadyReversed = fmt.Errorf("%w: already reversed", ErrMovementNotReversible)
	ErrReversalWindowExpired   = fmt.Errorf("%w: reversal window expired", ErrMovementNotReversible)
)
