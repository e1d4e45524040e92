package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
)

// CreateMovementRequest represents a request to record a movement.
type CreateMovementRequest struct {
	SenderClientID     string  `json:"sender_client_id"`
	RecipientClientID  *string `json:"recipient_client_id,omitempty"`
	OriginAccount      string  `json:"origin_account"`
	DestinationAccount *string `json:"destination_account,omitempty"`
	Type               string  `json:"type"`
	Amount             string  `json:"amount"`
}

// ToUseCaseInput converts to use case input. Only the amount is parsed here;
// every other rule is enforced by the ledger.
func (r *CreateMovementRequest) ToUseCaseInput() (usecase.CreateMovementInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.CreateMovementInput{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	return usecase.CreateMovementInput{
		SenderClientID:     r.SenderClientID,
		RecipientClientID:  r.RecipientClientID,
		OriginAccount:      r.OriginAccount,
		DestinationAccount: r.DestinationAccount,
		Type:               domain.MovementType(r.Type),
		Amount:             amount,
	}, nil
}
