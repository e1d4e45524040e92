package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/domain"
)

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID                 string               `json:"id"`
	SenderClientID     string               `json:"sender_client_id"`
	RecipientClientID  *string              `json:"recipient_client_id,omitempty"`
	OriginAccount      string               `json:"origin_account"`
	DestinationAccount *string              `json:"destination_account,omitempty"`
	Type               domain.MovementType  `json:"type"`
	Amount             decimal.Decimal      `json:"amount"`
	BalanceAfter       decimal.Decimal      `json:"balance_after"`
	State              domain.MovementState `json:"state"`
	Reversible         bool                 `json:"reversible"`
	CreatedAt          time.Time            `json:"created_at"`
	ReversalDeadline   time.Time            `json:"reversal_deadline"`
}

// MovementFromDomain converts a domain movement to a response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:                 m.ID,
		SenderClientID:     m.SenderClientID,
		RecipientClientID:  m.RecipientClientID,
		OriginAccount:      m.OriginAccount,
		DestinationAccount: m.DestinationAccount,
		Type:               m.Type,
		Amount:             m.Amount,
		BalanceAfter:       m.BalanceAfter,
		State:              m.State(),
		Reversible:         m.Reversible,
		CreatedAt:          m.CreatedAt,
		ReversalDeadline:   m.ReversalDeadline,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ImportResponse reports how many archived movements were re-inserted.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
