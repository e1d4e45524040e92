package domain

import "time"

// Event types
const (
	EventTypeMovementCreated  = "movement.created"
	EventTypeMovementReversed = "movement.reversed"
	EventTypeMovementDeleted  = "movement.deleted"
)

// AggregateTypeMovement is the aggregate type of every ledger event.
const AggregateTypeMovement = "movement"

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewMovementEvent builds an unpublished outbox event for m.
func NewMovementEvent(id, eventType string, m *Movement, at time.Time) *OutboxEvent {
	payload := map[string]any{
		"movement_id":      m.ID,
		"sender_client_id": m.SenderClientID,
		"origin_account":   m.OriginAccount,
		"type":             string(m.Type),
		"amount":           m.Amount.String(),
		"balance_after":    m.BalanceAfter.String(),
		"reversible":       m.Reversible,
		"event_at":         at.Format(time.RFC3339Nano),
	}
	if m.RecipientClientID != nil {
		payload["recipient_client_id"] = *m.RecipientClientID
	}
	if m.DestinationAccount != nil {
		payload["destination_account"] = *m.DestinationAccount
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   m.ID,
		AggregateType: AggregateTypeMovement,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
		Published:     false,
	}
}
