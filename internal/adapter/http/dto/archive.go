package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/domain"
)

// ArchiveVersion is the only archive layout this build reads and writes.
const ArchiveVersion = 1

// Archive is the export file format. Every stored field is kept so an import
// restores movements exactly, including the reversible flag.
type Archive struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Movements  []ArchivedMovement `json:"movements"`
}

// ArchivedMovement is one movement inside an Archive.
type ArchivedMovement struct {
	ID                 string          `json:"id"`
	SenderClientID     string          `json:"sender_client_id"`
	RecipientClientID  *string         `json:"recipient_client_id,omitempty"`
	OriginAccount      string          `json:"origin_account"`
	DestinationAccount *string         `json:"destination_account,omitempty"`
	Type               string          `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	BalanceAfter       decimal.Decimal `json:"balance_after"`
	Reversible         bool            `json:"reversible"`
	CreatedAt          time.Time       `json:"created_at"`
	ReversalDeadline   time.Time       `json:"reversal_deadline"`
}

// NewArchive wraps movements in a versioned archive.
func NewArchive(movements []*domain.Movement, exportedAt time.Time) *Archive {
	a := &Archive{
		Version:    ArchiveVersion,
		ExportedAt: exportedAt,
		Movements:  make([]ArchivedMovement, len(movements)),
	}
	for i, m := range movements {
		a.Movements[i] = ArchivedMovement{
			ID:                 m.ID,
			SenderClientID:     m.SenderClientID,
			RecipientClientID:  m.RecipientClientID,
			OriginAccount:      m.OriginAccount,
			DestinationAccount: m.DestinationAccount,
			Type:               string(m.Type),
			Amount:             m.Amount,
			BalanceAfter:       m.BalanceAfter,
			Reversible:         m.Reversible,
			CreatedAt:          m.CreatedAt,
			ReversalDeadline:   m.ReversalDeadline,
		}
	}
	return a
}

// ToDomain converts the archived movements back to domain movements.
func (a *Archive) ToDomain() []*domain.Movement {
	result := make([]*domain.Movement, len(a.Movements))
	for i, am := range a.Movements {
		result[i] = &domain.Movement{
			ID:                 am.ID,
			SenderClientID:     am.SenderClientID,
			RecipientClientID:  am.RecipientClientID,
			OriginAccount:      am.OriginAccount,
			DestinationAccount: am.DestinationAccount,
			Type:               domain.MovementType(am.Type),
			Amount:             am.Amount,
			BalanceAfter:       am.BalanceAfter,
			Reversible:         am.Reversible,
			CreatedAt:          am.CreatedAt,
			ReversalDeadline:   am.ReversalDeadline,
		}
	}
	return result
}

// DecodeArchive reads an archive and rejects unknown versions and fields.
func DecodeArchive(r io.Reader) (*Archive, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var a Archive
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: malformed archive: %v", domain.ErrValidation, err)
	}
	if a.Version != ArchiveVersion {
		return nil, fmt.Errorf("%w: unsupported archive version %d", domain.ErrValidation, a.Version)
	}
	return &a, nil
}

// EncodeArchive writes a as indented JSON.
func EncodeArchive(w io.Writer, a *Archive) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
