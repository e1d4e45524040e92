package postgres

import (
	"github.com/oklog/ulid/v2"

	"github.com/iho/moveledger/internal/usecase"
)

var _ usecase.IDGenerator = (*ULIDGenerator)(nil)

// ULIDGenerator generates ULID-based IDs. ULIDs sort by creation time,
// which keeps movement ids roughly in insertion order.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
