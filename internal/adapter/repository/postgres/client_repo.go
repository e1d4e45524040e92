package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/infrastructure/postgres/generated"
	"github.com/iho/moveledger/internal/usecase"
)

var _ usecase.ClientDirectory = (*ClientDirectory)(nil)

// ClientDirectory resolves clients from the clients and accounts tables.
type ClientDirectory struct {
	queries *generated.Queries
}

// NewClientDirectory creates a new ClientDirectory.
func NewClientDirectory(pool *pgxpool.Pool) *ClientDirectory {
	return newClientDirectory(pool)
}

func newClientDirectory(db generated.DBTX) *ClientDirectory {
	return &ClientDirectory{queries: generated.New(db)}
}

// ResolveClient loads a client with the ids of its accounts.
func (d *ClientDirectory) ResolveClient(ctx context.Context, clientID string) (*domain.Client, error) {
	row, err := d.queries.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
		}
		return nil, err
	}

	accountIDs, err := d.queries.ListClientAccountIDs(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &domain.Client{ID: row.ID, Name: row.Name, AccountIDs: accountIDs}, nil
}

// CreateClient registers a client. Registering an existing id is a no-op.
func (d *ClientDirectory) CreateClient(ctx context.Context, id, name string) error {
	return d.queries.CreateClient(ctx, generated.CreateClientParams{
		ID:        id,
		Name:      name,
		CreatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
}
