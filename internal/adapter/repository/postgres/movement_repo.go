package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/infrastructure/postgres/generated"
	"github.com/iho/moveledger/internal/usecase"
)

var _ usecase.MovementRepository = (*MovementRepository)(nil)

// MovementRepository implements usecase.MovementRepository. Lists are
// ordered by insertion sequence.
type MovementRepository struct {
	queries *generated.Queries
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return newMovementRepository(pool)
}

func newMovementRepository(db generated.DBTX) *MovementRepository {
	return &MovementRepository{queries: generated.New(db)}
}

// Create inserts a movement within a transaction.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateMovement(ctx, generated.CreateMovementParams{
		ID:                 movement.ID,
		SenderClientID:     movement.SenderClientID,
		RecipientClientID:  stringPtrToText(movement.RecipientClientID),
		OriginAccount:      movement.OriginAccount,
		DestinationAccount: stringPtrToText(movement.DestinationAccount),
		Type:               string(movement.Type),
		Amount:             decimalToNumeric(movement.Amount),
		BalanceAfter:       decimalToNumeric(movement.BalanceAfter),
		CreatedAt:          timeToPgTimestamptz(movement.CreatedAt),
		ReversalDeadline:   timeToPgTimestamptz(movement.ReversalDeadline),
		Reversible:         movement.Reversible,
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrMovementExists, movement.ID)
	}

	return err
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	row, err := r.queries.GetMovementByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, err
	}

	return rowToMovement(row)
}

// GetByIDForUpdate retrieves a movement and locks its row until tx ends.
func (r *MovementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Movement, error) {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetMovementByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, err
	}

	return rowToMovement(row)
}

// MarkReversed clears the reversible flag if it is still set.
func (r *MovementRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	n, err := r.queries.WithTx(pgxTx).MarkMovementReversed(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMovementNotReversible
	}

	return nil
}

// ListByParticipant lists movements where clientID is sender or recipient.
func (r *MovementRepository) ListByParticipant(ctx context.Context, clientID string) ([]*domain.Movement, error) {
	rows, err := r.queries.ListMovementsByParticipant(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return rowsToMovements(rows)
}

// ListByType lists movements with the given type tag.
func (r *MovementRepository) ListByType(ctx context.Context, movementType domain.MovementType) ([]*domain.Movement, error) {
	rows, err := r.queries.ListMovementsByType(ctx, string(movementType))
	if err != nil {
		return nil, err
	}
	return rowsToMovements(rows)
}

// ListAll lists every movement.
func (r *MovementRepository) ListAll(ctx context.Context) ([]*domain.Movement, error) {
	rows, err := r.queries.ListMovements(ctx)
	if err != nil {
		return nil, err
	}
	return rowsToMovements(rows)
}

// Delete removes a movement.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	n, err := r.queries.WithTx(pgxTx).DeleteMovement(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMovementNotFound
	}

	return nil
}

func rowsToMovements(rows []generated.Movement) ([]*domain.Movement, error) {
	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		m, err := rowToMovement(row)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, nil
}

func rowToMovement(row generated.Movement) (*domain.Movement, error) {
	amount, err := numericToDecimal(row.Amount)
	if err != nil {
		return nil, err
	}
	balanceAfter, err := numericToDecimal(row.BalanceAfter)
	if err != nil {
		return nil, err
	}

	return &domain.Movement{
		ID:                 row.ID,
		SenderClientID:     row.SenderClientID,
		RecipientClientID:  textToStringPtr(row.RecipientClientID),
		OriginAccount:      row.OriginAccount,
		DestinationAccount: textToStringPtr(row.DestinationAccount),
		Type:               domain.MovementType(row.Type),
		Amount:             amount,
		BalanceAfter:       balanceAfter,
		CreatedAt:          row.CreatedAt.Time.UTC(),
		ReversalDeadline:   row.ReversalDeadline.Time.UTC(),
		Reversible:         row.Reversible,
	}, nil
}
