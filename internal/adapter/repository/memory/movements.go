package memory

import (
	"context"
	"fmt"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
)

var _ usecase.MovementRepository = (*MovementRepository)(nil)

// MovementRepository implements usecase.MovementRepository over a Store.
// Lists are returned in insertion order.
type MovementRepository struct {
	store *Store
}

// Create stages a new movement.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := mt.lock(ctx, movementKey(movement.ID)); err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.movements[movement.ID]
	r.store.mu.RUnlock()

	mt.mu.Lock()
	_, pending := mt.created[movement.ID]
	if !exists && !pending {
		mt.created[movement.ID] = struct{}{}
	}
	mt.mu.Unlock()

	if exists || pending {
		return fmt.Errorf("%w: %s", domain.ErrMovementExists, movement.ID)
	}

	s := r.store
	cp := copyMovement(movement)
	mt.stage(func() {
		s.movements[cp.ID] = cp
		s.order = append(s.order, cp.ID)
	})
	return nil
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.movements[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	return copyMovement(m), nil
}

// GetByIDForUpdate locks a movement until tx ends and returns it.
func (r *MovementRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Movement, error) {
	mt, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if err := mt.lock(ctx, movementKey(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// MarkReversed stages the reversible flag flip if it is still set.
func (r *MovementRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := mt.lock(ctx, movementKey(id)); err != nil {
		return err
	}

	r.store.mu.RLock()
	m, ok := r.store.movements[id]
	reversible := ok && m.Reversible
	r.store.mu.RUnlock()

	if !ok {
		return domain.ErrMovementNotFound
	}
	if !reversible {
		return domain.ErrMovementNotReversible
	}

	s := r.store
	mt.stage(func() {
		if m, ok := s.movements[id]; ok {
			m.Reversible = false
		}
	})
	return nil
}

// ListByParticipant lists movements sent or received by clientID.
func (r *MovementRepository) ListByParticipant(ctx context.Context, clientID string) ([]*domain.Movement, error) {
	return r.list(func(m *domain.Movement) bool { return m.Involves(clientID) }), nil
}

// ListByType lists movements with the given type tag.
func (r *MovementRepository) ListByType(ctx context.Context, movementType domain.MovementType) ([]*domain.Movement, error) {
	return r.list(func(m *domain.Movement) bool { return m.Type == movementType }), nil
}

// ListAll lists every movement.
func (r *MovementRepository) ListAll(ctx context.Context) ([]*domain.Movement, error) {
	return r.list(func(*domain.Movement) bool { return true }), nil
}

// Delete stages removal of a movement.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := mt.lock(ctx, movementKey(id)); err != nil {
		return err
	}

	r.store.mu.RLock()
	_, ok := r.store.movements[id]
	r.store.mu.RUnlock()
	if !ok {
		return domain.ErrMovementNotFound
	}

	s := r.store
	mt.stage(func() {
		delete(s.movements, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (r *MovementRepository) list(match func(*domain.Movement) bool) []*domain.Movement {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.Movement, 0)
	for _, id := range r.store.order {
		if m := r.store.movements[id]; match(m) {
			result = append(result, copyMovement(m))
		}
	}
	return result
}

func copyMovement(m *domain.Movement) *domain.Movement {
	cp := *m
	if m.DestinationAccount != nil {
		v := *m.DestinationAccount
		cp.DestinationAccount = &v
	}
	if m.RecipientClientID != nil {
		v := *m.RecipientClientID
		cp.RecipientClientID = &v
	}
	return &cp
}
