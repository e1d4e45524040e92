package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
)

var _ usecase.AccountRepository = (*AccountRepository)(nil)

// AccountRepository implements usecase.AccountRepository over a Store.
type AccountRepository struct {
	store *Store
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

// GetByIDsForUpdate locks the existing accounts among ids in the given order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	mt, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if err := mt.lock(ctx, accountKey(id)); err != nil {
			return nil, err
		}

		r.store.mu.RLock()
		a, ok := r.store.accounts[id]
		var cp domain.Account
		if ok {
			cp = *a
		}
		r.store.mu.RUnlock()

		if ok {
			accounts = append(accounts, &cp)
		}
	}

	return accounts, nil
}

// UpdateBalance stages a balance change for an account locked by tx.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := mt.lock(ctx, accountKey(id)); err != nil {
		return err
	}

	r.store.mu.RLock()
	_, ok := r.store.accounts[id]
	r.store.mu.RUnlock()
	if !ok {
		return domain.ErrAccountNotFound
	}

	s := r.store
	mt.stage(func() {
		if a, ok := s.accounts[id]; ok {
			a.Balance = balance
			a.Version++
			a.UpdatedAt = updatedAt
		}
	})
	return nil
}
