package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/moveledger/internal/adapter/repository/postgres"
	"github.com/iho/moveledger/internal/domain"
)

// seedFile is the SEED_FILE layout.
type seedFile struct {
	Clients []seedClient `json:"clients"`
}

type seedClient struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Accounts []seedAccount `json:"accounts"`
}

type seedAccount struct {
	ID       string          `json:"id"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// seeder registers directory entries. Existing entries are left untouched.
type seeder interface {
	seedClient(ctx context.Context, id, name string) error
	seedAccount(ctx context.Context, account *domain.Account) error
}

func loadSeed(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var s seedFile
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for _, c := range s.Clients {
		if err := domain.ValidateIdentifier(c.ID); err != nil {
			return nil, fmt.Errorf("seed client %q: %w", c.ID, err)
		}
		for _, acc := range c.Accounts {
			if err := domain.ValidateIdentifier(acc.ID); err != nil {
				return nil, fmt.Errorf("seed account %q: %w", acc.ID, err)
			}
			if err := domain.ValidateMoney(acc.Balance); err != nil {
				return nil, fmt.Errorf("seed account %q balance: %w", acc.ID, err)
			}
		}
	}

	return &s, nil
}

func (s *seedFile) apply(ctx context.Context, target seeder) error {
	now := time.Now().UTC()

	for _, c := range s.Clients {
		if err := target.seedClient(ctx, c.ID, c.Name); err != nil {
			return fmt.Errorf("client %s: %w", c.ID, err)
		}
		for _, acc := range c.Accounts {
			err := target.seedAccount(ctx, &domain.Account{
				ID:        acc.ID,
				ClientID:  c.ID,
				Currency:  acc.Currency,
				Balance:   acc.Balance,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("account %s: %w", acc.ID, err)
			}
		}
	}

	return nil
}

type memorySeeder struct {
	store *memory.Store
}

func (s memorySeeder) seedClient(ctx context.Context, id, name string) error {
	s.store.AddClient(id, name)
	return nil
}

func (s memorySeeder) seedAccount(ctx context.Context, a *domain.Account) error {
	if _, err := s.store.Accounts().GetByID(ctx, a.ID); err == nil {
		return nil
	}
	s.store.AddAccount(a.ID, a.ClientID, a.Currency, a.Balance)
	return nil
}

type postgresSeeder struct {
	clients  *postgresRepo.ClientDirectory
	accounts *postgresRepo.AccountRepository
}

func (s postgresSeeder) seedClient(ctx context.Context, id, name string) error {
	return s.clients.CreateClient(ctx, id, name)
}

func (s postgresSeeder) seedAccount(ctx context.Context, a *domain.Account) error {
	_, err := s.accounts.GetByID(ctx, a.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}
	return s.accounts.Create(ctx, a)
}
