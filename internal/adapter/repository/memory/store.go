// Package memory provides an in-process implementation of the ledger ports.
// Row locks are held per transaction like SELECT ... FOR UPDATE, so the
// ledger behaves the same against it as against Postgres.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
)

var (
	_ usecase.TransactionManager = (*Store)(nil)
	_ usecase.ClientDirectory    = (*Store)(nil)
)

// Store keeps clients, accounts, movements and outbox events in memory.
type Store struct {
	mu        sync.RWMutex
	clients   map[string]*domain.Client
	accounts  map[string]*domain.Account
	movements map[string]*domain.Movement
	order     []string
	events    []*domain.OutboxEvent
	locks     *rowLocks
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		clients:   make(map[string]*domain.Client),
		accounts:  make(map[string]*domain.Account),
		movements: make(map[string]*domain.Movement),
		locks:     newRowLocks(),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{store: s} }

// Movements returns the movement repository view of the store.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{store: s} }

// Outbox returns the outbox repository view of the store.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{store: s} }

// AddClient registers a client in the directory.
func (s *Store) AddClient(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		s.clients[id] = &domain.Client{ID: id, Name: name}
	}
}

// AddAccount registers an account and links it to its client.
func (s *Store) AddAccount(id, clientID, currency string, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[id] = &domain.Account{
		ID:        id,
		ClientID:  clientID,
		Currency:  currency,
		Balance:   balance,
		UpdatedAt: time.Now().UTC(),
	}
	if c, ok := s.clients[clientID]; ok && !c.OwnsAccount(id) {
		c.AccountIDs = append(c.AccountIDs, id)
	}
}

// ResolveClient implements usecase.ClientDirectory.
func (s *Store) ResolveClient(ctx context.Context, clientID string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrClientNotFound, clientID)
	}

	cp := *c
	cp.AccountIDs = append([]string(nil), c.AccountIDs...)
	return &cp, nil
}

// Ping reports the store as always reachable.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
