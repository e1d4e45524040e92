package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/moveledger/internal/usecase"
)

var (
	errNotMemoryTx = errors.New("memory: transaction was not started by this store")
	errTxClosed    = errors.New("memory: transaction is closed")
)

// rowLocks hands out one exclusive lock per row key. Acquisition gives up
// when the context is done. An entry lives only while some transaction
// holds or waits for it.
type rowLocks struct {
	mu   sync.Mutex
	rows map[string]*rowLock
}

type rowLock struct {
	ch   chan struct{}
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{rows: make(map[string]*rowLock)}
}

func (l *rowLocks) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	rl, ok := l.rows[key]
	if !ok {
		rl = &rowLock{ch: make(chan struct{}, 1)}
		l.rows[key] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, rl)
		return ctx.Err()
	}
}

func (l *rowLocks) release(key string) {
	l.mu.Lock()
	rl := l.rows[key]
	l.mu.Unlock()

	<-rl.ch
	l.unref(key, rl)
}

func (l *rowLocks) unref(key string, rl *rowLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rl.refs--
	if rl.refs == 0 {
		delete(l.rows, key)
	}
}

// size reports how many keys are tracked.
func (l *rowLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

// Tx buffers writes and holds row locks until Commit or Rollback.
type Tx struct {
	store *Store
	mu    sync.Mutex
	held  map[string]struct{}
	order []string
	// movement ids inserted by this transaction
	created map[string]struct{}
	writes  []func()
	closed  bool
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: s, held: make(map[string]struct{}), created: make(map[string]struct{})}, nil
}

// Commit applies buffered writes atomically and releases locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTxClosed
	}

	t.store.mu.Lock()
	for _, w := range t.writes {
		w()
	}
	t.store.mu.Unlock()

	t.finish()
	return nil
}

// Rollback discards buffered writes and releases locks. Rolling back a
// finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.finish()
	return nil
}

func (t *Tx) finish() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
	t.held = nil
	t.writes = nil
	t.closed = true
}

func (t *Tx) lock(ctx context.Context, key string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errTxClosed
	}
	if _, ok := t.held[key]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := t.store.locks.acquire(ctx, key); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		t.store.locks.release(key)
		return errTxClosed
	}
	t.held[key] = struct{}{}
	t.order = append(t.order, key)
	return nil
}

func (t *Tx) stage(w func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, w)
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt == nil {
		return nil, errNotMemoryTx
	}
	return mt, nil
}

func accountKey(id string) string  { return "account:" + id }
func movementKey(id string) string { return "movement:" + id }
