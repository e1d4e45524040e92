package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/infrastructure/metrics"
)

// MovementUseCase records movements, enforces the reversal window and answers
// queries over recorded movements. It holds no mutable state and is safe to
// share across goroutines.
type MovementUseCase struct {
	txManager    TransactionManager
	directory    ClientDirectory
	accountRepo  AccountRepository
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	clock        Clock
	retrier      Retrier
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewMovementUseCase creates a new MovementUseCase.
func NewMovementUseCase(
	txManager TransactionManager,
	directory ClientDirectory,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *MovementUseCase {
	return &MovementUseCase{
		txManager:    txManager,
		directory:    directory,
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		clock:        SystemClock{},
		logger:       zerolog.Nop(),
	}
}

// WithRetrier retries transactions that hit serialization failures.
func (uc *MovementUseCase) WithRetrier(retrier Retrier) *MovementUseCase {
	uc.retrier = retrier
	return uc
}

// WithClock replaces the wall clock.
func (uc *MovementUseCase) WithClock(clock Clock) *MovementUseCase {
	uc.clock = clock
	return uc
}

// WithMetrics enables Prometheus instrumentation.
func (uc *MovementUseCase) WithMetrics(m *metrics.Metrics) *MovementUseCase {
	uc.metrics = m
	return uc
}

// WithLogger sets the logger.
func (uc *MovementUseCase) WithLogger(logger zerolog.Logger) *MovementUseCase {
	uc.logger = logger.With().Str("component", "movement_ledger").Logger()
	return uc
}

// CreateMovementInput represents input for creating a movement.
type CreateMovementInput struct {
	RecipientClientID  *string
	DestinationAccount *string
	SenderClientID     string
	OriginAccount      string
	Type               domain.MovementType
	Amount             decimal.Decimal
}

func (in CreateMovementInput) params() domain.MovementParams {
	return domain.MovementParams{
		SenderClientID:     in.SenderClientID,
		RecipientClientID:  in.RecipientClientID,
		OriginAccount:      in.OriginAccount,
		DestinationAccount: in.DestinationAccount,
		Type:               in.Type,
		Amount:             in.Amount,
	}
}

// CreateMovement validates and records a movement. The origin balance is read
// and the movement written while the origin account row is locked, so the
// BalanceAfter values recorded for an account follow a serial order.
func (uc *MovementUseCase) CreateMovement(ctx context.Context, input CreateMovementInput) (*domain.Movement, error) {
	const op = "create"
	start := time.Now()

	params := input.params()
	if err := params.Validate(); err != nil {
		return nil, uc.fail(op, err)
	}

	sender, err := uc.directory.ResolveClient(ctx, params.SenderClientID)
	if err != nil {
		return nil, uc.fail(op, err)
	}

	if params.RecipientClientID != nil {
		if _, err := uc.directory.ResolveClient(ctx, *params.RecipientClientID); err != nil {
			return nil, uc.fail(op, err)
		}
	}

	if !sender.OwnsAccount(params.OriginAccount) {
		return nil, uc.fail(op, fmt.Errorf("%w: %s is not held by client %s", domain.ErrAccountNotFound, params.OriginAccount, sender.ID))
	}

	var movement *domain.Movement
	err = uc.retry(ctx, func() error {
		var err error
		movement, err = uc.createInTx(ctx, params)
		return err
	})
	if err != nil {
		return nil, uc.fail(op, err)
	}

	if uc.metrics != nil {
		uc.metrics.MovementsCreated.Inc()
		uc.metrics.MovementDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		uc.metrics.MovementAmount.Observe(movement.Amount.InexactFloat64())
	}

	uc.logger.Info().
		Str("movement_id", movement.ID).
		Str("sender_client_id", movement.SenderClientID).
		Str("origin_account", movement.OriginAccount).
		Str("type", string(movement.Type)).
		Str("amount", movement.Amount.String()).
		Str("balance_after", movement.BalanceAfter.String()).
		Msg("movement created")

	return movement, nil
}

func (uc *MovementUseCase) createInTx(ctx context.Context, params domain.MovementParams) (*domain.Movement, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock in sorted order so opposite transfers cannot deadlock.
	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, lockOrder(params))
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	origin := accountMap[params.OriginAccount]
	if origin == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, params.OriginAccount)
	}
	// The directory may be a cached view; the locked row is authoritative.
	if origin.ClientID != params.SenderClientID {
		return nil, fmt.Errorf("%w: %s is not held by client %s", domain.ErrAccountNotFound, origin.ID, params.SenderClientID)
	}

	now := uc.clock.Now()
	balanceAfter := origin.ApplyDebit(params.Amount)
	movement := domain.NewMovement(uc.idGen.Generate(), params, balanceAfter, now)

	if err := uc.movementRepo.Create(txCtx, tx, movement); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(txCtx, tx, origin.ID, balanceAfter, now); err != nil {
		return nil, err
	}

	// Destinations outside this bank are recorded but not credited.
	if params.DestinationAccount != nil {
		if dest := accountMap[*params.DestinationAccount]; dest != nil {
			if err := uc.accountRepo.UpdateBalance(txCtx, tx, dest.ID, dest.ApplyCredit(params.Amount), now); err != nil {
				return nil, err
			}
		}
	}

	if err := uc.emit(txCtx, tx, domain.EventTypeMovementCreated, movement, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return movement, nil
}

// ReverseMovement marks a movement as no longer reversible. It fails with
// domain.ErrMovementNotReversible when the movement was already reversed or
// the reversal window has passed. Funds are not moved.
func (uc *MovementUseCase) ReverseMovement(ctx context.Context, movementID string) error {
	const op = "reverse"
	start := time.Now()

	if err := domain.ValidateIdentifier(movementID); err != nil {
		return uc.fail(op, domain.ErrMissingMovementID)
	}

	err := uc.retry(ctx, func() error {
		return uc.reverseInTx(ctx, movementID)
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("movement_id", movementID).Msg("movement reversal rejected")
		return uc.fail(op, err)
	}

	if uc.metrics != nil {
		uc.metrics.MovementsReversed.Inc()
		uc.metrics.MovementDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().Str("movement_id", movementID).Msg("movement reversed")

	return nil
}

func (uc *MovementUseCase) reverseInTx(ctx context.Context, movementID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	movement, err := uc.movementRepo.GetByIDForUpdate(txCtx, tx, movementID)
	if err != nil {
		return err
	}

	// Eligibility is judged at call time, never at creation time.
	now := uc.clock.Now()
	if err := movement.MarkReversed(now); err != nil {
		return err
	}

	if err := uc.movementRepo.MarkReversed(txCtx, tx, movementID); err != nil {
		return err
	}

	if err := uc.emit(txCtx, tx, domain.EventTypeMovementReversed, movement, now); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// GetMovement retrieves a movement by ID.
func (uc *MovementUseCase) GetMovement(ctx context.Context, movementID string) (*domain.Movement, error) {
	if err := domain.ValidateIdentifier(movementID); err != nil {
		return nil, domain.ErrMissingMovementID
	}
	return uc.movementRepo.GetByID(ctx, movementID)
}

// GetMovementsByClientID lists movements where the client is sender or
// recipient. A self-transfer appears once.
func (uc *MovementUseCase) GetMovementsByClientID(ctx context.Context, clientID string) ([]*domain.Movement, error) {
	if err := domain.ValidateIdentifier(clientID); err != nil {
		return nil, err
	}

	movements, err := uc.movementRepo.ListByParticipant(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return dedupe(movements), nil
}

// GetAllMovements lists every stored movement.
func (uc *MovementUseCase) GetAllMovements(ctx context.Context) ([]*domain.Movement, error) {
	return uc.movementRepo.ListAll(ctx)
}

// GetMovementsByType lists movements whose type tag matches exactly.
func (uc *MovementUseCase) GetMovementsByType(ctx context.Context, movementType domain.MovementType) ([]*domain.Movement, error) {
	if err := domain.ValidateMovementType(movementType); err != nil {
		return nil, err
	}
	return uc.movementRepo.ListByType(ctx, movementType)
}

// DeleteMovement permanently removes a movement. It is an administrative
// operation and does not touch any balance.
func (uc *MovementUseCase) DeleteMovement(ctx context.Context, movementID string) error {
	const op = "delete"

	if err := domain.ValidateIdentifier(movementID); err != nil {
		return uc.fail(op, domain.ErrMissingMovementID)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return uc.fail(op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	movement, err := uc.movementRepo.GetByIDForUpdate(txCtx, tx, movementID)
	if err != nil {
		return uc.fail(op, err)
	}

	if err := uc.movementRepo.Delete(txCtx, tx, movementID); err != nil {
		return uc.fail(op, err)
	}

	if err := uc.emit(txCtx, tx, domain.EventTypeMovementDeleted, movement, uc.clock.Now()); err != nil {
		return uc.fail(op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return uc.fail(op, err)
	}

	if uc.metrics != nil {
		uc.metrics.MovementsDeleted.Inc()
	}

	uc.logger.Info().Str("movement_id", movementID).Msg("movement deleted")

	return nil
}

// ImportMovements re-inserts archived movements in one transaction. Every
// record must satisfy the stored-movement invariants, name known clients and
// carry an unused id. On any failure nothing is written.
func (uc *MovementUseCase) ImportMovements(ctx context.Context, movements []*domain.Movement) (int, error) {
	const op = "import"

	if len(movements) == 0 {
		return 0, nil
	}

	if len(movements) > MaxImportBatch {
		return 0, uc.fail(op, fmt.Errorf("%w: archive holds %d movements, limit is %d", domain.ErrValidation, len(movements), MaxImportBatch))
	}

	seen := make(map[string]struct{}, len(movements))
	for i, m := range movements {
		if m == nil {
			return 0, uc.fail(op, fmt.Errorf("%w: record %d is empty", domain.ErrValidation, i))
		}
		if err := m.Validate(); err != nil {
			return 0, uc.fail(op, fmt.Errorf("record %d: %w", i, err))
		}
		if _, dup := seen[m.ID]; dup {
			return 0, uc.fail(op, fmt.Errorf("%w: %s appears twice in archive", domain.ErrMovementExists, m.ID))
		}
		seen[m.ID] = struct{}{}
	}

	if err := uc.resolveParticipants(ctx, movements); err != nil {
		return 0, uc.fail(op, err)
	}

	err := uc.retry(ctx, func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		for _, m := range movements {
			if err := uc.movementRepo.Create(txCtx, tx, m); err != nil {
				return err
			}
		}

		return tx.Commit(txCtx)
	})
	if err != nil {
		return 0, uc.fail(op, err)
	}

	if uc.metrics != nil {
		uc.metrics.MovementsImported.Add(float64(len(movements)))
	}

	uc.logger.Info().Int("count", len(movements)).Msg("movements imported")

	return len(movements), nil
}

// resolveParticipants checks that every sender and recipient named in
// movements is a known client. Each id is resolved once.
func (uc *MovementUseCase) resolveParticipants(ctx context.Context, movements []*domain.Movement) error {
	resolved := make(map[string]struct{})
	resolve := func(clientID string) error {
		if _, ok := resolved[clientID]; ok {
			return nil
		}
		if _, err := uc.directory.ResolveClient(ctx, clientID); err != nil {
			return err
		}
		resolved[clientID] = struct{}{}
		return nil
	}

	for i, m := range movements {
		if err := resolve(m.SenderClientID); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if m.RecipientClientID != nil {
			if err := resolve(*m.RecipientClientID); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
	}

	return nil
}

func (uc *MovementUseCase) emit(ctx context.Context, tx Transaction, eventType string, m *domain.Movement, at time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}
	return uc.outboxRepo.Create(ctx, tx, domain.NewMovementEvent(uc.idGen.Generate(), eventType, m, at))
}

func (uc *MovementUseCase) retry(ctx context.Context, operation func() error) error {
	if uc.retrier == nil {
		return operation()
	}
	return uc.retrier.Retry(ctx, operation)
}

func (uc *MovementUseCase) fail(op string, err error) error {
	if uc.metrics != nil {
		uc.metrics.MovementErrors.WithLabelValues(op, ErrorKind(err)).Inc()
	}
	return err
}

// ErrorKind classifies err into the ledger error taxonomy.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrClientNotFound):
		return "client_not_found"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrMovementNotFound):
		return "movement_not_found"
	case errors.Is(err, domain.ErrMovementNotReversible):
		return "not_reversible"
	case errors.Is(err, domain.ErrMovementExists):
		return "movement_exists"
	default:
		return "store"
	}
}

func lockOrder(params domain.MovementParams) []string {
	ids := []string{params.OriginAccount}
	if params.DestinationAccount != nil && *params.DestinationAccount != params.OriginAccount {
		ids = append(ids, *params.DestinationAccount)
	}
	sort.Strings(ids)
	return ids
}

func dedupe(movements []*domain.Movement) []*domain.Movement {
	seen := make(map[string]struct{}, len(movements))
	result := make([]*domain.Movement, 0, len(movements))
	for _, m := range movements {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		result = append(result, m)
	}
	return result
}
