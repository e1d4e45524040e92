package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/moveledger/internal/adapter/http/dto"
	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
)

// maxArchiveBytes caps the body accepted by Import.
const maxArchiveBytes = 64 << 20

// MovementService is the ledger as seen by the HTTP layer.
type MovementService interface {
	CreateMovement(ctx context.Context, input usecase.CreateMovementInput) (*domain.Movement, error)
	ReverseMovement(ctx context.Context, movementID string) error
	GetMovement(ctx context.Context, movementID string) (*domain.Movement, error)
	GetMovementsByClientID(ctx context.Context, clientID string) ([]*domain.Movement, error)
	GetAllMovements(ctx context.Context) ([]*domain.Movement, error)
	GetMovementsByType(ctx context.Context, movementType domain.MovementType) ([]*domain.Movement, error)
	DeleteMovement(ctx context.Context, movementID string) error
	ImportMovements(ctx context.Context, movements []*domain.Movement) (int, error)
}

// MovementHandler handles movement-related HTTP requests.
type MovementHandler struct {
	movements MovementService
	now       func() time.Time
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movements MovementService) *MovementHandler {
	return &MovementHandler{
		movements: movements,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records a new movement.
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid amount", err)
		return
	}

	movement, err := h.movements.CreateMovement(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	movement, err := h.movements.GetMovement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// List returns every movement, or only those of ?type= when given.
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		movements []*domain.Movement
		err       error
	)

	if t := r.URL.Query().Get("type"); t != "" {
		movements, err = h.movements.GetMovementsByType(r.Context(), domain.MovementType(t))
	} else {
		movements, err = h.movements.GetAllMovements(r.Context())
	}
	if err != nil {
		writeDomainError(w, "failed to list movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementsFromDomain(movements))
}

// ListByClient lists movements where the client is sender or recipient.
func (h *MovementHandler) ListByClient(w http.ResponseWriter, r *http.Request) {
	movements, err := h.movements.GetMovementsByClientID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list client movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementsFromDomain(movements))
}

// Reverse flips a movement to reversed and returns its new state.
func (h *MovementHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.movements.ReverseMovement(r.Context(), id); err != nil {
		writeDomainError(w, "failed to reverse movement", err)
		return
	}

	movement, err := h.movements.GetMovement(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// Delete removes a movement.
func (h *MovementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.movements.DeleteMovement(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete movement", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export streams every movement as an archive.
func (h *MovementHandler) Export(w http.ResponseWriter, r *http.Request) {
	movements, err := h.movements.GetAllMovements(r.Context())
	if err != nil {
		writeDomainError(w, "failed to export movements", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="movements.json"`)
	w.WriteHeader(http.StatusOK)
	dto.EncodeArchive(w, dto.NewArchive(movements, h.now()))
}

// Import re-inserts the movements of an archive. Nothing is written unless
// every movement is accepted.
func (h *MovementHandler) Import(w http.ResponseWriter, r *http.Request) {
	archive, err := dto.DecodeArchive(http.MaxBytesReader(w, r.Body, maxArchiveBytes))
	if err != nil {
		writeDomainError(w, "invalid archive", err)
		return
	}

	n, err := h.movements.ImportMovements(r.Context(), archive.ToDomain())
	if err != nil {
		writeDomainError(w, "failed to import movements", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportResponse{Imported: n})
}
