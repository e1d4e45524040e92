package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/moveledger/internal/adapter/http/dto"
	"github.com/iho/moveledger/internal/adapter/repository/memory"
	"github.com/iho/moveledger/internal/domain"
	"github.com/iho/moveledger/internal/usecase"
)

type counterIDs struct {
	n atomic.Int64
}

func (g *counterIDs) Generate() string {
	return fmt.Sprintf("mov-%04d", g.n.Add(1))
}

// newLedgerRouter wires the real ledger over a seeded memory store.
func newLedgerRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.AddClient("alice", "Alice")
	store.AddClient("bob", "Bob")
	store.AddAccount("acc-1", "alice", "USD", decimal.NewFromInt(1000))
	store.AddAccount("acc-2", "bob", "USD", decimal.Zero)

	uc := usecase.NewMovementUseCase(store, store, store.Accounts(), store.Movements(), store.Outbox(), &counterIDs{})
	return newMovementRouter(NewMovementHandler(uc)), store
}

func newMovementRouter(h *MovementHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/movements", h.Create)
	r.Get("/movements", h.List)
	r.Get("/movements/export", h.Export)
	r.Post("/movements/import", h.Import)
	r.Get("/movements/{id}", h.Get)
	r.Post("/movements/{id}/reverse", h.Reverse)
	r.Delete("/movements/{id}", h.Delete)
	r.Get("/clients/{id}/movements", h.ListByClient)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func transferRequest(amount string) dto.CreateMovementRequest {
	dest := "acc-2"
	recipient := "bob"
	return dto.CreateMovementRequest{
		SenderClientID:     "alice",
		RecipientClientID:  &recipient,
		OriginAccount:      "acc-1",
		DestinationAccount: &dest,
		Type:               "TRANSFER",
		Amount:             amount,
	}
}

func TestMovementHandler_CreateAndGet(t *testing.T) {
	router, _ := newLedgerRouter(t)

	rec := do(t, router, http.MethodPost, "/movements", transferRequest("100"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	created := decode[dto.MovementResponse](t, rec)
	if !created.BalanceAfter.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected balance_after 900, got %s", created.BalanceAfter)
	}
	if created.State != domain.MovementStateCreated || !created.Reversible {
		t.Fatalf("expected a reversible movement, got %+v", created)
	}

	rec = do(t, router, http.MethodGet, "/movements/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[dto.MovementResponse](t, rec); got.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, got.ID)
	}
}

func TestMovementHandler_CreateRejections(t *testing.T) {
	router, store := newLedgerRouter(t)

	unknownSender := transferRequest("10")
	unknownSender.SenderClientID = "mallory"

	sameAccount := transferRequest("10")
	same := "acc-1"
	sameAccount.DestinationAccount = &same

	tests := []struct {
		name   string
		body   any
		status int
		kind   string
	}{
		{"malformed body", []byte(`{"amount":`), http.StatusBadRequest, ""},
		{"bad amount", transferRequest("ten"), http.StatusBadRequest, "validation"},
		{"zero amount", transferRequest("0"), http.StatusBadRequest, "validation"},
		{"negative amount", transferRequest("-5"), http.StatusBadRequest, "validation"},
		{"same account", sameAccount, http.StatusBadRequest, "validation"},
		{"unknown sender", unknownSender, http.StatusNotFound, "client_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/movements", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if got := decode[dto.ErrorResponse](t, rec); got.Kind != tt.kind {
				t.Fatalf("expected kind %q, got %q", tt.kind, got.Kind)
			}
		})
	}

	all, _ := store.Movements().ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected nothing persisted, got %d movements", len(all))
	}
}

func TestMovementHandler_ReverseTwice(t *testing.T) {
	router, _ := newLedgerRouter(t)

	created := decode[dto.MovementResponse](t, do(t, router, http.MethodPost, "/movements", transferRequest("100")))

	rec := do(t, router, http.MethodPost, "/movements/"+created.ID+"/reverse", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[dto.MovementResponse](t, rec); got.State != domain.MovementStateReversed {
		t.Fatalf("expected reversed state, got %s", got.State)
	}

	rec = do(t, router, http.MethodPost, "/movements/"+created.ID+"/reverse", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second reversal, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/movements/unknown/reverse", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown movement, got %d", rec.Code)
	}
}

func TestMovementHandler_ListFilters(t *testing.T) {
	router, _ := newLedgerRouter(t)

	do(t, router, http.MethodPost, "/movements", transferRequest("10"))
	payment := transferRequest("20")
	payment.Type = "PAYMENT"
	do(t, router, http.MethodPost, "/movements", payment)

	all := decode[[]dto.MovementResponse](t, do(t, router, http.MethodGet, "/movements", nil))
	if len(all) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(all))
	}

	payments := decode[[]dto.MovementResponse](t, do(t, router, http.MethodGet, "/movements?type=PAYMENT", nil))
	if len(payments) != 1 || payments[0].Type != domain.MovementTypePayment {
		t.Fatalf("expected one payment, got %+v", payments)
	}

	bob := decode[[]dto.MovementResponse](t, do(t, router, http.MethodGet, "/clients/bob/movements", nil))
	if len(bob) != 2 {
		t.Fatalf("expected bob to see both movements as recipient, got %d", len(bob))
	}

	none := decode[[]dto.MovementResponse](t, do(t, router, http.MethodGet, "/clients/carol/movements", nil))
	if len(none) != 0 {
		t.Fatalf("expected no movements for carol, got %d", len(none))
	}
}

func TestMovementHandler_Delete(t *testing.T) {
	router, _ := newLedgerRouter(t)

	created := decode[dto.MovementResponse](t, do(t, router, http.MethodPost, "/movements", transferRequest("10")))

	if rec := do(t, router, http.MethodDelete, "/movements/"+created.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/movements/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/movements/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestMovementHandler_ExportImport(t *testing.T) {
	source, _ := newLedgerRouter(t)
	do(t, source, http.MethodPost, "/movements", transferRequest("10"))
	second := decode[dto.MovementResponse](t, do(t, source, http.MethodPost, "/movements", transferRequest("20")))
	do(t, source, http.MethodPost, "/movements/"+second.ID+"/reverse", nil)

	rec := do(t, source, http.MethodGet, "/movements/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	archiveBytes := rec.Body.Bytes()

	archive, err := dto.DecodeArchive(bytes.NewReader(archiveBytes))
	if err != nil {
		t.Fatalf("decode archive: %v", err)
	}
	if len(archive.Movements) != 2 {
		t.Fatalf("expected 2 archived movements, got %d", len(archive.Movements))
	}

	target, targetStore := newLedgerRouter(t)
	rec = do(t, target, http.MethodPost, "/movements/import", archiveBytes)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[dto.ImportResponse](t, rec); got.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", got.Imported)
	}

	restored, err := targetStore.Movements().GetByID(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("get restored movement: %v", err)
	}
	if restored.Reversible {
		t.Fatal("expected reversed flag to survive the archive")
	}

	acc, _ := targetStore.Accounts().GetByID(context.Background(), "acc-1")
	if !acc.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected import to leave balances alone, got %s", acc.Balance)
	}

	rec = do(t, target, http.MethodPost, "/movements/import", archiveBytes)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate import, got %d", rec.Code)
	}

	rec = do(t, target, http.MethodPost, "/movements/import", []byte(`{"version":9,"movements":[]}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown archive version, got %d", rec.Code)
	}
}

type failingService struct {
	MovementService
	err error
}

func (s failingService) GetAllMovements(ctx context.Context) ([]*domain.Movement, error) {
	return nil, s.err
}

func TestMovementHandler_StoreFailureIs500(t *testing.T) {
	router := newMovementRouter(NewMovementHandler(failingService{err: errors.New("connection refused")}))

	rec := do(t, router, http.MethodGet, "/movements", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decode[dto.ErrorResponse](t, rec); got.Kind != "store" || !strings.Contains(got.Message, "connection refused") {
		t.Fatalf("unexpected error body %+v", got)
	}
}
