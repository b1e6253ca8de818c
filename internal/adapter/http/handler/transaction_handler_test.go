package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/celledger/internal/adapter/http/dto"
	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

type postingServiceStub struct {
	postFn        func(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error)
	getFn         func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	listFn        func(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error)
	listEntriesFn func(ctx context.Context, transactionID uuid.UUID) ([]*domain.Entry, error)
}

func (s *postingServiceStub) Post(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error) {
	return s.postFn(ctx, code, params)
}

func (s *postingServiceStub) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *postingServiceStub) ListTransactionsByExternalID(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error) {
	return s.listFn(ctx, journalID, externalID)
}

func (s *postingServiceStub) ListEntries(ctx context.Context, transactionID uuid.UUID) ([]*domain.Entry, error) {
	return s.listEntriesFn(ctx, transactionID)
}

func TestTransactionHandler_Post_Success(t *testing.T) {
	journalID := uuid.New()
	transaction := &domain.Transaction{
		ID:        uuid.New(),
		Version:   1,
		JournalID: journalID,
	}

	var capturedCode string
	var capturedParams usecase.TxParams
	handler := NewTransactionHandler(&postingServiceStub{
		postFn: func(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error) {
			capturedCode = code
			capturedParams = params
			return transaction, nil
		},
	})

	body, _ := json.Marshal(dto.PostTransactionRequest{
		Template: "SIMPLE_TRANSFER",
		Params: map[string]any{
			"journal_id": journalID.String(),
			"amount":     1290,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if capturedCode != "SIMPLE_TRANSFER" {
		t.Fatalf("expected template code to pass through, got %q", capturedCode)
	}
	if _, ok := capturedParams["journal_id"].(cel.String); !ok {
		t.Fatalf("expected journal_id as string value, got %T", capturedParams["journal_id"])
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != transaction.ID.String() {
		t.Fatalf("expected transaction ID %s, got %s", transaction.ID, resp.ID)
	}
}

func TestTransactionHandler_Post_MissingTemplate(t *testing.T) {
	handler := NewTransactionHandler(&postingServiceStub{
		postFn: func(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error) {
			t.Fatal("Post should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(`{"params":{}}`))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_Post_Unbalanced(t *testing.T) {
	handler := NewTransactionHandler(&postingServiceStub{
		postFn: func(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error) {
			return nil, &domain.UnbalancedTransactionError{
				Currency: "BTC",
				Residual: decimal.NewFromInt(2580),
			}
		},
	})

	body, _ := json.Marshal(dto.PostTransactionRequest{Template: "BROKEN"})
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_Post_LockConflict(t *testing.T) {
	handler := NewTransactionHandler(&postingServiceStub{
		postFn: func(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error) {
			return nil, domain.ErrOptimisticLocking
		},
	})

	body, _ := json.Marshal(dto.PostTransactionRequest{Template: "SIMPLE_TRANSFER"})
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTransactionHandler_Get_NotFound(t *testing.T) {
	handler := NewTransactionHandler(&postingServiceStub{
		getFn: func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotFound
		},
	})

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/transactions/"+id, nil)
	req = withURLParam(req, "id", id)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_ListByExternalID(t *testing.T) {
	journalID := uuid.New()
	handler := NewTransactionHandler(&postingServiceStub{
		listFn: func(ctx context.Context, gotJournal uuid.UUID, externalID string) ([]*domain.Transaction, error) {
			if gotJournal != journalID || externalID != "order-42" {
				t.Fatalf("unexpected query: journal=%s external=%s", gotJournal, externalID)
			}
			return []*domain.Transaction{{ID: uuid.New(), JournalID: journalID, ExternalID: "order-42"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/journals/"+journalID.String()+"/transactions?external_id=order-42", nil)
	req = withURLParam(req, "journalID", journalID.String())
	rec := httptest.NewRecorder()

	handler.ListByExternalID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ListTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected one transaction, got %+v", resp)
	}
}

func TestTransactionHandler_ListByExternalID_MissingQuery(t *testing.T) {
	handler := NewTransactionHandler(&postingServiceStub{
		listFn: func(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error) {
			t.Fatal("ListTransactionsByExternalID should not be called")
			return nil, nil
		},
	})

	journalID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/journals/"+journalID+"/transactions", nil)
	req = withURLParam(req, "journalID", journalID)
	rec := httptest.NewRecorder()

	handler.ListByExternalID(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_ListEntries(t *testing.T) {
	transactionID := uuid.New()
	handler := NewTransactionHandler(&postingServiceStub{
		listEntriesFn: func(ctx context.Context, id uuid.UUID) ([]*domain.Entry, error) {
			return []*domain.Entry{
				{ID: uuid.New(), TransactionID: id, Sequence: 1, Units: decimal.NewFromInt(1290)},
				{ID: uuid.New(), TransactionID: id, Sequence: 2, Units: decimal.NewFromInt(1290)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions/"+transactionID.String()+"/entries", nil)
	req = withURLParam(req, "id", transactionID.String())
	rec := httptest.NewRecorder()

	handler.ListEntries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListEntriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected two entries, got %+v", resp)
	}
}
