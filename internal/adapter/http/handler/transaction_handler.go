package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/adapter/http/dto"
	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// PostingService defines the behavior needed by TransactionHandler.
type PostingService interface {
	Post(ctx context.Context, code string, params usecase.TxParams) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactionsByExternalID(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error)
	ListEntries(ctx context.Context, transactionID uuid.UUID) ([]*domain.Entry, error)
}

// TransactionHandler handles transaction posting and lookup requests.
type TransactionHandler struct {
	postingUC PostingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(postingUC PostingService) *TransactionHandler {
	return &TransactionHandler{postingUC: postingUC}
}

// Post resolves a template against the supplied parameters and posts the
// resulting transaction atomically.
func (h *TransactionHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Template == "" {
		writeError(w, http.StatusBadRequest, "missing template code", "")
		return
	}

	params, err := req.ToParams()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parameters", err.Error())
		return
	}

	transaction, err := h.postingUC.Post(r.Context(), req.Template, params)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to post transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(transaction))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return
	}

	transaction, err := h.postingUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// ListByExternalID lists a journal's transactions sharing an external id.
func (h *TransactionHandler) ListByExternalID(w http.ResponseWriter, r *http.Request) {
	journalID, err := uuidParam(r, "journalID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journal ID", err.Error())
		return
	}

	externalID := r.URL.Query().Get("external_id")
	if externalID == "" {
		writeError(w, http.StatusBadRequest, "missing external_id", "")
		return
	}

	transactions, err := h.postingUC.ListTransactionsByExternalID(r.Context(), journalID, externalID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(transactions),
		Total:        int64(len(transactions)),
	})
}

// ListEntries lists the entries of a transaction in posting order.
func (h *TransactionHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction ID", err.Error())
		return
	}

	entries, err := h.postingUC.ListEntries(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
