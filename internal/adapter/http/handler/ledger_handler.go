package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iho/celledger/internal/adapter/http/dto"
	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	GetBalance(ctx context.Context, journalID, accountID uuid.UUID, currency string) (*domain.AccountBalance, error)
	ListAccountEntries(ctx context.Context, input usecase.ListAccountEntriesInput) ([]*domain.Entry, error)
}

// LedgerHandler handles balance and account-history requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// GetBalance returns the current balance snapshot for one account and
// currency within a journal.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	journalID, err := uuidParam(r, "journalID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journal ID", err.Error())
		return
	}

	accountID, err := uuidParam(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account ID", err.Error())
		return
	}

	currency := chi.URLParam(r, "currency")
	if currency == "" {
		writeError(w, http.StatusBadRequest, "missing currency", "")
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), journalID, accountID, currency)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// ListAccountEntries lists an account's entries, newest first.
func (h *LedgerHandler) ListAccountEntries(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account ID", err.Error())
		return
	}

	entries, err := h.ledgerUC.ListAccountEntries(r.Context(), usecase.ListAccountEntriesInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
