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

// JournalService defines the behavior needed by JournalHandler.
type JournalService interface {
	CreateJournal(ctx context.Context, input usecase.CreateJournalInput) (*domain.Journal, error)
	GetJournal(ctx context.Context, id uuid.UUID) (*domain.Journal, error)
	ListJournals(ctx context.Context, input usecase.ListJournalsInput) ([]*domain.Journal, error)
}

// JournalHandler handles journal-related HTTP requests.
type JournalHandler struct {
	journalUC JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC JournalService) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// Create creates a new journal.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journal", err.Error())
		return
	}

	journal, err := h.journalUC.CreateJournal(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create journal", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalFromDomain(journal))
}

// Get retrieves a journal by ID.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journal ID", err.Error())
		return
	}

	journal, err := h.journalUC.GetJournal(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get journal", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalFromDomain(journal))
}

// List lists journals.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	journals, err := h.journalUC.ListJournals(r.Context(), usecase.ListJournalsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list journals", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListJournalsResponse{
		Journals: dto.JournalsFromDomain(journals),
		Total:    int64(len(journals)),
	})
}
