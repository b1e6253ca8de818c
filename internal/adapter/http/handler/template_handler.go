package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/celledger/internal/adapter/http/dto"
	"github.com/iho/celledger/internal/domain"
)

// TemplateService defines the behavior needed by TemplateHandler.
type TemplateService interface {
	CreateTemplate(ctx context.Context, input domain.NewTxTemplate) (*domain.TxTemplate, error)
	GetTemplate(ctx context.Context, code string) (*domain.TxTemplate, error)
}

// TemplateHandler handles transaction template HTTP requests.
type TemplateHandler struct {
	templateUC TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateUC TemplateService) *TemplateHandler {
	return &TemplateHandler{templateUC: templateUC}
}

// Create creates a new transaction template.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template", err.Error())
		return
	}

	template, err := h.templateUC.CreateTemplate(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create template", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TemplateFromDomain(template))
}

// Get retrieves a template by its code.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing template code", "")
		return
	}

	template, err := h.templateUC.GetTemplate(r.Context(), code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get template", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TemplateFromDomain(template))
}
