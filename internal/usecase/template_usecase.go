package usecase

import (
	"context"
	"time"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/infrastructure/metrics"
)

// TemplateUseCase handles transaction template business logic.
type TemplateUseCase struct {
	templateRepo  TxTemplateRepository
	templateCache TemplateCache
	metrics       *metrics.Metrics
}

// NewTemplateUseCase creates a new TemplateUseCase.
func NewTemplateUseCase(
	templateRepo TxTemplateRepository,
	templateCache TemplateCache,
	metrics *metrics.Metrics,
) *TemplateUseCase {
	return &TemplateUseCase{
		templateRepo:  templateRepo,
		templateCache: templateCache,
		metrics:       metrics,
	}
}

// CreateTemplate validates and stores a transaction template. Templates
// are immutable once stored; reusing a code fails with
// domain.ErrDuplicateKey.
func (uc *TemplateUseCase) CreateTemplate(ctx context.Context, input domain.NewTxTemplate) (*domain.TxTemplate, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	template := &domain.TxTemplate{
		ID:          input.ID,
		Code:        input.Code,
		Description: input.Description,
		Params:      input.Params,
		TxInput:     input.TxInput,
		Entries:     input.Entries,
		Metadata:    input.Metadata,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}

	if uc.templateCache != nil {
		// Drop any stale negative entry; next posting re-reads from the
		// database and re-populates the cache.
		_ = uc.templateCache.Delete(ctx, template.Code)
	}

	if uc.metrics != nil {
		uc.metrics.TemplatesCreated.Inc()
	}

	return template, nil
}

// GetTemplate retrieves a template by its unique code.
func (uc *TemplateUseCase) GetTemplate(ctx context.Context, code string) (*domain.TxTemplate, error) {
	return uc.templateRepo.GetByCode(ctx, code)
}
