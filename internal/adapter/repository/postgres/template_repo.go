package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/celledger/internal/domain"
)

// TxTemplateRepository implements usecase.TxTemplateRepository. Templates
// are stored as a single JSONB document; expressions round-trip through
// their source text.
type TxTemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTxTemplateRepository creates a new TxTemplateRepository.
func NewTxTemplateRepository(pool *pgxpool.Pool) *TxTemplateRepository {
	return &TxTemplateRepository{pool: pool}
}

// Create stores a template. Codes are unique; a second template with the
// same code fails with domain.ErrDuplicateKey.
func (r *TxTemplateRepository) Create(ctx context.Context, template *domain.TxTemplate) error {
	definition, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("tx template %q: %w", template.Code, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO celledger_tx_templates (id, code, definition, version, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		template.ID,
		template.Code,
		definition,
		template.Version,
		timeToPgTimestamptz(template.CreatedAt),
	)
	if err != nil {
		return classifyError(err)
	}

	return nil
}

// GetByCode retrieves a template by its unique code.
func (r *TxTemplateRepository) GetByCode(ctx context.Context, code string) (*domain.TxTemplate, error) {
	var definition []byte
	err := r.pool.QueryRow(ctx, `
		SELECT definition
		FROM celledger_tx_templates
		WHERE code = $1`, code).Scan(&definition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}

		return nil, err
	}

	var template domain.TxTemplate
	if err := json.Unmarshal(definition, &template); err != nil {
		return nil, fmt.Errorf("tx template %q: %w", code, err)
	}

	return &template, nil
}
