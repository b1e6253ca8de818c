package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/celledger/internal/domain"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// Create creates a new journal.
func (r *JournalRepository) Create(ctx context.Context, journal *domain.Journal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO celledger_journals
			(id, name, description, status, version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		journal.ID,
		journal.Name,
		journal.Description,
		journal.Status,
		journal.Version,
		timeToPgTimestamptz(journal.CreatedAt),
		timeToPgTimestamptz(journal.ModifiedAt),
	)
	if err != nil {
		return classifyError(err)
	}

	return nil
}

// GetByID retrieves a journal by ID.
func (r *JournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Journal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, status, version, created_at, modified_at
		FROM celledger_journals
		WHERE id = $1`, id)

	var journal domain.Journal
	err := row.Scan(
		&journal.ID,
		&journal.Name,
		&journal.Description,
		&journal.Status,
		&journal.Version,
		&journal.CreatedAt,
		&journal.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJournalNotFound
		}

		return nil, err
	}

	return &journal, nil
}

// List lists journals with pagination.
func (r *JournalRepository) List(ctx context.Context, limit, offset int) ([]*domain.Journal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, status, version, created_at, modified_at
		FROM celledger_journals
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	journals := make([]*domain.Journal, 0)
	for rows.Next() {
		var journal domain.Journal
		err := rows.Scan(
			&journal.ID,
			&journal.Name,
			&journal.Description,
			&journal.Status,
			&journal.Version,
			&journal.CreatedAt,
			&journal.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		journals = append(journals, &journal)
	}

	return journals, rows.Err()
}
