package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, version, journal_id, tx_template_id, effective, correlation_id, external_id, description, metadata, created_at, modified_at`

// CreateInTx persists a resolved transaction header within the posting's
// database transaction.
func (r *TransactionRepository) CreateInTx(ctx context.Context, tx usecase.Transaction, newTx *domain.NewTransaction) (*domain.Transaction, error) {
	now := time.Now().UTC()

	transaction := &domain.Transaction{
		ID:            newTx.ID,
		Version:       1,
		JournalID:     newTx.JournalID,
		TxTemplateID:  newTx.TxTemplateID,
		Effective:     newTx.Effective,
		CorrelationID: newTx.CorrelationID,
		ExternalID:    newTx.ExternalID,
		Description:   newTx.Description,
		Metadata:      newTx.Metadata,
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	_, err := pgxTxOf(tx).Exec(ctx, `
		INSERT INTO celledger_transactions
			(id, version, journal_id, tx_template_id, effective, correlation_id, external_id, description, metadata, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		transaction.ID,
		transaction.Version,
		transaction.JournalID,
		transaction.TxTemplateID,
		timeToPgTimestamptz(transaction.Effective),
		transaction.CorrelationID,
		transaction.ExternalID,
		transaction.Description,
		transaction.Metadata,
		timeToPgTimestamptz(transaction.CreatedAt),
		timeToPgTimestamptz(transaction.ModifiedAt),
	)
	if err != nil {
		return nil, classifyError(err)
	}

	return transaction, nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM celledger_transactions
		WHERE id = $1`, id)

	transaction, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return transaction, nil
}

// ListByExternalID retrieves the transactions posted under an external id
// within a journal, oldest first.
func (r *TransactionRepository) ListByExternalID(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM celledger_transactions
		WHERE journal_id = $1 AND external_id = $2
		ORDER BY created_at, id`, journalID, externalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}

	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := row.Scan(
		&transaction.ID,
		&transaction.Version,
		&transaction.JournalID,
		&transaction.TxTemplateID,
		&transaction.Effective,
		&transaction.CorrelationID,
		&transaction.ExternalID,
		&transaction.Description,
		&transaction.Metadata,
		&transaction.CreatedAt,
		&transaction.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}
