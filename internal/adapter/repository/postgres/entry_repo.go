package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, version, transaction_id, journal_id, account_id, entry_type, layer, units, currency, direction, sequence, description, created_at, modified_at`

// CreateAllInTx persists the resolved entries in declaration order with
// 1-based sequence numbers, all sharing one creation instant. Returns the
// staged projections the balance fold consumes.
func (r *EntryRepository) CreateAllInTx(ctx context.Context, tx usecase.Transaction, journalID, transactionID uuid.UUID, entries []domain.NewEntry) ([]domain.StagedEntry, error) {
	now := time.Now().UTC()
	pgxTx := pgxTxOf(tx)

	batch := &pgx.Batch{}
	staged := make([]domain.StagedEntry, 0, len(entries))

	for i, entry := range entries {
		entryID := uuid.New()

		batch.Queue(`
			INSERT INTO celledger_entries
				(id, version, transaction_id, journal_id, account_id, entry_type, layer, units, currency, direction, sequence, description, created_at, modified_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			entryID,
			int32(1),
			transactionID,
			journalID,
			entry.AccountID,
			entry.EntryType,
			entry.Layer,
			decimalToNumeric(entry.Units),
			entry.Currency.Code,
			entry.Direction,
			int32(i+1),
			entry.Description,
			timeToPgTimestamptz(now),
			timeToPgTimestamptz(now),
		)

		staged = append(staged, domain.StagedEntry{
			EntryID:   entryID,
			AccountID: entry.AccountID,
			Units:     entry.Units,
			Currency:  entry.Currency.Code,
			Direction: entry.Direction,
			Layer:     entry.Layer,
			CreatedAt: now,
		})
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return nil, classifyError(err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, err
	}

	return staged, nil
}

// ListByTransaction retrieves a transaction's entries in sequence order.
func (r *EntryRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM celledger_entries
		WHERE transaction_id = $1
		ORDER BY sequence`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByAccount retrieves an account's entries with pagination, newest
// first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM celledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, sequence DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		var entry domain.Entry
		var units pgtype.Numeric
		err := rows.Scan(
			&entry.ID,
			&entry.Version,
			&entry.TransactionID,
			&entry.JournalID,
			&entry.AccountID,
			&entry.EntryType,
			&entry.Layer,
			&units,
			&entry.Currency,
			&entry.Direction,
			&entry.Sequence,
			&entry.Description,
			&entry.CreatedAt,
			&entry.ModifiedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Units = numericToDecimal(units)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
