package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository over two tables:
// an append-only snapshot history and a current-version pointer table.
// Optimistic concurrency rides on the pointer rows; snapshots are never
// updated in place.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

const balanceColumns = `
	b.journal_id, b.account_id, b.entry_id, b.currency,
	b.settled_dr_balance, b.settled_cr_balance, b.settled_entry_id, b.settled_modified_at,
	b.pending_dr_balance, b.pending_cr_balance, b.pending_entry_id, b.pending_modified_at,
	b.encumbered_dr_balance, b.encumbered_cr_balance, b.encumbered_entry_id, b.encumbered_modified_at,
	b.version, b.modified_at, b.created_at`

const balanceJoin = `
	FROM celledger_current_balances c
	JOIN celledger_balances b
	  ON b.journal_id = c.journal_id
	 AND b.account_id = c.account_id
	 AND b.currency = c.currency
	 AND b.version = c.version`

// Find reads the current snapshot for one (account, currency) pair joined
// with the account's normal balance type. Returns nil when the pair was
// never posted against.
func (r *BalanceRepository) Find(ctx context.Context, journalID, accountID uuid.UUID, currency string) (*domain.AccountBalance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT a.normal_balance_type, `+balanceColumns+balanceJoin+`
		JOIN celledger_accounts a ON a.id = c.account_id
		WHERE c.journal_id = $1 AND c.account_id = $2 AND c.currency = $3`,
		journalID, accountID, currency)

	var balance domain.AccountBalance
	var scratch balanceRow
	dest := append([]any{&balance.BalanceType}, scratch.dest()...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}
	balance.Details = scratch.details()

	return &balance, nil
}

// LockForUpdate locks the pointer rows for keys and returns the latest
// snapshot per locked key. Keys never seen before are simply absent. The
// caller is responsible for passing keys in a deterministic order.
func (r *BalanceRepository) LockForUpdate(ctx context.Context, tx usecase.Transaction, journalID uuid.UUID, keys []usecase.BalanceKey) (map[usecase.BalanceKey]domain.BalanceDetails, error) {
	accountIDs := make([]uuid.UUID, 0, len(keys))
	currencies := make([]string, 0, len(keys))
	for _, key := range keys {
		accountIDs = append(accountIDs, key.AccountID)
		currencies = append(currencies, key.Currency)
	}

	rows, err := pgxTxOf(tx).Query(ctx, `
		SELECT `+balanceColumns+balanceJoin+`
		WHERE c.journal_id = $1
		  AND (c.account_id, c.currency) IN (SELECT * FROM UNNEST($2::uuid[], $3::text[]))
		FOR UPDATE OF c`,
		journalID, accountIDs, currencies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[usecase.BalanceKey]domain.BalanceDetails, len(keys))
	for rows.Next() {
		var scratch balanceRow
		if err := rows.Scan(scratch.dest()...); err != nil {
			return nil, err
		}
		details := scratch.details()
		latest[usecase.BalanceKey{AccountID: details.AccountID, Currency: details.Currency}] = details
	}

	return latest, rows.Err()
}

// Update appends the snapshots to the history and advances the pointer
// rows conditionally. A pointer that moved since LockForUpdate read it
// makes the whole call fail with domain.ErrOptimisticLocking.
func (r *BalanceRepository) Update(ctx context.Context, tx usecase.Transaction, journalID uuid.UUID, balances []domain.BalanceDetails) error {
	if len(balances) == 0 {
		return nil
	}

	pgxTx := pgxTxOf(tx)

	batch := &pgx.Batch{}
	for i := range balances {
		queueBalanceInsert(batch, &balances[i])
	}
	results := pgxTx.SendBatch(ctx, batch)
	for range balances {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return asLockingError(err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return r.advancePointers(ctx, pgxTx, journalID, balances)
}

// versionRange is the span of snapshot versions one posting produced for
// a key: the pointer must still sit at first-1 for the advance to win.
type versionRange struct {
	first int32
	last  int32
	at    time.Time
}

func (r *BalanceRepository) advancePointers(ctx context.Context, pgxTx pgx.Tx, journalID uuid.UUID, balances []domain.BalanceDetails) error {
	ranges := make(map[usecase.BalanceKey]versionRange)
	order := make([]usecase.BalanceKey, 0)

	for i := range balances {
		b := &balances[i]
		key := usecase.BalanceKey{AccountID: b.AccountID, Currency: b.Currency}
		span, seen := ranges[key]
		if !seen {
			span = versionRange{first: b.Version, last: b.Version, at: b.ModifiedAt}
			order = append(order, key)
		} else {
			if b.Version < span.first {
				span.first = b.Version
			}
			if b.Version > span.last {
				span.last = b.Version
			}
			span.at = b.ModifiedAt
		}
		ranges[key] = span
	}

	for _, key := range order {
		span := ranges[key]

		var tag pgconn.CommandTag
		var err error
		if span.first == 1 {
			tag, err = pgxTx.Exec(ctx, `
				INSERT INTO celledger_current_balances (journal_id, account_id, currency, version, created_at, modified_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				ON CONFLICT (journal_id, account_id, currency) DO NOTHING`,
				journalID, key.AccountID, key.Currency, span.last, timeToPgTimestamptz(span.at))
		} else {
			tag, err = pgxTx.Exec(ctx, `
				UPDATE celledger_current_balances
				SET version = $4, modified_at = $5
				WHERE journal_id = $1 AND account_id = $2 AND currency = $3 AND version = $6`,
				journalID, key.AccountID, key.Currency, span.last, timeToPgTimestamptz(span.at), span.first-1)
		}
		if err != nil {
			return asLockingError(err)
		}
		if tag.RowsAffected() != 1 {
			return domain.ErrOptimisticLocking
		}
	}

	return nil
}

func queueBalanceInsert(batch *pgx.Batch, b *domain.BalanceDetails) {
	batch.Queue(`
		INSERT INTO celledger_balances
			(journal_id, account_id, entry_id, currency,
			 settled_dr_balance, settled_cr_balance, settled_entry_id, settled_modified_at,
			 pending_dr_balance, pending_cr_balance, pending_entry_id, pending_modified_at,
			 encumbered_dr_balance, encumbered_cr_balance, encumbered_entry_id, encumbered_modified_at,
			 version, modified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		b.JournalID,
		b.AccountID,
		b.EntryID,
		b.Currency,
		decimalToNumeric(b.SettledDrBalance),
		decimalToNumeric(b.SettledCrBalance),
		b.SettledEntryID,
		timeToPgTimestamptz(b.SettledModifiedAt),
		decimalToNumeric(b.PendingDrBalance),
		decimalToNumeric(b.PendingCrBalance),
		b.PendingEntryID,
		timeToPgTimestamptz(b.PendingModifiedAt),
		decimalToNumeric(b.EncumberedDrBalance),
		decimalToNumeric(b.EncumberedCrBalance),
		b.EncumberedEntryID,
		timeToPgTimestamptz(b.EncumberedModifiedAt),
		b.Version,
		timeToPgTimestamptz(b.ModifiedAt),
		timeToPgTimestamptz(b.CreatedAt),
	)
}

// asLockingError reinterprets a unique violation on the snapshot history
// as a lost optimistic-concurrency race: a concurrent posting already
// wrote the version this one computed.
func asLockingError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return domain.ErrOptimisticLocking
	}
	return err
}

// balanceRow holds one scanned snapshot with the numeric columns still in
// their wire type. Destination order matches balanceColumns.
type balanceRow struct {
	row          domain.BalanceDetails
	settledDr    pgtype.Numeric
	settledCr    pgtype.Numeric
	pendingDr    pgtype.Numeric
	pendingCr    pgtype.Numeric
	encumberedDr pgtype.Numeric
	encumberedCr pgtype.Numeric
}

func (b *balanceRow) dest() []any {
	return []any{
		&b.row.JournalID, &b.row.AccountID, &b.row.EntryID, &b.row.Currency,
		&b.settledDr, &b.settledCr, &b.row.SettledEntryID, &b.row.SettledModifiedAt,
		&b.pendingDr, &b.pendingCr, &b.row.PendingEntryID, &b.row.PendingModifiedAt,
		&b.encumberedDr, &b.encumberedCr, &b.row.EncumberedEntryID, &b.row.EncumberedModifiedAt,
		&b.row.Version, &b.row.ModifiedAt, &b.row.CreatedAt,
	}
}

func (b *balanceRow) details() domain.BalanceDetails {
	d := b.row
	d.SettledDrBalance = numericToDecimal(b.settledDr)
	d.SettledCrBalance = numericToDecimal(b.settledCr)
	d.PendingDrBalance = numericToDecimal(b.pendingDr)
	d.PendingCrBalance = numericToDecimal(b.pendingCr)
	d.EncumberedDrBalance = numericToDecimal(b.encumberedDr)
	d.EncumberedCrBalance = numericToDecimal(b.encumberedCr)
	return d
}
