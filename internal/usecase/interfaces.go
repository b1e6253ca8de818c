package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/domain"
)

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// JournalRepository defines data access for journals.
type JournalRepository interface {
	Create(ctx context.Context, journal *domain.Journal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Journal, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Journal, error)
}

// TxTemplateRepository defines data access for transaction templates.
type TxTemplateRepository interface {
	Create(ctx context.Context, template *domain.TxTemplate) error
	GetByCode(ctx context.Context, code string) (*domain.TxTemplate, error)
}

// TemplateCache caches parsed templates by code. Misses are reported via
// the bool return; cache failures must not fail a posting.
type TemplateCache interface {
	Get(ctx context.Context, code string) (*domain.TxTemplate, bool)
	Set(ctx context.Context, template *domain.TxTemplate) error
	Delete(ctx context.Context, code string) error
}

// TransactionRepository defines data access for transactions.
type TransactionRepository interface {
	CreateInTx(ctx context.Context, tx Transaction, newTx *domain.NewTransaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByExternalID(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	// CreateAllInTx persists the resolved entries in declaration order,
	// assigning 1-based sequence numbers, and returns the staged entries
	// the balance fold consumes.
	CreateAllInTx(ctx context.Context, tx Transaction, journalID, transactionID uuid.UUID, entries []domain.NewEntry) ([]domain.StagedEntry, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Entry, error)
}

// BalanceKey identifies one (account, currency) pair within a journal.
type BalanceKey struct {
	AccountID uuid.UUID
	Currency  string
}

// BalanceRepository defines data access for versioned balances.
type BalanceRepository interface {
	// Find reads the current balance snapshot, or nil when the pair has
	// never been touched.
	Find(ctx context.Context, journalID, accountID uuid.UUID, currency string) (*domain.AccountBalance, error)
	// LockForUpdate locks the current-version pointer rows for keys and
	// returns the latest snapshot per locked key. Keys never seen before
	// are absent from the result.
	LockForUpdate(ctx context.Context, tx Transaction, journalID uuid.UUID, keys []BalanceKey) (map[BalanceKey]domain.BalanceDetails, error)
	// Update advances the current-version pointers with a conditional
	// update and inserts the new snapshots. Returns
	// domain.ErrOptimisticLocking when a concurrent writer advanced any
	// pointer since LockForUpdate's snapshot was read.
	Update(ctx context.Context, tx Transaction, journalID uuid.UUID, balances []domain.BalanceDetails) error
}

// EventRepository defines access to the append-only event store.
type EventRepository interface {
	// CreateInTx appends an event within the posting's transaction, so
	// publication is atomic with the state change it describes.
	CreateInTx(ctx context.Context, tx Transaction, eventType domain.EventType, data domain.EventData) (*domain.Event, error)
	// ListAfter returns up to limit events with id greater than afterID,
	// in ascending id order.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Event, error)
}

// Retrier retries an operation on transient backend errors (deadlock,
// serialization failure). Domain errors are never retried.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines generic byte caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
