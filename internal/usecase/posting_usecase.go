package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/infrastructure/metrics"
)

// PostingUseCase turns a template code plus parameters into a committed
// transaction: entries, balance snapshots and events, all in one database
// transaction.
type PostingUseCase struct {
	txManager       TransactionManager
	templateRepo    TxTemplateRepository
	templateCache   TemplateCache
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	balanceRepo     BalanceRepository
	eventRepo       EventRepository
	retrier         Retrier
	metrics         *metrics.Metrics
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	templateRepo TxTemplateRepository,
	templateCache TemplateCache,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	balanceRepo BalanceRepository,
	eventRepo EventRepository,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:       txManager,
		templateRepo:    templateRepo,
		templateCache:   templateCache,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		balanceRepo:     balanceRepo,
		eventRepo:       eventRepo,
		retrier:         retrier,
		metrics:         metrics,
	}
}

// Post resolves the template identified by code against params and commits
// the resulting transaction. Resolution failures and optimistic locking
// conflicts surface to the caller unretried; transient database errors are
// retried by the configured retrier.
func (uc *PostingUseCase) Post(ctx context.Context, code string, params TxParams) (*domain.Transaction, error) {
	start := time.Now()

	template, err := uc.loadTemplate(ctx, code)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveTemplate(template, params)
	if err != nil {
		return nil, err
	}
	resolved.Transaction.Normalize()

	var posted *domain.Transaction
	operation := func() error {
		var opErr error
		posted, opErr = uc.postOnce(ctx, resolved)
		return opErr
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, operation)
	} else {
		err = operation()
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsPosted.Inc()
		uc.metrics.PostingDuration.Observe(time.Since(start).Seconds())
	}

	return posted, nil
}

// GetTransaction returns one transaction by id.
func (uc *PostingUseCase) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsByExternalID returns the transactions posted under an
// external id within a journal.
func (uc *PostingUseCase) ListTransactionsByExternalID(ctx context.Context, journalID uuid.UUID, externalID string) ([]*domain.Transaction, error) {
	return uc.transactionRepo.ListByExternalID(ctx, journalID, externalID)
}

// ListEntries returns the entries of a transaction in sequence order.
func (uc *PostingUseCase) ListEntries(ctx context.Context, transactionID uuid.UUID) ([]*domain.Entry, error) {
	return uc.entryRepo.ListByTransaction(ctx, transactionID)
}

func (uc *PostingUseCase) loadTemplate(ctx context.Context, code string) (*domain.TxTemplate, error) {
	if uc.templateCache != nil {
		if template, ok := uc.templateCache.Get(ctx, code); ok {
			if uc.metrics != nil {
				uc.metrics.TemplateCacheHits.Inc()
			}
			return template, nil
		}
		if uc.metrics != nil {
			uc.metrics.TemplateCacheMisses.Inc()
		}
	}

	template, err := uc.templateRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if uc.templateCache != nil {
		// Cache failures never fail a posting.
		_ = uc.templateCache.Set(ctx, template)
	}

	return template, nil
}

func (uc *PostingUseCase) postOnce(ctx context.Context, resolved *ResolvedTx) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	posted, err := uc.transactionRepo.CreateInTx(txCtx, tx, &resolved.Transaction)
	if err != nil {
		return nil, err
	}

	staged, err := uc.entryRepo.CreateAllInTx(txCtx, tx, posted.JournalID, posted.ID, resolved.Entries)
	if err != nil {
		return nil, err
	}

	snapshots, err := uc.foldBalances(txCtx, tx, posted.JournalID, staged)
	if err != nil {
		return nil, err
	}

	if err := uc.balanceRepo.Update(txCtx, tx, posted.JournalID, snapshots); err != nil {
		if errors.Is(err, domain.ErrOptimisticLocking) && uc.metrics != nil {
			uc.metrics.LockConflicts.Inc()
		}
		return nil, err
	}

	if _, err := uc.eventRepo.CreateInTx(txCtx, tx, domain.EventTransactionCreated,
		domain.TransactionCreated{Transaction: *posted}); err != nil {
		return nil, err
	}
	for _, snapshot := range snapshots {
		if _, err := uc.eventRepo.CreateInTx(txCtx, tx, domain.EventBalanceUpdated,
			domain.BalanceUpdated{Balance: snapshot}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EventsPublished.Add(float64(1 + len(snapshots)))
	}

	return posted, nil
}

// foldBalances locks the touched (account, currency) pairs in sorted key
// order, then folds the staged entries sequentially: entries later in the
// batch see the snapshots produced by earlier ones. Returns one snapshot
// per applied entry, in entry order.
func (uc *PostingUseCase) foldBalances(
	ctx context.Context,
	tx Transaction,
	journalID uuid.UUID,
	staged []domain.StagedEntry,
) ([]domain.BalanceDetails, error) {
	keys := collectBalanceKeys(staged)

	latest, err := uc.balanceRepo.LockForUpdate(ctx, tx, journalID, keys)
	if err != nil {
		return nil, err
	}

	snapshots := make([]domain.BalanceDetails, 0, len(staged))
	for i := range staged {
		entry := &staged[i]
		key := BalanceKey{AccountID: entry.AccountID, Currency: entry.Currency}

		var next domain.BalanceDetails
		if current, seen := latest[key]; seen {
			next = current.Apply(entry)
		} else {
			next = domain.InitBalance(journalID, entry)
		}
		latest[key] = next
		snapshots = append(snapshots, next)
	}

	return snapshots, nil
}

// collectBalanceKeys returns the unique (account, currency) keys of the
// batch, sorted so concurrent postings always lock in the same order
// (DEADLOCK PREVENTION).
func collectBalanceKeys(staged []domain.StagedEntry) []BalanceKey {
	seen := make(map[BalanceKey]bool, len(staged))
	keys := make([]BalanceKey, 0, len(staged))
	for i := range staged {
		key := BalanceKey{AccountID: staged[i].AccountID, Currency: staged[i].Currency}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i].AccountID.String(), keys[j].AccountID.String()
		if a != b {
			return a < b
		}
		return keys[i].Currency < keys[j].Currency
	})
	return keys
}
