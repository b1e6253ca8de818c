package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
	"github.com/iho/celledger/internal/usecase/mocks"
)

type postingFixture struct {
	txManager       *mocks.MockTransactionManager
	tx              *mocks.MockTransaction
	templateRepo    *mocks.MockTxTemplateRepository
	transactionRepo *mocks.MockTransactionRepository
	entryRepo       *mocks.MockEntryRepository
	balanceRepo     *mocks.MockBalanceRepository
	eventRepo       *mocks.MockEventRepository
	uc              *usecase.PostingUseCase
}

func newPostingFixture(ctrl *gomock.Controller) *postingFixture {
	f := &postingFixture{
		txManager:       mocks.NewMockTransactionManager(ctrl),
		tx:              mocks.NewMockTransaction(ctrl),
		templateRepo:    mocks.NewMockTxTemplateRepository(ctrl),
		transactionRepo: mocks.NewMockTransactionRepository(ctrl),
		entryRepo:       mocks.NewMockEntryRepository(ctrl),
		balanceRepo:     mocks.NewMockBalanceRepository(ctrl),
		eventRepo:       mocks.NewMockEventRepository(ctrl),
	}
	f.uc = usecase.NewPostingUseCase(
		f.txManager,
		f.templateRepo,
		nil, // template cache
		f.transactionRepo,
		f.entryRepo,
		f.balanceRepo,
		f.eventRepo,
		nil, // retrier
		nil, // metrics
	)
	return f
}

// stageEntries mimics the repository: identity per entry, 1-based
// sequence, shared creation time.
func stageEntries(entries []domain.NewEntry) []domain.StagedEntry {
	now := time.Now().UTC()
	staged := make([]domain.StagedEntry, 0, len(entries))
	for _, e := range entries {
		staged = append(staged, domain.StagedEntry{
			EntryID:   uuid.New(),
			AccountID: e.AccountID,
			Units:     e.Units,
			Currency:  e.Currency.Code,
			Direction: e.Direction,
			Layer:     e.Layer,
			CreatedAt: now,
		})
	}
	return staged
}

func TestPostingUseCase_Post(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPostingFixture(ctrl)

	journalID := uuid.New()
	sender := uuid.New()
	recipient := uuid.New()
	template := transferTemplate()

	f.templateRepo.EXPECT().GetByCode(gomock.Any(), "SIMPLE_TRANSFER").Return(template, nil)
	f.txManager.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()

	f.transactionRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, newTx *domain.NewTransaction) (*domain.Transaction, error) {
			if newTx.JournalID != journalID {
				t.Errorf("expected journal %s, got %s", journalID, newTx.JournalID)
			}
			if newTx.CorrelationID != newTx.ID || newTx.ExternalID != newTx.ID.String() {
				t.Errorf("expected id-derived defaults, got %+v", newTx)
			}
			now := time.Now().UTC()
			return &domain.Transaction{
				ID:            newTx.ID,
				Version:       1,
				JournalID:     newTx.JournalID,
				TxTemplateID:  newTx.TxTemplateID,
				Effective:     newTx.Effective,
				CorrelationID: newTx.CorrelationID,
				ExternalID:    newTx.ExternalID,
				Description:   newTx.Description,
				CreatedAt:     now,
				ModifiedAt:    now,
			}, nil
		})

	f.entryRepo.EXPECT().CreateAllInTx(gomock.Any(), f.tx, journalID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID, txID uuid.UUID, entries []domain.NewEntry) ([]domain.StagedEntry, error) {
			return stageEntries(entries), nil
		})

	f.balanceRepo.EXPECT().LockForUpdate(gomock.Any(), f.tx, journalID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID uuid.UUID, keys []usecase.BalanceKey) (map[usecase.BalanceKey]domain.BalanceDetails, error) {
			if len(keys) != 2 {
				t.Errorf("expected 2 balance keys, got %d", len(keys))
			}
			return map[usecase.BalanceKey]domain.BalanceDetails{}, nil
		})

	var updated []domain.BalanceDetails
	f.balanceRepo.EXPECT().Update(gomock.Any(), f.tx, journalID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID uuid.UUID, balances []domain.BalanceDetails) error {
			updated = balances
			return nil
		})

	var eventTypes []domain.EventType
	f.eventRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, eventType domain.EventType, data domain.EventData) (*domain.Event, error) {
			eventTypes = append(eventTypes, eventType)
			return &domain.Event{ID: int64(len(eventTypes)), Type: eventType, Data: data, RecordedAt: time.Now().UTC()}, nil
		}).Times(3)

	f.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	posted, err := f.uc.Post(context.Background(), "SIMPLE_TRANSFER", transferParams(journalID, sender, recipient))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted == nil || posted.JournalID != journalID {
		t.Fatalf("unexpected transaction: %+v", posted)
	}

	// Fresh pair starts at version 1, one snapshot per entry.
	if len(updated) != 2 {
		t.Fatalf("expected 2 balance snapshots, got %d", len(updated))
	}
	for _, b := range updated {
		if b.Version != 1 {
			t.Errorf("expected version 1, got %d", b.Version)
		}
	}
	if !updated[0].SettledDrBalance.Equal(decimal.NewFromInt(1290)) {
		t.Errorf("expected settled dr 1290, got %s", updated[0].SettledDrBalance)
	}
	if !updated[1].SettledCrBalance.Equal(decimal.NewFromInt(1290)) {
		t.Errorf("expected settled cr 1290, got %s", updated[1].SettledCrBalance)
	}

	if len(eventTypes) != 3 || eventTypes[0] != domain.EventTransactionCreated ||
		eventTypes[1] != domain.EventBalanceUpdated || eventTypes[2] != domain.EventBalanceUpdated {
		t.Errorf("unexpected event order: %v", eventTypes)
	}
}

func TestPostingUseCase_Post_SequentialFold(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPostingFixture(ctrl)

	journalID := uuid.New()
	account := uuid.New()
	other := uuid.New()

	// The debit leg folds onto an existing snapshot at version 7.
	template := transferTemplate()
	params := transferParams(journalID, account, other)

	existing := domain.BalanceDetails{
		JournalID:        journalID,
		AccountID:        account,
		Currency:         "BTC",
		SettledDrBalance: decimal.NewFromInt(10),
		Version:          7,
	}

	f.templateRepo.EXPECT().GetByCode(gomock.Any(), "SIMPLE_TRANSFER").Return(template, nil)
	f.txManager.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	f.transactionRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, newTx *domain.NewTransaction) (*domain.Transaction, error) {
			return &domain.Transaction{ID: newTx.ID, JournalID: newTx.JournalID}, nil
		})
	f.entryRepo.EXPECT().CreateAllInTx(gomock.Any(), f.tx, journalID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID, txID uuid.UUID, entries []domain.NewEntry) ([]domain.StagedEntry, error) {
			return stageEntries(entries), nil
		})
	f.balanceRepo.EXPECT().LockForUpdate(gomock.Any(), f.tx, journalID, gomock.Any()).Return(
		map[usecase.BalanceKey]domain.BalanceDetails{
			{AccountID: account, Currency: "BTC"}: existing,
		}, nil)

	var updated []domain.BalanceDetails
	f.balanceRepo.EXPECT().Update(gomock.Any(), f.tx, journalID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID uuid.UUID, balances []domain.BalanceDetails) error {
			updated = balances
			return nil
		})
	f.eventRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any(), gomock.Any()).Return(&domain.Event{}, nil).Times(3)
	f.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	if _, err := f.uc.Post(context.Background(), "SIMPLE_TRANSFER", params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updated) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(updated))
	}
	// First entry folds onto the locked snapshot, second onto a fresh pair.
	if updated[0].Version != 8 {
		t.Errorf("expected version 8, got %d", updated[0].Version)
	}
	if !updated[0].SettledDrBalance.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("expected settled dr 1300, got %s", updated[0].SettledDrBalance)
	}
	if updated[1].Version != 1 {
		t.Errorf("expected version 1, got %d", updated[1].Version)
	}
}

func TestPostingUseCase_Post_OptimisticLockConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPostingFixture(ctrl)

	journalID := uuid.New()
	template := transferTemplate()

	f.templateRepo.EXPECT().GetByCode(gomock.Any(), "SIMPLE_TRANSFER").Return(template, nil)
	f.txManager.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	f.transactionRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, newTx *domain.NewTransaction) (*domain.Transaction, error) {
			return &domain.Transaction{ID: newTx.ID, JournalID: newTx.JournalID}, nil
		})
	f.entryRepo.EXPECT().CreateAllInTx(gomock.Any(), f.tx, journalID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID, txID uuid.UUID, entries []domain.NewEntry) ([]domain.StagedEntry, error) {
			return stageEntries(entries), nil
		})
	f.balanceRepo.EXPECT().LockForUpdate(gomock.Any(), f.tx, journalID, gomock.Any()).Return(
		map[usecase.BalanceKey]domain.BalanceDetails{}, nil)
	f.balanceRepo.EXPECT().Update(gomock.Any(), f.tx, journalID, gomock.Any()).Return(domain.ErrOptimisticLocking)

	_, err := f.uc.Post(context.Background(), "SIMPLE_TRANSFER", transferParams(journalID, uuid.New(), uuid.New()))
	if !errors.Is(err, domain.ErrOptimisticLocking) {
		t.Fatalf("expected ErrOptimisticLocking, got %v", err)
	}
}

func TestPostingUseCase_Post_TemplateNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPostingFixture(ctrl)
	f.templateRepo.EXPECT().GetByCode(gomock.Any(), "MISSING").Return(nil, domain.ErrTemplateNotFound)

	_, err := f.uc.Post(context.Background(), "MISSING", usecase.TxParams{})
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestPostingUseCase_Post_CacheHitSkipsRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newPostingFixture(ctrl)
	cache := mocks.NewMockTemplateCache(ctrl)
	uc := usecase.NewPostingUseCase(
		f.txManager, f.templateRepo, cache, f.transactionRepo,
		f.entryRepo, f.balanceRepo, f.eventRepo, nil, nil,
	)

	template := transferTemplate()
	journalID := uuid.New()

	cache.EXPECT().Get(gomock.Any(), "SIMPLE_TRANSFER").Return(template, true)
	f.txManager.EXPECT().Begin(gomock.Any()).Return(f.tx, nil)
	f.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	f.transactionRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, newTx *domain.NewTransaction) (*domain.Transaction, error) {
			return &domain.Transaction{ID: newTx.ID, JournalID: newTx.JournalID}, nil
		})
	f.entryRepo.EXPECT().CreateAllInTx(gomock.Any(), f.tx, journalID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx usecase.Transaction, jID, txID uuid.UUID, entries []domain.NewEntry) ([]domain.StagedEntry, error) {
			return stageEntries(entries), nil
		})
	f.balanceRepo.EXPECT().LockForUpdate(gomock.Any(), f.tx, journalID, gomock.Any()).Return(
		map[usecase.BalanceKey]domain.BalanceDetails{}, nil)
	f.balanceRepo.EXPECT().Update(gomock.Any(), f.tx, journalID, gomock.Any()).Return(nil)
	f.eventRepo.EXPECT().CreateInTx(gomock.Any(), f.tx, gomock.Any(), gomock.Any()).Return(&domain.Event{}, nil).Times(3)
	f.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	if _, err := uc.Post(context.Background(), "SIMPLE_TRANSFER", transferParams(journalID, uuid.New(), uuid.New())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
