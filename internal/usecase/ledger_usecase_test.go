package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
	"github.com/iho/celledger/internal/usecase/mocks"
)

func TestLedgerUseCase_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	journalID := uuid.New()
	accountID := uuid.New()

	balanceRepo := mocks.NewMockBalanceRepository(ctrl)
	balanceRepo.EXPECT().Find(gomock.Any(), journalID, accountID, "BTC").Return(&domain.AccountBalance{
		BalanceType: domain.Debit,
		Details: domain.BalanceDetails{
			JournalID:        journalID,
			AccountID:        accountID,
			Currency:         "BTC",
			SettledDrBalance: decimal.NewFromInt(1290),
			Version:          1,
		},
	}, nil)

	uc := usecase.NewLedgerUseCase(balanceRepo, mocks.NewMockEntryRepository(ctrl), mocks.NewMockEventRepository(ctrl))

	balance, err := uc.GetBalance(context.Background(), journalID, accountID, "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Settled().Equal(decimal.NewFromInt(1290)) {
		t.Errorf("expected settled 1290, got %s", balance.Settled())
	}
}

func TestLedgerUseCase_GetBalance_NeverPosted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	balanceRepo := mocks.NewMockBalanceRepository(ctrl)
	balanceRepo.EXPECT().Find(gomock.Any(), gomock.Any(), gomock.Any(), "BTC").Return(nil, nil)

	uc := usecase.NewLedgerUseCase(balanceRepo, mocks.NewMockEntryRepository(ctrl), mocks.NewMockEventRepository(ctrl))

	_, err := uc.GetBalance(context.Background(), uuid.New(), uuid.New(), "BTC")
	if !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("expected ErrBalanceNotFound, got %v", err)
	}
}

func TestLedgerUseCase_GetBalance_UnknownCurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := usecase.NewLedgerUseCase(
		mocks.NewMockBalanceRepository(ctrl),
		mocks.NewMockEntryRepository(ctrl),
		mocks.NewMockEventRepository(ctrl),
	)

	_, err := uc.GetBalance(context.Background(), uuid.New(), uuid.New(), "WAT")

	var unknown *domain.UnknownCurrencyError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownCurrencyError, got %v", err)
	}
}

func TestLedgerUseCase_ListEvents_ClampsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eventRepo := mocks.NewMockEventRepository(ctrl)
	eventRepo.EXPECT().ListAfter(gomock.Any(), int64(5), 100).Return([]domain.Event{}, nil)

	uc := usecase.NewLedgerUseCase(mocks.NewMockBalanceRepository(ctrl), mocks.NewMockEntryRepository(ctrl), eventRepo)

	if _, err := uc.ListEvents(context.Background(), 5, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
