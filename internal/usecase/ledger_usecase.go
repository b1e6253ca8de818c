package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/domain"
)

// LedgerUseCase handles balance and entry read paths.
type LedgerUseCase struct {
	balanceRepo BalanceRepository
	entryRepo   EntryRepository
	eventRepo   EventRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	balanceRepo BalanceRepository,
	entryRepo EntryRepository,
	eventRepo EventRepository,
) *LedgerUseCase {
	return &LedgerUseCase{
		balanceRepo: balanceRepo,
		entryRepo:   entryRepo,
		eventRepo:   eventRepo,
	}
}

// GetBalance returns the current balance for an (account, currency) pair
// within a journal, or domain.ErrBalanceNotFound when nothing was ever
// posted against the pair.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, journalID, accountID uuid.UUID, currency string) (*domain.AccountBalance, error) {
	if _, err := domain.ParseCurrency(currency); err != nil {
		return nil, err
	}

	balance, err := uc.balanceRepo.Find(ctx, journalID, accountID, currency)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, domain.ErrBalanceNotFound
	}
	return balance, nil
}

// ListAccountEntriesInput represents input for listing an account's entries.
type ListAccountEntriesInput struct {
	AccountID uuid.UUID
	Limit     int
	Offset    int
}

// ListAccountEntries lists an account's entries with pagination, newest
// first.
func (uc *LedgerUseCase) ListAccountEntries(ctx context.Context, input ListAccountEntriesInput) ([]*domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > DefaultListLimit {
		input.Limit = DefaultListLimit
	}
	return uc.entryRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// ListEvents returns up to limit events recorded after afterID, in
// ascending id order. It backs catch-up reads for event consumers.
func (uc *LedgerUseCase) ListEvents(ctx context.Context, afterID int64, limit int) ([]domain.Event, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return uc.eventRepo.ListAfter(ctx, afterID, limit)
}
