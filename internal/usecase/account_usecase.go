package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, metrics *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	ID                uuid.UUID
	Code              string
	Name              string
	Description       string
	NormalBalanceType domain.DebitOrCredit
	Metadata          map[string]any
}

// CreateAccount creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.Code == "" {
		return nil, fmt.Errorf("account: code is required")
	}
	if input.Name == "" {
		return nil, fmt.Errorf("account: name is required")
	}

	newAccount := domain.NewAccount{
		ID:                input.ID,
		Code:              input.Code,
		Name:              input.Name,
		Description:       input.Description,
		NormalBalanceType: input.NormalBalanceType,
		Metadata:          input.Metadata,
	}
	newAccount.Normalize()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:                newAccount.ID,
		Code:              newAccount.Code,
		Name:              newAccount.Name,
		NormalBalanceType: newAccount.NormalBalanceType,
		Description:       newAccount.Description,
		Status:            newAccount.Status,
		Metadata:          newAccount.Metadata,
		Version:           1,
		CreatedAt:         now,
		ModifiedAt:        now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByCode retrieves an account by its unique code.
func (uc *AccountUseCase) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return uc.accountRepo.GetByCode(ctx, code)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > DefaultListLimit {
		input.Limit = DefaultListLimit
	}
	return uc.accountRepo.List(ctx, input.Limit, input.Offset)
}
