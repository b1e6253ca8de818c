package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/infrastructure/metrics"
)

// JournalUseCase handles journal business logic.
type JournalUseCase struct {
	journalRepo JournalRepository
	metrics     *metrics.Metrics
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(journalRepo JournalRepository, metrics *metrics.Metrics) *JournalUseCase {
	return &JournalUseCase{
		journalRepo: journalRepo,
		metrics:     metrics,
	}
}

// CreateJournalInput represents input for creating a journal.
type CreateJournalInput struct {
	ID          uuid.UUID
	Name        string
	Description string
}

// CreateJournal creates a new journal.
func (uc *JournalUseCase) CreateJournal(ctx context.Context, input CreateJournalInput) (*domain.Journal, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("journal: name is required")
	}

	newJournal := domain.NewJournal{
		ID:          input.ID,
		Name:        input.Name,
		Description: input.Description,
	}
	newJournal.Normalize()

	now := time.Now().UTC()
	journal := &domain.Journal{
		ID:          newJournal.ID,
		Name:        newJournal.Name,
		Description: newJournal.Description,
		Status:      newJournal.Status,
		Version:     1,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if err := uc.journalRepo.Create(ctx, journal); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.JournalsCreated.Inc()
	}

	return journal, nil
}

// GetJournal retrieves a journal by ID.
func (uc *JournalUseCase) GetJournal(ctx context.Context, id uuid.UUID) (*domain.Journal, error) {
	return uc.journalRepo.GetByID(ctx, id)
}

// ListJournalsInput represents input for listing journals.
type ListJournalsInput struct {
	Limit  int
	Offset int
}

// ListJournals lists journals with pagination.
func (uc *JournalUseCase) ListJournals(ctx context.Context, input ListJournalsInput) ([]*domain.Journal, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > DefaultListLimit {
		input.Limit = DefaultListLimit
	}
	return uc.journalRepo.List(ctx, input.Limit, input.Offset)
}
