package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
	"github.com/iho/celledger/internal/usecase/mocks"
)

func newTemplateInput() domain.NewTxTemplate {
	src := transferTemplate()
	return domain.NewTxTemplate{
		Code:    src.Code,
		Params:  src.Params,
		TxInput: src.TxInput,
		Entries: src.Entries,
	}
}

func TestTemplateUseCase_CreateTemplate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templateRepo := mocks.NewMockTxTemplateRepository(ctrl)
	templateCache := mocks.NewMockTemplateCache(ctrl)

	templateRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, template *domain.TxTemplate) error {
			if template.Code != "SIMPLE_TRANSFER" {
				t.Errorf("unexpected code %q", template.Code)
			}
			if template.Version != 1 {
				t.Errorf("expected version 1, got %d", template.Version)
			}
			return nil
		})
	templateCache.EXPECT().Delete(gomock.Any(), "SIMPLE_TRANSFER").Return(nil)

	uc := usecase.NewTemplateUseCase(templateRepo, templateCache, nil)

	template, err := uc.CreateTemplate(context.Background(), newTemplateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if template.ID.String() == "" {
		t.Error("expected a generated id")
	}
}

func TestTemplateUseCase_CreateTemplate_MissingEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := usecase.NewTemplateUseCase(mocks.NewMockTxTemplateRepository(ctrl), nil, nil)

	input := newTemplateInput()
	input.Entries = nil

	if _, err := uc.CreateTemplate(context.Background(), input); err == nil {
		t.Fatal("expected error for template without entries")
	}
}

func TestTemplateUseCase_CreateTemplate_BadDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc := usecase.NewTemplateUseCase(mocks.NewMockTxTemplateRepository(ctrl), nil, nil)

	input := newTemplateInput()
	// Declared DATE, defaults to an integer.
	input.Params = append(input.Params, domain.ParamDefinition{
		Name:    "settle_on",
		Type:    domain.ParamDate,
		Default: cel.MustParse("42"),
	})

	if _, err := uc.CreateTemplate(context.Background(), input); err == nil {
		t.Fatal("expected error for default type mismatch")
	}
}

func TestTemplateUseCase_CreateTemplate_DuplicateCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templateRepo := mocks.NewMockTxTemplateRepository(ctrl)
	templateRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateKey)

	uc := usecase.NewTemplateUseCase(templateRepo, nil, nil)

	_, err := uc.CreateTemplate(context.Background(), newTemplateInput())
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}
