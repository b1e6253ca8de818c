package dto

import (
	"testing"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
)

func validTemplateRequest() CreateTemplateRequest {
	return CreateTemplateRequest{
		Code: "SIMPLE_TRANSFER",
		Params: []ParamDefinitionRequest{
			{Name: "journal_id", Type: "UUID"},
			{Name: "amount", Type: "DECIMAL"},
			{Name: "effective", Type: "DATE", Default: "date()"},
		},
		TxInput: TxInputRequest{
			Effective: "params.effective",
			JournalID: "params.journal_id",
		},
		Entries: []EntryInputRequest{
			{
				EntryType: "'TRANSFER_DR'",
				AccountID: "uuid()",
				Layer:     "SETTLED",
				Direction: "DEBIT",
				Units:     "params.amount",
				Currency:  "'BTC'",
			},
			{
				EntryType: "'TRANSFER_CR'",
				AccountID: "uuid()",
				Layer:     "SETTLED",
				Direction: "CREDIT",
				Units:     "params.amount",
				Currency:  "'BTC'",
			},
		},
	}
}

func TestCreateTemplateRequestToDomain(t *testing.T) {
	req := validTemplateRequest()

	input, err := req.ToDomain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if input.Code != "SIMPLE_TRANSFER" {
		t.Fatalf("unexpected code %q", input.Code)
	}
	if len(input.Params) != 3 || input.Params[2].Default == nil {
		t.Fatalf("expected parsed params with default, got %+v", input.Params)
	}
	if input.TxInput.JournalID.Source() != "params.journal_id" {
		t.Fatalf("unexpected journal_id source %q", input.TxInput.JournalID.Source())
	}
	if len(input.Entries) != 2 || input.Entries[1].Direction.Source() != "CREDIT" {
		t.Fatalf("unexpected entries: %+v", input.Entries)
	}
	if input.TxInput.CorrelationID != nil {
		t.Fatalf("expected absent correlation_id to stay nil")
	}
}

func TestCreateTemplateRequestToDomainParseError(t *testing.T) {
	req := validTemplateRequest()
	req.Entries[0].Units = "params.amount +"

	if _, err := req.ToDomain(); err == nil {
		t.Fatal("expected parse error for malformed units expression")
	}
}

func TestCreateTemplateRequestToDomainMissingMandatory(t *testing.T) {
	req := validTemplateRequest()
	req.TxInput.Effective = ""

	if _, err := req.ToDomain(); err == nil {
		t.Fatal("expected error for missing effective expression")
	}
}

func TestCreateTemplateRequestToDomainBadDefault(t *testing.T) {
	req := validTemplateRequest()
	req.Params[2].Default = "date("

	if _, err := req.ToDomain(); err == nil {
		t.Fatal("expected parse error for malformed default")
	}
}

func TestPostTransactionRequestToParams(t *testing.T) {
	journalID := uuid.New()
	req := PostTransactionRequest{
		Template: "SIMPLE_TRANSFER",
		Params: map[string]any{
			"journal_id": journalID.String(),
			"amount":     float64(1290),
			"flagged":    true,
		},
	}

	params, err := req.ToParams()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := params["journal_id"].(cel.String); !ok {
		t.Fatalf("expected journal_id as string, got %T", params["journal_id"])
	}
	if _, ok := params["amount"].(cel.Double); !ok {
		t.Fatalf("expected amount as double, got %T", params["amount"])
	}
	if v, ok := params["flagged"].(cel.Bool); !ok || !bool(v) {
		t.Fatalf("expected flagged as bool true, got %#v", params["flagged"])
	}
}

func TestCreateAccountRequestToUseCaseInput(t *testing.T) {
	id := uuid.New()
	req := CreateAccountRequest{
		ID:                id.String(),
		Code:              "cash",
		Name:              "Cash",
		NormalBalanceType: "DEBIT",
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.ID != id || input.NormalBalanceType != domain.Debit {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestCreateAccountRequestInvalidID(t *testing.T) {
	req := CreateAccountRequest{ID: "nope", Code: "cash", Name: "Cash"}
	if _, err := req.ToUseCaseInput(); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestCreateAccountRequestInvalidBalanceType(t *testing.T) {
	req := CreateAccountRequest{Code: "cash", Name: "Cash", NormalBalanceType: "SIDEWAYS"}
	if _, err := req.ToUseCaseInput(); err == nil {
		t.Fatal("expected error for unknown balance type")
	}
}
