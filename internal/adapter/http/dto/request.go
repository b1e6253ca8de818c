package dto

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	ID                string         `json:"id,omitempty"`
	Code              string         `json:"code"`
	Name              string         `json:"name"`
	NormalBalanceType string         `json:"normal_balance_type,omitempty"`
	Description       string         `json:"description,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	input := usecase.CreateAccountInput{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Metadata:    r.Metadata,
	}

	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return usecase.CreateAccountInput{}, fmt.Errorf("invalid account id: %w", err)
		}
		input.ID = id
	}

	if r.NormalBalanceType != "" {
		balanceType, err := domain.ParseDebitOrCredit(r.NormalBalanceType)
		if err != nil {
			return usecase.CreateAccountInput{}, err
		}
		input.NormalBalanceType = balanceType
	}

	return input, nil
}

// CreateJournalRequest represents a request to create a journal.
type CreateJournalRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateJournalRequest) ToUseCaseInput() (usecase.CreateJournalInput, error) {
	input := usecase.CreateJournalInput{
		Name:        r.Name,
		Description: r.Description,
	}

	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return usecase.CreateJournalInput{}, fmt.Errorf("invalid journal id: %w", err)
		}
		input.ID = id
	}

	return input, nil
}

// ParamDefinitionRequest declares one template parameter, with the
// default as expression source text.
type ParamDefinitionRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// TxInputRequest carries the transaction-level expressions of a template
// as source text. Effective and journal_id are mandatory.
type TxInputRequest struct {
	Effective     string `json:"effective"`
	JournalID     string `json:"journal_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	Description   string `json:"description,omitempty"`
	Metadata      string `json:"metadata,omitempty"`
}

// EntryInputRequest carries the expressions of one template entry as
// source text.
type EntryInputRequest struct {
	EntryType   string `json:"entry_type"`
	AccountID   string `json:"account_id"`
	Layer       string `json:"layer"`
	Direction   string `json:"direction"`
	Units       string `json:"units"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

// CreateTemplateRequest represents a request to create a transaction
// template.
type CreateTemplateRequest struct {
	Code        string                   `json:"code"`
	Description string                   `json:"description,omitempty"`
	Params      []ParamDefinitionRequest `json:"params,omitempty"`
	TxInput     TxInputRequest           `json:"tx_input"`
	Entries     []EntryInputRequest      `json:"entries"`
	Metadata    map[string]any           `json:"metadata,omitempty"`
}

// ToDomain parses every expression and builds the domain input. A field
// that fails to parse is reported with its location in the template.
func (r *CreateTemplateRequest) ToDomain() (domain.NewTxTemplate, error) {
	input := domain.NewTxTemplate{
		Code:        r.Code,
		Description: r.Description,
		Metadata:    r.Metadata,
	}

	for _, p := range r.Params {
		def := domain.ParamDefinition{
			Name:        p.Name,
			Type:        domain.ParamDataType(p.Type),
			Description: p.Description,
		}
		if p.Default != "" {
			expr, err := cel.Parse(p.Default)
			if err != nil {
				return domain.NewTxTemplate{}, fmt.Errorf("param %q default: %w", p.Name, err)
			}
			def.Default = expr
		}
		input.Params = append(input.Params, def)
	}

	var err error
	if input.TxInput.Effective, err = parseExpr("effective", r.TxInput.Effective); err != nil {
		return domain.NewTxTemplate{}, err
	}
	if input.TxInput.JournalID, err = parseExpr("journal_id", r.TxInput.JournalID); err != nil {
		return domain.NewTxTemplate{}, err
	}
	if input.TxInput.CorrelationID, err = parseOptionalExpr("correlation_id", r.TxInput.CorrelationID); err != nil {
		return domain.NewTxTemplate{}, err
	}
	if input.TxInput.ExternalID, err = parseOptionalExpr("external_id", r.TxInput.ExternalID); err != nil {
		return domain.NewTxTemplate{}, err
	}
	if input.TxInput.Description, err = parseOptionalExpr("description", r.TxInput.Description); err != nil {
		return domain.NewTxTemplate{}, err
	}
	if input.TxInput.Metadata, err = parseOptionalExpr("metadata", r.TxInput.Metadata); err != nil {
		return domain.NewTxTemplate{}, err
	}

	for i, e := range r.Entries {
		entry, err := e.toDomain(i + 1)
		if err != nil {
			return domain.NewTxTemplate{}, err
		}
		input.Entries = append(input.Entries, entry)
	}

	return input, nil
}

func (e *EntryInputRequest) toDomain(position int) (domain.EntryInput, error) {
	var (
		entry domain.EntryInput
		err   error
	)

	field := func(name string) string {
		return fmt.Sprintf("entry %d %s", position, name)
	}

	if entry.EntryType, err = parseExpr(field("entry_type"), e.EntryType); err != nil {
		return domain.EntryInput{}, err
	}
	if entry.AccountID, err = parseExpr(field("account_id"), e.AccountID); err != nil {
		return domain.EntryInput{}, err
	}
	if entry.Layer, err = parseExpr(field("layer"), e.Layer); err != nil {
		return domain.EntryInput{}, err
	}
	if entry.Direction, err = parseExpr(field("direction"), e.Direction); err != nil {
		return domain.EntryInput{}, err
	}
	if entry.Units, err = parseExpr(field("units"), e.Units); err != nil {
		return domain.EntryInput{}, err
	}
	if entry.Currency, err = parseExpr(field("currency"), e.Currency); err != nil {
		return domain.EntryInput{}, err
	}
	if entry.Description, err = parseOptionalExpr(field("description"), e.Description); err != nil {
		return domain.EntryInput{}, err
	}

	return entry, nil
}

func parseExpr(field, source string) (*cel.Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("%s expression is required", field)
	}
	expr, err := cel.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return expr, nil
}

func parseOptionalExpr(field, source string) (*cel.Expression, error) {
	if source == "" {
		return nil, nil
	}
	return parseExpr(field, source)
}

// PostTransactionRequest represents a request to post a transaction from
// a template.
type PostTransactionRequest struct {
	Template string         `json:"template"`
	Params   map[string]any `json:"params,omitempty"`
}

// ToParams converts the JSON parameter map to resolver parameters.
func (r *PostTransactionRequest) ToParams() (usecase.TxParams, error) {
	params := make(usecase.TxParams, len(r.Params))
	for name, raw := range r.Params {
		v, err := cel.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		params[name] = v
	}
	return params, nil
}
