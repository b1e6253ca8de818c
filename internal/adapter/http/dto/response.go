package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/celledger/internal/cel"
	"github.com/iho/celledger/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                string         `json:"id"`
	Code              string         `json:"code"`
	Name              string         `json:"name"`
	NormalBalanceType string         `json:"normal_balance_type"`
	Description       string         `json:"description,omitempty"`
	Status            string         `json:"status"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Version           int32          `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	ModifiedAt        time.Time      `json:"modified_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                a.ID.String(),
		Code:              a.Code,
		Name:              a.Name,
		NormalBalanceType: string(a.NormalBalanceType),
		Description:       a.Description,
		Status:            string(a.Status),
		Metadata:          a.Metadata,
		Version:           a.Version,
		CreatedAt:         a.CreatedAt,
		ModifiedAt:        a.ModifiedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// JournalResponse represents a journal in API responses.
type JournalResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Version     int32     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// JournalFromDomain converts domain journal to response.
func JournalFromDomain(j *domain.Journal) *JournalResponse {
	return &JournalResponse{
		ID:          j.ID.String(),
		Name:        j.Name,
		Description: j.Description,
		Status:      string(j.Status),
		Version:     j.Version,
		CreatedAt:   j.CreatedAt,
		ModifiedAt:  j.ModifiedAt,
	}
}

// JournalsFromDomain converts domain journals to responses.
func JournalsFromDomain(journals []*domain.Journal) []*JournalResponse {
	result := make([]*JournalResponse, len(journals))
	for i, j := range journals {
		result[i] = JournalFromDomain(j)
	}
	return result
}

// ListJournalsResponse wraps a page of journals.
type ListJournalsResponse struct {
	Journals []*JournalResponse `json:"journals"`
	Total    int64              `json:"total"`
}

// TemplateResponse represents a template in API responses. Expressions
// are rendered as their source text.
type TemplateResponse struct {
	ID          string                    `json:"id"`
	Code        string                    `json:"code"`
	Description string                    `json:"description,omitempty"`
	Params      []ParamDefinitionResponse `json:"params,omitempty"`
	TxInput     TxInputResponse           `json:"tx_input"`
	Entries     []EntryInputResponse      `json:"entries"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
	Version     int32                     `json:"version"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// ParamDefinitionResponse represents a template parameter declaration.
type ParamDefinitionResponse struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// TxInputResponse represents the transaction-level expressions.
type TxInputResponse struct {
	Effective     string `json:"effective"`
	JournalID     string `json:"journal_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
	Description   string `json:"description,omitempty"`
	Metadata      string `json:"metadata,omitempty"`
}

// EntryInputResponse represents one template entry's expressions.
type EntryInputResponse struct {
	EntryType   string `json:"entry_type"`
	AccountID   string `json:"account_id"`
	Layer       string `json:"layer"`
	Direction   string `json:"direction"`
	Units       string `json:"units"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

func exprSource(e *cel.Expression) string {
	if e == nil {
		return ""
	}
	return e.Source()
}

// TemplateFromDomain converts domain template to response.
func TemplateFromDomain(t *domain.TxTemplate) *TemplateResponse {
	resp := &TemplateResponse{
		ID:          t.ID.String(),
		Code:        t.Code,
		Description: t.Description,
		TxInput: TxInputResponse{
			Effective:     exprSource(t.TxInput.Effective),
			JournalID:     exprSource(t.TxInput.JournalID),
			CorrelationID: exprSource(t.TxInput.CorrelationID),
			ExternalID:    exprSource(t.TxInput.ExternalID),
			Description:   exprSource(t.TxInput.Description),
			Metadata:      exprSource(t.TxInput.Metadata),
		},
		Metadata:  t.Metadata,
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
	}

	for _, p := range t.Params {
		resp.Params = append(resp.Params, ParamDefinitionResponse{
			Name:        p.Name,
			Type:        string(p.Type),
			Default:     exprSource(p.Default),
			Description: p.Description,
		})
	}

	for _, e := range t.Entries {
		resp.Entries = append(resp.Entries, EntryInputResponse{
			EntryType:   exprSource(e.EntryType),
			AccountID:   exprSource(e.AccountID),
			Layer:       exprSource(e.Layer),
			Direction:   exprSource(e.Direction),
			Units:       exprSource(e.Units),
			Currency:    exprSource(e.Currency),
			Description: exprSource(e.Description),
		})
	}

	return resp
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID            string         `json:"id"`
	Version       int32          `json:"version"`
	JournalID     string         `json:"journal_id"`
	TxTemplateID  string         `json:"tx_template_id"`
	Effective     time.Time      `json:"effective"`
	CorrelationID string         `json:"correlation_id"`
	ExternalID    string         `json:"external_id"`
	Description   string         `json:"description,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ModifiedAt    time.Time      `json:"modified_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID.String(),
		Version:       t.Version,
		JournalID:     t.JournalID.String(),
		TxTemplateID:  t.TxTemplateID.String(),
		Effective:     t.Effective,
		CorrelationID: t.CorrelationID.String(),
		ExternalID:    t.ExternalID,
		Description:   t.Description,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
		ModifiedAt:    t.ModifiedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID            string          `json:"id"`
	Version       int32           `json:"version"`
	TransactionID string          `json:"transaction_id"`
	JournalID     string          `json:"journal_id"`
	AccountID     string          `json:"account_id"`
	EntryType     string          `json:"entry_type"`
	Layer         string          `json:"layer"`
	Units         decimal.Decimal `json:"units"`
	Currency      string          `json:"currency"`
	Direction     string          `json:"direction"`
	Sequence      int32           `json:"sequence"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID.String(),
		Version:       e.Version,
		TransactionID: e.TransactionID.String(),
		JournalID:     e.JournalID.String(),
		AccountID:     e.AccountID.String(),
		EntryType:     e.EntryType,
		Layer:         string(e.Layer),
		Units:         e.Units,
		Currency:      e.Currency,
		Direction:     string(e.Direction),
		Sequence:      e.Sequence,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// BalanceResponse represents an account balance in API responses: the
// raw per-layer debit/credit totals plus the signed nets derived from
// the account's normal balance type.
type BalanceResponse struct {
	JournalID  string `json:"journal_id"`
	AccountID  string `json:"account_id"`
	Currency   string `json:"currency"`
	Version    int32  `json:"version"`
	EntryID    string `json:"entry_id"`
	ModifiedAt string `json:"modified_at"`

	SettledDrBalance    decimal.Decimal `json:"settled_dr_balance"`
	SettledCrBalance    decimal.Decimal `json:"settled_cr_balance"`
	PendingDrBalance    decimal.Decimal `json:"pending_dr_balance"`
	PendingCrBalance    decimal.Decimal `json:"pending_cr_balance"`
	EncumberedDrBalance decimal.Decimal `json:"encumbered_dr_balance"`
	EncumberedCrBalance decimal.Decimal `json:"encumbered_cr_balance"`

	Settled    decimal.Decimal `json:"settled"`
	Pending    decimal.Decimal `json:"pending"`
	Encumbered decimal.Decimal `json:"encumbered"`
	Available  decimal.Decimal `json:"available"`
}

// BalanceFromDomain converts a domain account balance to response.
func BalanceFromDomain(b *domain.AccountBalance) *BalanceResponse {
	d := b.Details
	return &BalanceResponse{
		JournalID:  d.JournalID.String(),
		AccountID:  d.AccountID.String(),
		Currency:   d.Currency,
		Version:    d.Version,
		EntryID:    d.EntryID.String(),
		ModifiedAt: d.ModifiedAt.Format(time.RFC3339Nano),

		SettledDrBalance:    d.SettledDrBalance,
		SettledCrBalance:    d.SettledCrBalance,
		PendingDrBalance:    d.PendingDrBalance,
		PendingCrBalance:    d.PendingCrBalance,
		EncumberedDrBalance: d.EncumberedDrBalance,
		EncumberedCrBalance: d.EncumberedCrBalance,

		Settled:    b.Settled(),
		Pending:    b.Pending(),
		Encumbered: b.Encumbered(),
		Available:  b.Available(),
	}
}

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Data       any       `json:"data"`
	RecordedAt time.Time `json:"recorded_at"`
}

// EventFromDomain converts a domain event to response.
func EventFromDomain(e domain.Event) *EventResponse {
	resp := &EventResponse{
		ID:         e.ID,
		Type:       string(e.Type),
		RecordedAt: e.RecordedAt,
	}
	switch d := e.Data.(type) {
	case domain.BalanceUpdated:
		resp.Data = d.Balance
	case domain.TransactionCreated:
		resp.Data = d.Transaction
	case domain.TransactionUpdated:
		resp.Data = d.Transaction
	}
	return resp
}

// EventsFromDomain converts domain events to responses.
func EventsFromDomain(events []domain.Event) []*EventResponse {
	result := make([]*EventResponse, len(events))
	for i, e := range events {
		result[i] = EventFromDomain(e)
	}
	return result
}

// ListEventsResponse wraps a page of events.
type ListEventsResponse struct {
	Events []*EventResponse `json:"events"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
