package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one persisted debit or credit leg of a transaction.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	Version       int32           `json:"version"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	JournalID     uuid.UUID       `json:"journal_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	EntryType     string          `json:"entry_type"`
	Layer         Layer           `json:"layer"`
	Units         decimal.Decimal `json:"units"`
	Currency      string          `json:"currency"`
	Direction     DebitOrCredit   `json:"direction"`
	Sequence      int32           `json:"sequence"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ModifiedAt    time.Time       `json:"modified_at"`
}

// NewEntry is a resolved entry produced by the template resolver, before
// it gains an identity.
type NewEntry struct {
	AccountID   uuid.UUID
	EntryType   string
	Layer       Layer
	Units       decimal.Decimal
	Currency    Currency
	Direction   DebitOrCredit
	Description string
}

// StagedEntry is a persisted entry projected down to the fields the
// balance fold consumes. Never stored as-is.
type StagedEntry struct {
	EntryID   uuid.UUID
	AccountID uuid.UUID
	Units     decimal.Decimal
	Currency  string
	Direction DebitOrCredit
	Layer     Layer
	CreatedAt time.Time
}
