package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a ledger account. The normal balance type decides which side
// of the debit/credit pair counts as positive when deriving a signed net
// balance.
type Account struct {
	ID                uuid.UUID      `json:"id"`
	Code              string         `json:"code"`
	Name              string         `json:"name"`
	NormalBalanceType DebitOrCredit  `json:"normal_balance_type"`
	Description       string         `json:"description,omitempty"`
	Status            Status         `json:"status"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Version           int32          `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	ModifiedAt        time.Time      `json:"modified_at"`
}

// NewAccount holds the caller-supplied fields for account creation.
type NewAccount struct {
	ID                uuid.UUID
	Code              string
	Name              string
	NormalBalanceType DebitOrCredit
	Description       string
	Status            Status
	Metadata          map[string]any
}

// Normalize fills defaults: a random id, credit-normal balance and active
// status unless specified.
func (n *NewAccount) Normalize() {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.NormalBalanceType == "" {
		n.NormalBalanceType = Credit
	}
	if n.Status == "" {
		n.Status = StatusActive
	}
}
