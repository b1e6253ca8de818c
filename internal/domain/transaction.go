package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a committed posting derived from a template.
type Transaction struct {
	ID            uuid.UUID      `json:"id"`
	Version       int32          `json:"version"`
	JournalID     uuid.UUID      `json:"journal_id"`
	TxTemplateID  uuid.UUID      `json:"tx_template_id"`
	Effective     time.Time      `json:"effective"`
	CorrelationID uuid.UUID      `json:"correlation_id"`
	ExternalID    string         `json:"external_id"`
	Description   string         `json:"description,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ModifiedAt    time.Time      `json:"modified_at"`
}

// NewTransaction is the resolved transaction header before persistence.
// CorrelationID and ExternalID default from the transaction id when the
// template leaves them unset.
type NewTransaction struct {
	ID            uuid.UUID
	JournalID     uuid.UUID
	TxTemplateID  uuid.UUID
	Effective     time.Time
	CorrelationID uuid.UUID
	ExternalID    string
	Description   string
	Metadata      map[string]any
}

// Normalize assigns the id-derived defaults for unset optional fields.
func (n *NewTransaction) Normalize() {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CorrelationID == uuid.Nil {
		n.CorrelationID = n.ID
	}
	if n.ExternalID == "" {
		n.ExternalID = n.ID.String()
	}
}
