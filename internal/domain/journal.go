package domain

import (
	"time"

	"github.com/google/uuid"
)

// Journal groups transactions and balances into an isolated ledger.
type Journal struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Version     int32     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// NewJournal holds the caller-supplied fields for journal creation.
type NewJournal struct {
	ID          uuid.UUID
	Name        string
	Description string
	Status      Status
}

// Normalize fills defaults for unspecified fields.
func (n *NewJournal) Normalize() {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = StatusActive
	}
}
