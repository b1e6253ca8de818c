package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceDetails is one immutable balance snapshot for a
// (journal, account, currency) key. Each applied entry produces a new
// snapshot with version advanced by exactly one; the accumulators only
// ever grow.
type BalanceDetails struct {
	JournalID uuid.UUID `json:"journal_id"`
	AccountID uuid.UUID `json:"account_id"`
	EntryID   uuid.UUID `json:"entry_id"`
	Currency  string    `json:"currency"`

	SettledDrBalance  decimal.Decimal `json:"settled_dr_balance"`
	SettledCrBalance  decimal.Decimal `json:"settled_cr_balance"`
	SettledEntryID    uuid.UUID       `json:"settled_entry_id"`
	SettledModifiedAt time.Time       `json:"settled_modified_at"`

	PendingDrBalance  decimal.Decimal `json:"pending_dr_balance"`
	PendingCrBalance  decimal.Decimal `json:"pending_cr_balance"`
	PendingEntryID    uuid.UUID       `json:"pending_entry_id"`
	PendingModifiedAt time.Time       `json:"pending_modified_at"`

	EncumberedDrBalance  decimal.Decimal `json:"encumbered_dr_balance"`
	EncumberedCrBalance  decimal.Decimal `json:"encumbered_cr_balance"`
	EncumberedEntryID    uuid.UUID       `json:"encumbered_entry_id"`
	EncumberedModifiedAt time.Time       `json:"encumbered_modified_at"`

	Version    int32     `json:"version"`
	ModifiedAt time.Time `json:"modified_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// InitBalance folds the first entry for a never-seen
// (account, currency) pair into a fresh zero balance.
func InitBalance(journalID uuid.UUID, entry *StagedEntry) BalanceDetails {
	b := BalanceDetails{
		JournalID:            journalID,
		AccountID:            entry.AccountID,
		EntryID:              entry.EntryID,
		Currency:             entry.Currency,
		SettledDrBalance:     decimal.Zero,
		SettledCrBalance:     decimal.Zero,
		SettledEntryID:       entry.EntryID,
		SettledModifiedAt:    entry.CreatedAt,
		PendingDrBalance:     decimal.Zero,
		PendingCrBalance:     decimal.Zero,
		PendingEntryID:       entry.EntryID,
		PendingModifiedAt:    entry.CreatedAt,
		EncumberedDrBalance:  decimal.Zero,
		EncumberedCrBalance:  decimal.Zero,
		EncumberedEntryID:    entry.EntryID,
		EncumberedModifiedAt: entry.CreatedAt,
		Version:              0,
		ModifiedAt:           entry.CreatedAt,
		CreatedAt:            entry.CreatedAt,
	}
	return b.Apply(entry)
}

// Apply folds one entry, returning the successor snapshot. The receiver
// is not mutated.
func (b BalanceDetails) Apply(entry *StagedEntry) BalanceDetails {
	b.Version++
	b.ModifiedAt = entry.CreatedAt
	b.EntryID = entry.EntryID

	switch entry.Layer {
	case LayerSettled:
		b.SettledEntryID = entry.EntryID
		b.SettledModifiedAt = entry.CreatedAt
		if entry.Direction == Debit {
			b.SettledDrBalance = b.SettledDrBalance.Add(entry.Units)
		} else {
			b.SettledCrBalance = b.SettledCrBalance.Add(entry.Units)
		}
	case LayerPending:
		b.PendingEntryID = entry.EntryID
		b.PendingModifiedAt = entry.CreatedAt
		if entry.Direction == Debit {
			b.PendingDrBalance = b.PendingDrBalance.Add(entry.Units)
		} else {
			b.PendingCrBalance = b.PendingCrBalance.Add(entry.Units)
		}
	case LayerEncumbered:
		b.EncumberedEntryID = entry.EntryID
		b.EncumberedModifiedAt = entry.CreatedAt
		if entry.Direction == Debit {
			b.EncumberedDrBalance = b.EncumberedDrBalance.Add(entry.Units)
		} else {
			b.EncumberedCrBalance = b.EncumberedCrBalance.Add(entry.Units)
		}
	}
	return b
}

// AccountBalance is the read model for a balance: the snapshot joined
// with the account's normal balance type, from which signed nets derive.
type AccountBalance struct {
	BalanceType DebitOrCredit  `json:"balance_type"`
	Details     BalanceDetails `json:"details"`
}

func (b *AccountBalance) net(dr, cr decimal.Decimal) decimal.Decimal {
	if b.BalanceType == Debit {
		return dr.Sub(cr)
	}
	return cr.Sub(dr)
}

// Settled is the signed net settled balance (own side minus opposite side).
func (b *AccountBalance) Settled() decimal.Decimal {
	return b.net(b.Details.SettledDrBalance, b.Details.SettledCrBalance)
}

// Pending is the signed net pending balance.
func (b *AccountBalance) Pending() decimal.Decimal {
	return b.net(b.Details.PendingDrBalance, b.Details.PendingCrBalance)
}

// Encumbered is the signed net encumbered balance.
func (b *AccountBalance) Encumbered() decimal.Decimal {
	return b.net(b.Details.EncumberedDrBalance, b.Details.EncumberedCrBalance)
}

// Available is the settled net reduced by encumbrances.
func (b *AccountBalance) Available() decimal.Decimal {
	return b.Settled().Sub(b.Encumbered())
}
