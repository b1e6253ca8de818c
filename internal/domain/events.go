package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType tags the payload variant carried by an Event.
type EventType string

const (
	EventBalanceUpdated     EventType = "BalanceUpdated"
	EventTransactionCreated EventType = "TransactionCreated"
	EventTransactionUpdated EventType = "TransactionUpdated"
)

// Event is one durably sequenced ledger change. IDs are gap-free in
// publication order and events are retained indefinitely for catch-up.
type Event struct {
	ID         int64
	Type       EventType
	Data       EventData
	RecordedAt time.Time
}

// EventData is the discriminated payload union.
type EventData interface {
	isEventData()
}

type BalanceUpdated struct {
	Balance BalanceDetails
}

type TransactionCreated struct {
	Transaction Transaction
}

type TransactionUpdated struct {
	Transaction Transaction
}

func (BalanceUpdated) isEventData()     {}
func (TransactionCreated) isEventData() {}
func (TransactionUpdated) isEventData() {}

// JournalID returns the journal the event belongs to.
func (e *Event) JournalID() uuid.UUID {
	switch d := e.Data.(type) {
	case BalanceUpdated:
		return d.Balance.JournalID
	case TransactionCreated:
		return d.Transaction.JournalID
	case TransactionUpdated:
		return d.Transaction.JournalID
	}
	return uuid.Nil
}

// AccountID returns the account the event concerns, when it concerns one.
func (e *Event) AccountID() (uuid.UUID, bool) {
	if d, isBalance := e.Data.(BalanceUpdated); isBalance {
		return d.Balance.AccountID, true
	}
	return uuid.Nil, false
}

// eventWire is the persisted shape: type deterministically selects how
// data is decoded.
type eventWire struct {
	ID         int64           `json:"id"`
	Type       EventType       `json:"type"`
	Data       json.RawMessage `json:"data"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// EncodeEventData marshals the payload of a data variant.
func EncodeEventData(data EventData) ([]byte, error) {
	switch d := data.(type) {
	case BalanceUpdated:
		return json.Marshal(d.Balance)
	case TransactionCreated:
		return json.Marshal(d.Transaction)
	case TransactionUpdated:
		return json.Marshal(d.Transaction)
	default:
		return nil, fmt.Errorf("unknown event payload %T", data)
	}
}

// MarshalJSON serializes the event in its wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := EncodeEventData(e.Data)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", e.ID, err)
	}
	return json.Marshal(eventWire{
		ID:         e.ID,
		Type:       e.Type,
		Data:       data,
		RecordedAt: e.RecordedAt,
	})
}

// UnmarshalJSON decodes the wire shape, selecting the payload variant by
// the type tag.
func (e *Event) UnmarshalJSON(raw []byte) error {
	var wire eventWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	data, err := DecodeEventData(wire.Type, wire.Data)
	if err != nil {
		return err
	}
	*e = Event{ID: wire.ID, Type: wire.Type, Data: data, RecordedAt: wire.RecordedAt}
	return nil
}

// DecodeEventData decodes a raw payload into the variant selected by the
// type tag.
func DecodeEventData(eventType EventType, raw []byte) (EventData, error) {
	switch eventType {
	case EventBalanceUpdated:
		var b BalanceDetails
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return BalanceUpdated{Balance: b}, nil
	case EventTransactionCreated:
		var t Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return TransactionCreated{Transaction: t}, nil
	case EventTransactionUpdated:
		var t Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return TransactionUpdated{Transaction: t}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
