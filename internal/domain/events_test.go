package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSONRoundTrip(t *testing.T) {
	transaction := Transaction{
		ID:        uuid.New(),
		Version:   1,
		JournalID: uuid.New(),
		Effective: time.Now().UTC().Truncate(time.Second),
	}
	event := Event{
		ID:         42,
		Type:       EventTransactionCreated,
		Data:       TransactionCreated{Transaction: transaction},
		RecordedAt: time.Now().UTC().Truncate(time.Second),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	data, ok := decoded.Data.(TransactionCreated)
	require.True(t, ok, "expected TransactionCreated, got %T", decoded.Data)
	assert.Equal(t, transaction.ID, data.Transaction.ID)
	assert.Equal(t, transaction.JournalID, data.Transaction.JournalID)
}

func TestEventJSONBalanceVariant(t *testing.T) {
	details := BalanceDetails{
		JournalID:        uuid.New(),
		AccountID:        uuid.New(),
		Currency:         "BTC",
		Version:          3,
		SettledDrBalance: decimal.NewFromInt(100),
	}
	event := Event{
		ID:   7,
		Type: EventBalanceUpdated,
		Data: BalanceUpdated{Balance: details},
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))

	data, ok := decoded.Data.(BalanceUpdated)
	require.True(t, ok, "expected BalanceUpdated, got %T", decoded.Data)
	assert.Equal(t, details.AccountID, data.Balance.AccountID)
	assert.True(t, data.Balance.SettledDrBalance.Equal(decimal.NewFromInt(100)))
}

func TestEventUnmarshalUnknownType(t *testing.T) {
	var decoded Event
	err := json.Unmarshal([]byte(`{"id":1,"type":"something.else","data":{}}`), &decoded)
	assert.Error(t, err)
}

func TestEventJournalID(t *testing.T) {
	journalID := uuid.New()

	tx := Event{Type: EventTransactionCreated, Data: TransactionCreated{
		Transaction: Transaction{JournalID: journalID},
	}}
	assert.Equal(t, journalID, tx.JournalID())

	balance := Event{Type: EventBalanceUpdated, Data: BalanceUpdated{
		Balance: BalanceDetails{JournalID: journalID},
	}}
	assert.Equal(t, journalID, balance.JournalID())
}

func TestEventAccountID(t *testing.T) {
	accountID := uuid.New()

	balance := Event{Type: EventBalanceUpdated, Data: BalanceUpdated{
		Balance: BalanceDetails{AccountID: accountID},
	}}
	got, ok := balance.AccountID()
	require.True(t, ok)
	assert.Equal(t, accountID, got)

	tx := Event{Type: EventTransactionCreated, Data: TransactionCreated{}}
	_, ok = tx.AccountID()
	assert.False(t, ok)
}

func TestEncodeEventDataUnknownVariant(t *testing.T) {
	_, err := EncodeEventData(nil)
	assert.Error(t, err)
}
