package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/usecase"
)

// eventLogLockID keys the advisory lock that serializes event id
// assignment with commit order ("CELL" in ASCII).
const eventLogLockID int64 = 0x43454C4C

// eventPool is the slice of pgxpool.Pool the repository needs for reads
// outside a transaction; tests substitute a mock pool through
// newEventRepositoryWithPool.
type eventPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository implements usecase.EventRepository over an append-only
// table. An insert trigger emits pg_notify for each row, and
// notifications issued inside a transaction only reach listeners after
// commit, so publication is atomic with the posting.
type EventRepository struct {
	pool eventPool
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func newEventRepositoryWithPool(pool eventPool) *EventRepository {
	return &EventRepository{pool: pool}
}

// CreateInTx appends one event within the posting's transaction.
//
// Sequence ids alone do not order with commits: a posting that drew
// lower ids can commit after one that drew higher ids, and a log tailer
// that has already seen the higher ids would skip the lower ones for
// good. The advisory lock is held until commit, so ids are assigned and
// committed in the same order.
func (r *EventRepository) CreateInTx(ctx context.Context, tx usecase.Transaction, eventType domain.EventType, data domain.EventData) (*domain.Event, error) {
	payload, err := domain.EncodeEventData(data)
	if err != nil {
		return nil, err
	}

	pgxTx := pgxTxOf(tx)
	if _, err := pgxTx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, eventLogLockID); err != nil {
		return nil, err
	}

	event := &domain.Event{Type: eventType, Data: data}
	err = pgxTx.QueryRow(ctx, `
		INSERT INTO celledger_events (type, data)
		VALUES ($1, $2)
		RETURNING id, recorded_at`,
		eventType, payload).Scan(&event.ID, &event.RecordedAt)
	if err != nil {
		return nil, err
	}

	return event, nil
}

// ListAfter returns up to limit events with id greater than afterID, in
// ascending id order.
func (r *EventRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type, data, recorded_at
		FROM celledger_events
		WHERE id > $1
		ORDER BY id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var event domain.Event
		var raw []byte
		if err := rows.Scan(&event.ID, &event.Type, &raw, &event.RecordedAt); err != nil {
			return nil, err
		}
		event.Data, err = domain.DecodeEventData(event.Type, raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MaxID returns the highest event id recorded so far, or zero for an
// empty log. Used to seed the notifier's resume point at boot.
func (r *EventRepository) MaxID(ctx context.Context) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM celledger_events`).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
