package notifier

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/infrastructure/metrics"
)

// Store reads the durable event log for catch-up scans.
type Store interface {
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Event, error)
}

// Signal is one wake-up from a Source: a decoded event, or a bare nudge
// (OK false) when the payload could not be decoded. A nudge forces a
// store scan, so a lost payload never loses an event.
type Signal struct {
	Event domain.Event
	OK    bool
}

// Source delivers commit signals. Run blocks until ctx is done,
// reconnecting internally; Ready is closed once the source is attached
// and no commit can slip past it unnoticed.
type Source interface {
	Run(ctx context.Context) error
	Signals() <-chan Signal
	Ready() <-chan struct{}
}

// Config tunes a Notifier.
type Config struct {
	// AfterID is the resume point: only events with a greater id are
	// delivered. Zero replays the full log.
	AfterID int64
	// ScanBatch bounds one catch-up scan query.
	ScanBatch int
	// SubscriberBuffer is the channel capacity for subscriptions that
	// do not set their own.
	SubscriberBuffer int
}

const defaultScanBatch = 100

// Notifier tails the event log and fans events out to subscribers in
// strict id order with no gaps. Subscribers that cannot keep up either
// lose events silently or get closed, per their subscription.
type Notifier struct {
	store   Store
	source  Source
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	closed    bool
	lastID    int64
	all       map[string]*Subscription
	byJournal map[uuid.UUID]map[string]*Subscription
	byAccount map[journalAccount]map[string]*Subscription
}

type journalAccount struct {
	JournalID uuid.UUID
	AccountID uuid.UUID
}

// New creates a Notifier resuming after cfg.AfterID. Each Notifier is an
// independent cursor over the log; resuming from an explicit point means
// creating a fresh instance.
func New(store Store, source Source, cfg Config, logger zerolog.Logger, metrics *metrics.Metrics) *Notifier {
	if cfg.ScanBatch <= 0 {
		cfg.ScanBatch = defaultScanBatch
	}
	return &Notifier{
		store:     store,
		source:    source,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		lastID:    cfg.AfterID,
		all:       make(map[string]*Subscription),
		byJournal: make(map[uuid.UUID]map[string]*Subscription),
		byAccount: make(map[journalAccount]map[string]*Subscription),
	}
}

// Run drives the notifier until ctx is done: attach the source, replay
// the backlog from the resume point, then follow commit signals. On exit
// every subscription is closed and later subscribe calls fail with
// domain.ErrEventSubscriberClosed.
func (n *Notifier) Run(ctx context.Context) error {
	defer n.shutdown()

	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- n.source.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-sourceErr:
		return err
	case <-n.source.Ready():
	}

	if err := n.catchUp(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sourceErr:
			return err
		case sig := <-n.source.Signals():
			if err := n.handle(ctx, sig); err != nil {
				return err
			}
		}
	}
}

// handle applies one signal. The common case is the next id in sequence;
// anything else (gap, replayed id, undecodable payload) degrades to a
// store scan, which re-establishes order.
func (n *Notifier) handle(ctx context.Context, sig Signal) error {
	if sig.OK {
		last := n.cursor()
		switch {
		case sig.Event.ID <= last:
			return nil
		case sig.Event.ID == last+1:
			n.dispatch(sig.Event)
			return nil
		}
		n.logger.Debug().
			Int64("last_id", last).
			Int64("event_id", sig.Event.ID).
			Msg("event gap detected, scanning store")
	}
	return n.catchUp(ctx)
}

// catchUp scans the store from the cursor until no events remain,
// dispatching in order.
func (n *Notifier) catchUp(ctx context.Context) error {
	for {
		events, err := n.store.ListAfter(ctx, n.cursor(), n.cfg.ScanBatch)
		if err != nil {
			return err
		}
		for i := range events {
			n.dispatch(events[i])
		}
		if len(events) < n.cfg.ScanBatch {
			return nil
		}
	}
}

func (n *Notifier) cursor() int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastID
}

func (n *Notifier) dispatch(event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if event.ID <= n.lastID {
		return
	}
	n.lastID = event.ID

	for _, sub := range n.all {
		n.deliverLocked(sub, event)
	}

	journalID := event.JournalID()
	for _, sub := range n.byJournal[journalID] {
		n.deliverLocked(sub, event)
	}

	if accountID, ok := event.AccountID(); ok {
		key := journalAccount{JournalID: journalID, AccountID: accountID}
		for _, sub := range n.byAccount[key] {
			n.deliverLocked(sub, event)
		}
	}
}

// deliverLocked pushes without blocking: the notifier never stalls on a
// slow consumer. Callers hold n.mu.
func (n *Notifier) deliverLocked(sub *Subscription, event domain.Event) {
	select {
	case sub.ch <- event:
		if n.metrics != nil {
			n.metrics.EventsDelivered.Inc()
		}
	default:
		if sub.closeOnLag {
			n.logger.Warn().Str("subscription", sub.id).Msg("subscriber lagging, closing")
			if n.metrics != nil {
				n.metrics.EventLagClosures.Inc()
			}
			n.removeLocked(sub)
			return
		}
		n.logger.Debug().
			Str("subscription", sub.id).
			Int64("event_id", event.ID).
			Msg("subscriber lagging, event skipped")
	}
}

func (n *Notifier) shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for _, sub := range n.all {
		n.removeLocked(sub)
	}
	for _, subs := range n.byJournal {
		for _, sub := range subs {
			n.removeLocked(sub)
		}
	}
	for _, subs := range n.byAccount {
		for _, sub := range subs {
			n.removeLocked(sub)
		}
	}
}
