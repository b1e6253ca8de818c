package notifier

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/iho/celledger/internal/domain"
)

const defaultBuffer = 64

// SubscribeOptions tunes one subscription.
type SubscribeOptions struct {
	// Buffer is the channel capacity. Zero means defaultBuffer.
	Buffer int
	// CloseOnLag closes the subscription when it falls behind instead of
	// silently skipping events.
	CloseOnLag bool
}

type subscriptionScope int

const (
	scopeAll subscriptionScope = iota
	scopeJournal
	scopeAccount
)

// Subscription is one consumer's view of the event stream. Events
// arrives in id order; whether a slow consumer loses events or the whole
// subscription depends on CloseOnLag.
type Subscription struct {
	id         string
	scope      subscriptionScope
	journalID  uuid.UUID
	accountID  uuid.UUID
	closeOnLag bool
	ch         chan domain.Event
	notifier   *Notifier
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the delivery channel. It is closed when the
// subscription ends, whether by Close, lag closure, or notifier
// shutdown.
func (s *Subscription) Events() <-chan domain.Event {
	return s.ch
}

// Close detaches the subscription. Events already buffered remain
// readable until the channel drains.
func (s *Subscription) Close() {
	s.notifier.mu.Lock()
	defer s.notifier.mu.Unlock()
	s.notifier.removeLocked(s)
}

// SubscribeAll delivers every event.
func (n *Notifier) SubscribeAll(opts SubscribeOptions) (*Subscription, error) {
	return n.subscribe(&Subscription{scope: scopeAll}, opts)
}

// SubscribeJournal delivers events belonging to one journal.
func (n *Notifier) SubscribeJournal(journalID uuid.UUID, opts SubscribeOptions) (*Subscription, error) {
	return n.subscribe(&Subscription{scope: scopeJournal, journalID: journalID}, opts)
}

// SubscribeAccount delivers balance events for one account within a
// journal.
func (n *Notifier) SubscribeAccount(journalID, accountID uuid.UUID, opts SubscribeOptions) (*Subscription, error) {
	return n.subscribe(&Subscription{scope: scopeAccount, journalID: journalID, accountID: accountID}, opts)
}

func (n *Notifier) subscribe(sub *Subscription, opts SubscribeOptions) (*Subscription, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = n.cfg.SubscriberBuffer
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	sub.id = ulid.MustNew(ulid.Now(), rand.Reader).String()
	sub.closeOnLag = opts.CloseOnLag
	sub.ch = make(chan domain.Event, opts.Buffer)
	sub.notifier = n

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, domain.ErrEventSubscriberClosed
	}

	switch sub.scope {
	case scopeAll:
		n.all[sub.id] = sub
	case scopeJournal:
		if n.byJournal[sub.journalID] == nil {
			n.byJournal[sub.journalID] = make(map[string]*Subscription)
		}
		n.byJournal[sub.journalID][sub.id] = sub
	case scopeAccount:
		key := journalAccount{JournalID: sub.journalID, AccountID: sub.accountID}
		if n.byAccount[key] == nil {
			n.byAccount[key] = make(map[string]*Subscription)
		}
		n.byAccount[key][sub.id] = sub
	}

	if n.metrics != nil {
		n.metrics.EventSubscribers.Inc()
	}
	return sub, nil
}

// removeLocked detaches and closes a subscription. Callers hold n.mu.
// Safe to call twice; the second call is a no-op.
func (n *Notifier) removeLocked(sub *Subscription) {
	var found bool
	switch sub.scope {
	case scopeAll:
		_, found = n.all[sub.id]
		delete(n.all, sub.id)
	case scopeJournal:
		_, found = n.byJournal[sub.journalID][sub.id]
		delete(n.byJournal[sub.journalID], sub.id)
		if len(n.byJournal[sub.journalID]) == 0 {
			delete(n.byJournal, sub.journalID)
		}
	case scopeAccount:
		key := journalAccount{JournalID: sub.journalID, AccountID: sub.accountID}
		_, found = n.byAccount[key][sub.id]
		delete(n.byAccount[key], sub.id)
		if len(n.byAccount[key]) == 0 {
			delete(n.byAccount, key)
		}
	}
	if !found {
		return
	}
	close(sub.ch)
	if n.metrics != nil {
		n.metrics.EventSubscribers.Dec()
	}
}
