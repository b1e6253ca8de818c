package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/infrastructure/metrics"
)

// EventChannel is the Postgres notification channel the events table
// trigger publishes to.
const EventChannel = "celledger_events"

// PGSource follows Postgres LISTEN/NOTIFY on a connection pinned from
// the pool. Notifications carry the event JSON; a payload that fails to
// decode (truncated by the notify size limit, say) still produces a bare
// nudge so the notifier falls back to a store scan.
type PGSource struct {
	pool    *pgxpool.Pool
	channel string
	logger  zerolog.Logger
	metrics *metrics.Metrics

	signals   chan Signal
	ready     chan struct{}
	readyOnce sync.Once
}

// NewPGSource creates a source listening on channel.
func NewPGSource(pool *pgxpool.Pool, channel string, logger zerolog.Logger, metrics *metrics.Metrics) *PGSource {
	if channel == "" {
		channel = EventChannel
	}
	return &PGSource{
		pool:    pool,
		channel: channel,
		logger:  logger,
		metrics: metrics,
		signals: make(chan Signal, 256),
		ready:   make(chan struct{}),
	}
}

// Signals returns the stream of commit signals.
func (s *PGSource) Signals() <-chan Signal {
	return s.signals
}

// Ready is closed once the first LISTEN is established.
func (s *PGSource) Ready() <-chan struct{} {
	return s.ready
}

// Run listens until ctx is done, reconnecting with exponential backoff.
// After a reconnect it emits a bare nudge, since notifications sent
// while detached are gone.
func (s *PGSource) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.MaxInterval = 30 * time.Second

	attached := false
	for {
		err := s.listen(ctx, attached)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attached = true

		if s.metrics != nil {
			s.metrics.NotifierReconnects.Inc()
		}
		wait := bo.NextBackOff()
		s.logger.Warn().Err(err).Dur("retry_in", wait).Msg("event listener disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *PGSource) listen(ctx context.Context, reattach bool) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+s.channel); err != nil {
		return err
	}
	s.readyOnce.Do(func() { close(s.ready) })

	if reattach {
		s.emit(ctx, Signal{})
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var event domain.Event
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			s.logger.Warn().Err(err).Msg("undecodable event notification, forcing scan")
			s.emit(ctx, Signal{})
			continue
		}
		s.emit(ctx, Signal{Event: event, OK: true})
	}
}

func (s *PGSource) emit(ctx context.Context, sig Signal) {
	select {
	case s.signals <- sig:
	case <-ctx.Done():
	}
}
