package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/notifier"
)

type eventStoreStub struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *eventStoreStub) append(events ...domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *eventStoreStub) ListAfter(_ context.Context, afterID int64, limit int) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Event
	for _, ev := range s.events {
		if ev.ID > afterID {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *eventStoreStub) ListEvents(ctx context.Context, afterID int64, limit int) ([]domain.Event, error) {
	return s.ListAfter(ctx, afterID, limit)
}

type eventSourceStub struct {
	signals chan notifier.Signal
	ready   chan struct{}
}

func newEventSourceStub() *eventSourceStub {
	s := &eventSourceStub{
		signals: make(chan notifier.Signal, 16),
		ready:   make(chan struct{}),
	}
	close(s.ready)
	return s
}

func (s *eventSourceStub) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *eventSourceStub) Signals() <-chan notifier.Signal { return s.signals }

func (s *eventSourceStub) Ready() <-chan struct{} { return s.ready }

func journalEvent(id int64, journalID uuid.UUID) domain.Event {
	return domain.Event{
		ID:   id,
		Type: domain.EventTransactionCreated,
		Data: domain.TransactionCreated{
			Transaction: domain.Transaction{ID: uuid.New(), JournalID: journalID},
		},
		RecordedAt: time.Now().UTC(),
	}
}

// sseRecorder is a concurrency-safe ResponseWriter for streaming
// handlers that keep writing while the test inspects the body.
type sseRecorder struct {
	mu            sync.Mutex
	header        http.Header
	body          strings.Builder
	status        int
	headerWritten bool
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *sseRecorder) Header() http.Header { return r.header }

func (r *sseRecorder) WriteHeader(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.headerWritten = true
}

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) snapshot() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func (r *sseRecorder) statusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// waitSubscribed blocks until the stream handler has written its
// response header, which happens only after the subscription exists.
func waitSubscribed(t *testing.T, rec *sseRecorder) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec.mu.Lock()
		written := rec.headerWritten
		rec.mu.Unlock()
		if written {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for stream to start")
}

func waitContains(t *testing.T, rec *sseRecorder, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(rec.snapshot(), want) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in stream, got %q", want, rec.snapshot())
}

func startTestNotifier(t *testing.T, store *eventStoreStub) (*notifier.Notifier, *eventSourceStub) {
	t.Helper()

	source := newEventSourceStub()
	n := notifier.New(store, source, notifier.Config{}, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = n.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return n, source
}

func TestEventHandler_List(t *testing.T) {
	journalID := uuid.New()
	store := &eventStoreStub{}
	store.append(journalEvent(1, journalID), journalEvent(2, journalID))

	handler := NewEventHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/events?after_id=1", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"id":2`) || strings.Contains(body, `"id":1,`) {
		t.Fatalf("expected only event 2 in response, got %s", body)
	}
}

func TestEventHandler_Stream_LiveEvents(t *testing.T) {
	journalID := uuid.New()
	store := &eventStoreStub{}
	n, source := startTestNotifier(t, store)
	handler := NewEventHandler(store, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events/stream", nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.Stream(rec, req)
	}()

	waitSubscribed(t, rec)
	event := journalEvent(1, journalID)
	store.append(event)
	source.signals <- notifier.Signal{Event: event, OK: true}

	waitContains(t, rec, "id: 1\n")
	waitContains(t, rec, string(domain.EventTransactionCreated))

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not stop on context cancel")
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", got)
	}
}

func TestEventHandler_Stream_ReplayAfterID(t *testing.T) {
	journalID := uuid.New()
	store := &eventStoreStub{}
	store.append(journalEvent(1, journalID), journalEvent(2, journalID), journalEvent(3, journalID))

	n, _ := startTestNotifier(t, store)
	handler := NewEventHandler(store, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events/stream?after_id=1", nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.Stream(rec, req)
	}()

	waitContains(t, rec, "id: 2\n")
	waitContains(t, rec, "id: 3\n")
	if strings.Contains(rec.snapshot(), "id: 1\n") {
		t.Fatalf("event 1 should not replay, got %q", rec.snapshot())
	}

	cancel()
	<-done
}

func TestEventHandler_Stream_InvalidJournalID(t *testing.T) {
	store := &eventStoreStub{}
	n, _ := startTestNotifier(t, store)
	handler := NewEventHandler(store, n)

	req := httptest.NewRequest(http.MethodGet, "/events/stream?journal_id=nope", nil)
	rec := httptest.NewRecorder()

	handler.Stream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEventHandler_Stream_JournalScope(t *testing.T) {
	mine := uuid.New()
	other := uuid.New()
	store := &eventStoreStub{}
	n, source := startTestNotifier(t, store)
	handler := NewEventHandler(store, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events/stream?journal_id="+mine.String(), nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.Stream(rec, req)
	}()

	waitSubscribed(t, rec)
	first := journalEvent(1, other)
	second := journalEvent(2, mine)
	store.append(first, second)
	source.signals <- notifier.Signal{Event: first, OK: true}
	source.signals <- notifier.Signal{Event: second, OK: true}

	waitContains(t, rec, "id: 2\n")
	if strings.Contains(rec.snapshot(), "id: 1\n") {
		t.Fatalf("foreign journal event leaked into stream: %q", rec.snapshot())
	}

	cancel()
	<-done
}
