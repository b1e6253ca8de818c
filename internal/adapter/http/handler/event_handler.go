package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/iho/celledger/internal/adapter/http/dto"
	"github.com/iho/celledger/internal/domain"
	"github.com/iho/celledger/internal/notifier"
)

// EventService defines the catch-up read behavior needed by EventHandler.
type EventService interface {
	ListEvents(ctx context.Context, afterID int64, limit int) ([]domain.Event, error)
}

// EventStreamer hands out live event subscriptions.
type EventStreamer interface {
	SubscribeAll(opts notifier.SubscribeOptions) (*notifier.Subscription, error)
	SubscribeJournal(journalID uuid.UUID, opts notifier.SubscribeOptions) (*notifier.Subscription, error)
	SubscribeAccount(journalID, accountID uuid.UUID, opts notifier.SubscribeOptions) (*notifier.Subscription, error)
}

// EventHandler serves the durable event log and its live SSE stream.
type EventHandler struct {
	events   EventService
	streamer EventStreamer
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events EventService, streamer EventStreamer) *EventHandler {
	return &EventHandler{events: events, streamer: streamer}
}

// List returns events recorded after after_id, ascending.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	afterID := parseInt64Query(r, "after_id", 0)
	limit := parseIntQuery(r, "limit", 100)

	events, err := h.events.ListEvents(r.Context(), afterID, limit)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list events", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEventsResponse{
		Events: dto.EventsFromDomain(events),
	})
}

const streamScanBatch = 100

// Stream serves events over SSE. Scope narrows via journal_id and
// account_id query parameters; after_id replays the backlog before going
// live. A consumer that falls behind either misses events or has the
// stream closed, controlled by close_on_lag.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	opts := notifier.SubscribeOptions{
		CloseOnLag: r.URL.Query().Get("close_on_lag") == "true",
	}

	sub, err := h.subscribe(r, opts)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrEventSubscriberClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "failed to subscribe", err.Error())
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Replay the backlog before switching to the live feed. Live events
	// that raced the replay are deduplicated by id below.
	lastID := parseInt64Query(r, "after_id", 0)
	if r.URL.Query().Get("after_id") != "" {
		replayed, err := h.replay(r.Context(), w, flusher, lastID)
		if err != nil {
			return
		}
		lastID = replayed
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.Events():
			if !open {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if event.ID <= lastID {
				continue
			}
			if err := writeSSE(w, event); err != nil {
				return
			}
			lastID = event.ID
			flusher.Flush()
		}
	}
}

func (h *EventHandler) subscribe(r *http.Request, opts notifier.SubscribeOptions) (*notifier.Subscription, error) {
	journalParam := r.URL.Query().Get("journal_id")
	accountParam := r.URL.Query().Get("account_id")

	if journalParam == "" {
		if accountParam != "" {
			return nil, fmt.Errorf("account_id requires journal_id")
		}
		return h.streamer.SubscribeAll(opts)
	}

	journalID, err := uuid.Parse(journalParam)
	if err != nil {
		return nil, fmt.Errorf("invalid journal_id: %w", err)
	}

	if accountParam == "" {
		return h.streamer.SubscribeJournal(journalID, opts)
	}

	accountID, err := uuid.Parse(accountParam)
	if err != nil {
		return nil, fmt.Errorf("invalid account_id: %w", err)
	}
	return h.streamer.SubscribeAccount(journalID, accountID, opts)
}

func (h *EventHandler) replay(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, afterID int64) (int64, error) {
	for {
		events, err := h.events.ListEvents(ctx, afterID, streamScanBatch)
		if err != nil {
			return afterID, err
		}
		for _, event := range events {
			if err := writeSSE(w, event); err != nil {
				return afterID, err
			}
			afterID = event.ID
		}
		flusher.Flush()
		if len(events) < streamScanBatch {
			return afterID, nil
		}
	}
}

func writeSSE(w http.ResponseWriter, event domain.Event) error {
	data, err := json.Marshal(dto.EventFromDomain(event))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data)
	return err
}
