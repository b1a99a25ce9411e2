package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Event is one lifecycle event as sent to stream subscribers.
type Event struct {
	Type  domain.EventType `json:"type"`
	Data  any              `json:"data"`
	Error string           `json:"error,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- Event]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- Event]struct{}),
	}
}

// Subscribe returns a channel of events and the function that closes it.
func (sm *StreamManager) Subscribe() (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast sends ev to every subscriber. Slow subscribers miss it.
func (sm *StreamManager) Broadcast(ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	slog.Debug("StreamManager: Broadcasting", "type", ev.Type, "subscribers", len(sm.subscribers))
	for ch := range sm.subscribers {
		select {
		case ch <- ev:
		default:
			slog.Warn("SSE: Client buffer full, dropping event", "type", ev.Type)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every session event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepApplied: func(_ context.Context, e *domain.StepEvent) {
			sm.Broadcast(Event{Type: e.Type, Data: e})
		},
		OnStepFailed: func(_ context.Context, e *domain.StepEvent) {
			sm.Broadcast(Event{Type: e.Type, Data: e, Error: errString(e.Err)})
		},
		OnReplay: func(_ context.Context, e *domain.ReplayEvent) {
			sm.Broadcast(Event{Type: e.Type, Data: e, Error: errString(e.Err)})
		},
		OnHistory: func(_ context.Context, e *domain.HistoryEvent) {
			sm.Broadcast(Event{Type: e.Type, Data: e})
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SubscribeEvents handles the GET /events request (SSE). The optional
// "types" query parameter is a comma separated list of event types to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var types []domain.EventType
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			types = append(types, domain.EventType(strings.TrimSpace(t)))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(types) > 0 && !slices.Contains(types, ev.Type) {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("SSE: Failed to encode event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}
