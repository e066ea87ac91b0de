package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/vita-ai/vita/internal/bus"
)

// EventBus fans bus events out to SSE clients and keeps a ring buffer
// of recent events so new clients see some history.
type EventBus struct {
	mu       sync.RWMutex
	clients  map[chan bus.Event]struct{}
	ring     []*bus.Event
	ringSize int
	ringPos  int
	ringLen  int
}

// NewEventBus creates an event bus with the given ring buffer size.
func NewEventBus(size int) *EventBus {
	return &EventBus{
		clients:  make(map[chan bus.Event]struct{}),
		ring:     make([]*bus.Event, size),
		ringSize: size,
	}
}

// Publish adds an event to the ring buffer and fans it out to all SSE clients.
func (eb *EventBus) Publish(ev bus.Event) {
	eb.mu.Lock()
	stored := ev
	eb.ring[eb.ringPos] = &stored
	eb.ringPos = (eb.ringPos + 1) % eb.ringSize
	if eb.ringLen < eb.ringSize {
		eb.ringLen++
	}
	clients := make([]chan bus.Event, 0, len(eb.clients))
	for ch := range eb.clients {
		clients = append(clients, ch)
	}
	eb.mu.Unlock()

	for _, ch := range clients {
		select {
		case ch <- ev:
		default:
			// Drop event for slow clients.
		}
	}
}

// Subscribe returns a channel that receives events and an unsubscribe function.
func (eb *EventBus) Subscribe() (chan bus.Event, func()) {
	ch := make(chan bus.Event, 64)
	eb.mu.Lock()
	eb.clients[ch] = struct{}{}
	eb.mu.Unlock()
	return ch, func() {
		eb.mu.Lock()
		delete(eb.clients, ch)
		eb.mu.Unlock()
	}
}

// Recent returns the ring buffer contents in chronological order.
func (eb *EventBus) Recent() []bus.Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	result := make([]bus.Event, 0, eb.ringLen)
	start := (eb.ringPos - eb.ringLen + eb.ringSize) % eb.ringSize
	for i := 0; i < eb.ringLen; i++ {
		idx := (start + i) % eb.ringSize
		if eb.ring[idx] != nil {
			result = append(result, *eb.ring[idx])
		}
	}
	return result
}

func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsub := s.eventBus.Subscribe()
	defer unsub()

	for _, ev := range s.eventBus.Recent() {
		writeSSE(w, ev)
	}
	flusher.Flush()

	for {
		select {
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, ev bus.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
