package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is one entry of the live activity stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Activity stream event types.
const (
	EventScriptExport   = "script.export"
	EventScriptImport   = "script.import"
	EventLibraryPublish = "library.publish"
)

// clientBuffer is how many events a slow subscriber may lag behind before
// events are dropped for it.
const clientBuffer = 16

// Hub fans activity events out to Server-Sent Events subscribers.
type Hub struct {
	mu           sync.RWMutex
	clients      map[chan []byte]struct{}
	pingInterval time.Duration
	now          func() time.Time
	closed       chan struct{}
	closeOnce    sync.Once
}

// NewHub creates a hub that pings idle subscribers every 15 seconds.
func NewHub() *Hub {
	return &Hub{
		clients:      make(map[chan []byte]struct{}),
		pingInterval: 15 * time.Second,
		now:          time.Now,
		closed:       make(chan struct{}),
	}
}

// Close ends every open stream so the HTTP server can drain.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.closed) })
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts an event. Subscribers whose buffer is full miss it.
func (h *Hub) Publish(typ string, data any) {
	payload, err := json.Marshal(Event{Type: typ, Timestamp: h.now(), Data: data})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *Hub) subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// ServeHTTP streams events to the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closed:
			return
		case data := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", data)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
