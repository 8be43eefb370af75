package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"launchdash/domain/core"
	"launchdash/internal"
	"launchdash/internal/dashboard"
)

// SSEHub fans chart events out to the browsers watching each dashboard session
type SSEHub struct {
	clients   map[core.SessionID]map[chan dashboard.Event]bool
	clientsMu sync.RWMutex
	broadcast chan dashboard.Event
	done      chan struct{}
	stopOnce  sync.Once
	keepAlive time.Duration
	logger    *internal.Logger
}

// NewSSEHub creates a new SSE hub and starts its dispatch loop
func NewSSEHub(keepAlive time.Duration) *SSEHub {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	hub := &SSEHub{
		clients:   make(map[core.SessionID]map[chan dashboard.Event]bool),
		broadcast: make(chan dashboard.Event, 100),
		done:      make(chan struct{}),
		keepAlive: keepAlive,
		logger:    internal.DefaultLogger.Component("SSE"),
	}

	go hub.run()
	return hub
}

// run delivers queued events in broadcast order
func (h *SSEHub) run() {
	for {
		select {
		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("Client channel full for session %s, skipping %s event",
						event.SessionID, event.Kind)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Broadcast queues an event for every client of its session. It satisfies dashboard.Listener.
func (h *SSEHub) Broadcast(event dashboard.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event: %s", event.Kind)
	}
}

// Stop ends the dispatch loop
func (h *SSEHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Subscribe registers a client channel for a session. The client is registered
// when Subscribe returns, so every later Broadcast for the session reaches it.
// The returned function unregisters it and closes the channel.
func (h *SSEHub) Subscribe(sessionID core.SessionID) (<-chan dashboard.Event, func()) {
	ch := make(chan dashboard.Event, 10)

	h.clientsMu.Lock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[chan dashboard.Event]bool)
	}
	h.clients[sessionID][ch] = true
	h.logger.Debug("Client registered for session %s (total clients: %d)",
		sessionID, len(h.clients[sessionID]))
	h.clientsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unregister(sessionID, ch) })
	}
}

func (h *SSEHub) unregister(sessionID core.SessionID, ch chan dashboard.Event) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	clients, exists := h.clients[sessionID]
	if !exists || !clients[ch] {
		return
	}
	delete(clients, ch)
	close(ch)
	h.logger.Debug("Client unregistered from session %s (remaining clients: %d)",
		sessionID, len(clients))
	if len(clients) == 0 {
		delete(h.clients, sessionID)
	}
}

// Stream writes initial followed by every event received on events, with
// keep-alive pings, until the client disconnects or events is closed.
func (h *SSEHub) Stream(c *gin.Context, events <-chan dashboard.Event, initial ...dashboard.Event) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	pending := append([]dashboard.Event(nil), initial...)
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		if len(pending) > 0 {
			h.writeEvent(c, pending[0])
			pending = pending[1:]
			return true
		}

		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			h.writeEvent(c, event)
			return true

		case <-ticker.C:
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

func (h *SSEHub) writeEvent(c *gin.Context, event dashboard.Event) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event: %v", err)
		return
	}
	c.SSEvent(string(event.Kind), string(eventJSON))
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID core.SessionID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}
