package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SSE event names
const (
	EventGraph  = "graph"
	EventStage  = "stage"
	EventAsset  = "asset"
	EventClosed = "closed"
)

// SSEHub fans editing session events out to Server-Sent Events clients
type SSEHub struct {
	// session id -> client channels
	clients map[string]map[chan []byte]bool
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]map[chan []byte]bool),
	}
}

// RegisterClient registers a new SSE client for a session
func (h *SSEHub) RegisterClient(sessionID string) chan []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientChan := make(chan []byte, 16)
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[chan []byte]bool)
	}
	h.clients[sessionID][clientChan] = true

	logrus.Debugf("SSE client registered for session %s (total clients: %d)", sessionID, len(h.clients[sessionID]))
	return clientChan
}

// UnregisterClient unregisters an SSE client. It is a no-op when the
// session's clients were already dropped by CloseSession.
func (h *SSEHub) UnregisterClient(sessionID string, clientChan chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[sessionID]
	if clients == nil || !clients[clientChan] {
		return
	}
	delete(clients, clientChan)
	close(clientChan)
	if len(clients) == 0 {
		delete(h.clients, sessionID)
	}
	logrus.Debugf("SSE client unregistered for session %s (remaining clients: %d)", sessionID, len(clients))
}

// Broadcast sends an event to every client of a session without blocking
func (h *SSEHub) Broadcast(sessionID, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.clients[sessionID]
	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("Failed to marshal %s event for SSE: %v", event, err)
		return
	}
	message := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))

	for clientChan := range clients {
		select {
		case clientChan <- message:
		default:
			logrus.Warnf("SSE client channel full, skipping: %s", sessionID)
		}
	}
}

// CloseSession sends a final event and disconnects every client of a session
func (h *SSEHub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := []byte(fmt.Sprintf("event: %s\ndata: {\"sessionId\":%q}\n\n", EventClosed, sessionID))
	for clientChan := range h.clients[sessionID] {
		select {
		case clientChan <- message:
		default:
		}
		close(clientChan)
	}
	delete(h.clients, sessionID)
}

// GetClientCount returns the number of clients of a session
func (h *SSEHub) GetClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// SendHeartbeat sends a comment line to keep a session's connections alive
func (h *SSEHub) SendHeartbeat(sessionID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	heartbeat := []byte(fmt.Sprintf(": heartbeat %s\n\n", time.Now().Format(time.RFC3339)))
	for clientChan := range h.clients[sessionID] {
		select {
		case clientChan <- heartbeat:
		default:
		}
	}
}
