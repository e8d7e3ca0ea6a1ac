/*
Package chat contains the core presence and broadcast state machine of the relay.

This file defines the History, the append-only in-memory message log replayed
to newly connected clients. It lives for the server process only; there is no
eviction and no persistence.
*/
package chat

import "sync"

// History is the append-only log of broadcast chat messages. Growth is
// unbounded; the log lives only as long as the process.
type History struct {
	mu       sync.RWMutex
	messages []ChatMessage
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// Append adds a message to the log. It never fails.
func (h *History) Append(msg ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
}

// All returns a copy of the full history in arrival order.
func (h *History) All() []ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of logged messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.messages)
}
