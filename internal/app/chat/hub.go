/*
Package chat contains the core presence and broadcast state machine of the relay.

This file defines the Hub, the session controller for the single chat room. It
owns the Roster and History and runs one event loop goroutine through which
every registration, inbound event, and disconnect is serialized. Each
mutate-then-snapshot-then-broadcast sequence therefore completes before the
next one starts, so roster snapshots are never broadcast out of order relative
to the mutations that produced them.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/app/avatar"
	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/logx"
)

// eventChannelBuffer sizes the Hub's single inbound event channel.
const eventChannelBuffer = 1024

// Hub coordinates all connections of the chat room. All state behind the
// events channel is owned by the Run loop goroutine.
type Hub struct {
	// clients holds every live connection, joined or not, keyed by connection
	// identity. Broadcasts reach all of them; the roster is a subset.
	clients map[string]*Client

	// roster is the authoritative set of joined users.
	roster *Roster

	// history is the replayable message log; nil when replay is disabled.
	history *History

	// avatars produces avatar references for joining users. It is consulted
	// on the connection goroutines, never inside the run loop.
	avatars avatar.Provider

	// events carries registrations, decoded client events, and disconnects.
	// A single channel keeps each connection's events in arrival order.
	events chan inbound

	// stop signals the run loop to terminate; done closes when it has.
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub. keepHistory enables the message log and its replay
// to newly connected clients. The Hub is inert until Run is started.
func NewHub(avatars avatar.Provider, keepHistory bool) *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	h := &Hub{
		clients: make(map[string]*Client),
		roster:  NewRoster(),
		avatars: avatars,
		events:  make(chan inbound, eventChannelBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  hubLogger,
	}

	if keepHistory {
		h.history = NewHistory()
	}

	return h
}

// Roster exposes the hub's user registry for read-only inspection.
func (h *Hub) Roster() *Roster {
	return h.roster
}

// Run starts the Hub's event loop. It returns when Shutdown is called.
// It must run in its own goroutine, exactly once per Hub.
func (h *Hub) Run() {
	defer close(h.done)

	h.logger.Info().Msg("Hub event loop started.")

	for {
		select {
		case in := <-h.events:
			h.handleEvent(in.client, in.event)

		case <-h.stop:
			h.logger.Info().Int("connections", len(h.clients)).Msg("Hub stopping, closing client queues.")
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			return
		}
	}
}

// Shutdown terminates the run loop and waits for it to finish. Safe to call
// more than once.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done

	h.logger.Info().Msg("Hub shutdown complete.")
}

// Register queues a newly established connection for the run loop.
func (h *Hub) Register(c *Client) {
	h.dispatch(c, registerEvent{})
}

// Unregister queues a disconnect for the run loop. Idempotent: a second
// disconnect for the same connection is absorbed as a no-op.
func (h *Hub) Unregister(c *Client) {
	h.dispatch(c, disconnectEvent{})
}

// dispatch hands one event to the run loop, giving up if the hub is stopping.
func (h *Hub) dispatch(c *Client, event any) {
	select {
	case h.events <- inbound{client: c, event: event}:
	case <-h.stop:
	}
}

// handleEvent applies one serialized event. Runs on the loop goroutine only.
func (h *Hub) handleEvent(c *Client, event any) {
	switch ev := event.(type) {
	case registerEvent:
		h.handleRegister(c)
	case disconnectEvent:
		h.handleDisconnect(c)
	case joinEvent:
		h.handleJoin(c, ev)
	case renameEvent:
		h.handleRename(ev)
	case messageEvent:
		h.handleMessage(ev)
	case privateMessageEvent:
		h.handlePrivateMessage(ev)
	default:
		h.logger.Error().Interface("event", event).Msg("Unhandled event type in Hub loop.")
	}
}

// handleRegister adds a fresh connection, notifies the others, and replays
// the message log to the newcomer.
func (h *Hub) handleRegister(c *Client) {
	if existing, ok := h.clients[c.id]; ok && existing != c {
		// Identities are generated per connection, so this is a logic fault.
		h.logger.Error().Str("client_id", c.id).Msg("Connection identity collision on register. Keeping existing connection.")
		return
	}

	h.clients[c.id] = c

	h.logger.Info().
		Str("client_id", c.id).
		Int("connections", len(h.clients)).
		Msg("Connection registered.")

	h.broadcastExcept(c, EventJoin, JoinNotice)

	if h.history != nil {
		if err := c.sendEvent(EventMessages, h.history.All()); err != nil {
			h.logger.Warn().Str("client_id", c.id).Err(err).Msg("Failed to replay message history.")
		}
	}
}

// handleDisconnect removes the connection and, if it had joined, its roster
// entry, broadcasting the updated roster only when an entry was removed.
func (h *Hub) handleDisconnect(c *Client) {
	current, ok := h.clients[c.id]
	if !ok || current != c {
		h.logger.Debug().Str("client_id", c.id).Msg("Disconnect for unknown or stale connection ignored.")
		return
	}

	delete(h.clients, c.id)
	close(c.send)

	removed := h.roster.Remove(c.id)

	h.logger.Info().
		Str("client_id", c.id).
		Bool("was_joined", removed).
		Int("connections", len(h.clients)).
		Msg("Connection removed.")

	if removed {
		h.broadcastAll(EventUsers, h.roster.Snapshot())
	}
}

// handleJoin creates the User for a connection, answers the joiner with its
// assigned profile, and broadcasts the new roster.
func (h *Hub) handleJoin(c *Client, ev joinEvent) {
	if current, ok := h.clients[c.id]; !ok || current != c {
		// The connection was dropped while its join event was queued.
		return
	}

	name := ev.name
	if name == "" {
		name = user.AnonymousName
	}

	u, err := h.roster.Add(c.id, name, ev.avatarRef)
	if err != nil {
		h.logger.Error().Str("client_id", c.id).Err(err).Msg("Join rejected.")
		return
	}

	if err := c.sendEvent(EventJoin, u); err != nil {
		h.logger.Warn().Str("client_id", c.id).Err(err).Msg("Failed to deliver join confirmation.")
	}

	h.broadcastAll(EventUsers, h.roster.Snapshot())
}

// handleRename applies a display name change and broadcasts the roster only
// when the target existed. Unknown targets are silently absorbed.
func (h *Hub) handleRename(ev renameEvent) {
	if h.roster.Rename(ev.id, ev.name) {
		h.broadcastAll(EventUsers, h.roster.Snapshot())
	}
}

// handleMessage logs the message if history is kept and relays it to every
// connection, the sender included. The sender is accepted as-is.
func (h *Hub) handleMessage(ev messageEvent) {
	if h.history != nil {
		h.history.Append(ev.msg)
	}

	h.broadcastAll(EventMessage, ev.msg)
}

// handlePrivateMessage relays the message to the target connection only.
// An absent target means zero deliveries, not an error.
func (h *Hub) handlePrivateMessage(ev privateMessageEvent) {
	target, ok := h.clients[ev.to]
	if !ok {
		h.logger.Debug().Str("target_id", ev.to).Msg("Private message target not connected, dropping.")
		return
	}

	if err := target.sendEvent(EventPrivateMessage, ev.msg); err != nil {
		h.logger.Warn().Str("target_id", ev.to).Err(err).Msg("Failed to deliver private message.")
	}
}

// broadcastAll emits one event to every connection, including ones that have
// not joined yet.
func (h *Hub) broadcastAll(event string, payload any) {
	h.broadcast(nil, event, payload)
}

// broadcastExcept emits one event to every connection except the given one.
func (h *Hub) broadcastExcept(except *Client, event string, payload any) {
	h.broadcast(except, event, payload)
}

// broadcast fans one frame out to the current connections. A recipient whose
// send queue is full is dropped and disconnected afterwards; one slow or dead
// recipient never blocks delivery to the rest.
func (h *Hub) broadcast(except *Client, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error().Str("event", event).Err(err).Msg("Failed to encode broadcast frame.")
		return
	}

	var failed []*Client
	for _, client := range h.clients {
		if client == except {
			continue
		}
		if !client.enqueue(data) {
			failed = append(failed, client)
		}
	}

	for _, client := range failed {
		h.logger.Warn().Str("client_id", client.id).Msg("Client send queue full, disconnecting.")
		h.handleDisconnect(client)
	}
}
