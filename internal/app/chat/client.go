/*
Package chat contains the core presence and broadcast state machine of the relay.

This file defines the Client struct, representing one active WebSocket
connection. It runs the read and write pumps, decodes the tagged event
envelope, and forwards typed events into the Hub loop. Avatar resolution for a
join happens here, on the connection's goroutine, so the external call never
stalls the Hub.
*/
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/app/avatar"
	"chatrelay/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// sendQueueSize buffers outbound frames per connection.
	sendQueueSize = 256
)

// Client represents one active WebSocket connection.
type Client struct {
	// hub owning this connection.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// id is the connection identity, generated at upgrade time.
	id string

	// send queues frames waiting to be written to the connection.
	send chan []byte

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(hub *Hub, wsConn *websocket.Conn, id string) *Client {
	clientLogger := logx.Logger().With().
		Str("client_id", id).
		Logger()

	return &Client{
		hub:    hub,
		conn:   wsConn,
		id:     id,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads frames from the WebSocket connection until it closes,
// handling heartbeats and decoding inbound events. On exit it unregisters the
// connection from the hub.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInbound(messageBytes)
	}
}

// cleanupOnDisconnect runs when the ReadPump terminates for any reason.
// The hub absorbs a duplicate unregister, so transport failure followed by an
// explicit close releases the roster entry exactly once.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInbound decodes one raw frame into a typed event and forwards it to
// the hub. Malformed frames are logged and dropped; nothing untyped reaches
// the roster.
func (c *Client) processInbound(messageBytes []byte) {
	var env Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch env.Event {
	case EventJoin:
		c.handleJoin(env.Payload)

	case EventRename:
		c.handleRename(env.Payload)

	case EventMessage:
		c.handleMessage(env.Payload)

	case EventPrivateMessage:
		c.handlePrivateMessage(env.Payload)

	default:
		c.logger.Warn().Str("event", env.Event).Msg("Client sent unsupported event")
	}
}

// handleJoin decodes a join request and resolves the avatar reference before
// the event enters the hub loop, so the provider call cannot stall other
// connections' events.
func (c *Client) handleJoin(payloadBytes json.RawMessage) {
	var p joinPayload
	if len(payloadBytes) > 0 {
		if err := json.Unmarshal(payloadBytes, &p); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid join payload")
			return
		}
	}

	avatarRef := p.Avatar
	if avatarRef == "" {
		avatarRef = avatar.Resolve(context.Background(), c.hub.avatars)
	}

	c.hub.dispatch(c, joinEvent{name: p.Name, avatarRef: avatarRef})
}

// handleRename decodes a rename request. A missing target identity fails closed.
func (c *Client) handleRename(payloadBytes json.RawMessage) {
	var p renamePayload
	if err := json.Unmarshal(payloadBytes, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid rename payload")
		return
	}

	if p.User.ID == "" {
		c.logger.Warn().Msg("Client sent rename without a target identity")
		return
	}

	c.hub.dispatch(c, renameEvent{id: p.User.ID, name: p.User.Name})
}

// handleMessage decodes a chat message. The sender is relayed as-is, not
// validated against the roster.
func (c *Client) handleMessage(payloadBytes json.RawMessage) {
	var msg ChatMessage
	if err := json.Unmarshal(payloadBytes, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid message payload")
		return
	}

	c.hub.dispatch(c, messageEvent{msg: msg})
}

// handlePrivateMessage decodes a private message. A missing target fails closed.
func (c *Client) handlePrivateMessage(payloadBytes json.RawMessage) {
	var p privatePayload
	if err := json.Unmarshal(payloadBytes, &p); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid private message payload")
		return
	}

	if p.TargetIdentity == "" {
		c.logger.Warn().Msg("Client sent private message without a target identity")
		return
	}

	c.hub.dispatch(c, privateMessageEvent{to: p.TargetIdentity, msg: p.Message})
}

// WritePump writes queued frames to the WebSocket connection and keeps the
// heartbeat going. It exits when the send channel is closed by the hub.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame pulled from the send channel.
// Returns false when the WritePump loop should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic Ping to maintain the heartbeat.
// Returns false when the WritePump loop should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendEvent encodes one frame and queues it for this connection only.
func (c *Client) sendEvent(event string, payload any) error {
	data, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	if !c.enqueue(data) {
		return fmt.Errorf("client send queue full")
	}

	return nil
}

// enqueue offers a frame to the send queue without blocking. Called from the
// hub loop only, which is also the sole closer of the channel.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
