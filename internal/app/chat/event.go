/*
Package chat contains the core presence and broadcast state machine of the relay.

This file defines the wire protocol: the tagged event envelope exchanged with
clients, the payload shapes per event name, and the typed inbound events the
Hub run loop consumes. Payloads are validated on receipt; malformed frames are
dropped without side effects.
*/
package chat

import (
	"encoding/json"

	"chatrelay/internal/app/user"
)

// Event names exchanged over the wire.
const (
	// EventJoin is sent by a client to enter the roster, echoed back to the
	// joiner with its assigned User, and broadcast as a courtesy notice when a
	// connection is established.
	EventJoin = "join"

	// EventUsers carries the full roster snapshot, broadcast after any
	// membership or name change.
	EventUsers = "users"

	// EventMessage carries one chat message, broadcast to every connection.
	EventMessage = "message"

	// EventPrivateMessage carries a message routed to a single connection.
	EventPrivateMessage = "privateMessage"

	// EventRename requests a display name change for a roster member.
	EventRename = "rename"

	// EventMessages replays the message log to a newly connected client.
	EventMessages = "messages"
)

// JoinNotice is the courtesy text broadcast to other connections when a new
// connection is established. It is informational only and not derived from
// roster state.
const JoinNotice = "Someone joined the room"

// Envelope is the tagged frame wrapping every inbound client event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// frame is the outbound counterpart of Envelope.
type frame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// encodeFrame marshals one outbound event frame.
func encodeFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(frame{Event: event, Payload: payload})
}

// ChatMessage is one chat message as relayed to clients. The sender is
// captured by value at send time; a later rename does not rewrite messages
// already broadcast.
type ChatMessage struct {
	From    user.User `json:"from"`
	Content string    `json:"content"`
}

// joinPayload is the client request to join the roster. Both fields are
// optional; missing values get server-side defaults.
type joinPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// renamePayload is the client request to change a user's display name.
type renamePayload struct {
	User struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// privatePayload routes a message to a single connection identity.
type privatePayload struct {
	TargetIdentity string      `json:"targetIdentity"`
	Message        ChatMessage `json:"message"`
}

// Typed inbound events consumed by the Hub run loop. Exactly one of these is
// produced per decoded client frame or transport transition.
type (
	registerEvent   struct{}
	disconnectEvent struct{}

	joinEvent struct {
		name      string
		avatarRef string
	}

	renameEvent struct {
		id   string
		name string
	}

	messageEvent struct {
		msg ChatMessage
	}

	privateMessageEvent struct {
		to  string
		msg ChatMessage
	}
)

// inbound pairs an event with the connection it originated from.
type inbound struct {
	client *Client
	event  any
}
