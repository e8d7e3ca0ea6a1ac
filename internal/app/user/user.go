/*
Package user contains the core data structure describing a chat participant.

A User is created when a connection sends its join event and lives exactly as
long as that connection; the ID is the connection's own identity.
*/
package user

// AnonymousName is the display name assigned when a join request carries no name.
const AnonymousName = "Anonymous"

// User represents one joined chat participant.
// Fields use JSON tags for serialization in WebSocket events.
type User struct {
	// ID is the connection identity, stable for the lifetime of the connection.
	ID string `json:"id"`

	// Name is the display name shown in the roster. Mutable via rename.
	Name string `json:"name"`

	// Avatar is the avatar image URI, assigned once at join time.
	Avatar string `json:"avatar,omitempty"`
}
