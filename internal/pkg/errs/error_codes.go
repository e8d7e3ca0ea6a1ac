/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific request or relay faults both inside the server and
in HTTP responses to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1001
)

// 2xxx: Presence and Relay Errors
const (
	// ErrDuplicateIdentity indicates a join for a connection identity that is
	// already present in the roster. One roster entry exists per live
	// connection, so this is a logic fault, checked defensively.
	ErrDuplicateIdentity = 2001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
