/*
Package errs provides custom error types and application-level error code constants.

This file maps each error code to its CustomError template, used to standardize
HTTP responses and internal error reporting.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Presence and Relay Errors
	ErrDuplicateIdentity: {Code: ErrDuplicateIdentity, Message: "Identity %q is already joined."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
