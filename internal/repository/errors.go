// Package repository defines the error taxonomy that is reused across
// all repositories and by the handlers above them. Store driver errors
// are caught at the repository boundary and rewrapped into one of these
// sentinel values before crossing into caller-facing code; raw driver
// errors never leak to handlers. Handlers translate the sentinels into
// HTTP responses (404, 401, 403, 409, 400, 502, 500 respectively).
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an actor, edge or token does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned for a missing, inactive or invalid token
// or a failed credential check.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when a valid token lacks the required
// capability, or when the visibility gate denies access.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned for a duplicate handle or a duplicate
// relationship edge.
var ErrConflict = errors.New("conflict")

// ErrInvalidArgument is returned for self-referential edges
// (an actor following or blocking itself).
var ErrInvalidArgument = errors.New("invalid argument")

// ErrRemoteFetch is returned when an outbound federation request times
// out, cannot reach the host, or yields a malformed document.
var ErrRemoteFetch = errors.New("remote fetch failed")

// ErrStore wraps store-layer failures not classified above.
var ErrStore = errors.New("store failure")

// storeErr wraps a raw driver error into ErrStore so that callers can
// test with errors.Is without ever seeing driver types.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStore, err)
}

// isDuplicate reports whether a MySQL error is a duplicate-key
// violation (error 1062). Uniqueness is enforced by the store itself
// rather than check-then-insert so that concurrent inserts cannot
// create duplicate rows.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
