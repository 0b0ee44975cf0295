package fleetspeed

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrMissingCredentials indicates a required client secret is absent.
	// Raised before any network activity.
	ErrMissingCredentials = errors.New("missing client credentials: CLIENT_ID and CLIENT_SECRET are required")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// TokenError describes a failed token exchange: a transport failure, a
// non-success HTTP status, or a response body that does not parse as the
// expected JSON shape. Body carries the raw response body when one was
// received — token-endpoint failures are otherwise opaque to operators.
type TokenError struct {
	Status int    // HTTP status, 0 when the request never completed
	Body   string // raw response body, "" when none was read
	Err    error  // underlying cause, nil for status/shape failures
}

func (e *TokenError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("token exchange: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("token exchange: HTTP %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("token exchange: HTTP %d", e.Status)
	}
}

func (e *TokenError) Unwrap() error { return e.Err }

// ConnectError describes a failure to establish the authenticated streaming
// connection. An unauthorized or expired token surfaces here through the
// server's status code; the stream layer does not inspect token shape.
type ConnectError struct {
	Status int    // HTTP status, 0 when no response was received
	Body   string // response body for non-success statuses, "" otherwise
	Err    error
}

func (e *ConnectError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("open stream: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("open stream: HTTP %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("open stream: HTTP %d", e.Status)
	}
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ReadError describes a mid-stream transport failure. It is surfaced as one
// error item in the record sequence rather than aborting silently; whether
// the stream remains usable afterwards is governed by ReadErrorPolicy.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read stream: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }
