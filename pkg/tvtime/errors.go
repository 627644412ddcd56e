package tvtime

import (
	"errors"
	"fmt"
)

// Predefined errors for the authentication flow. Both are fatal for the
// owning account's processing path: no watch call can be issued without
// a valid session.
var (
	// ErrTokenUnavailable is returned when the transient JWT never
	// appears in the web client's local storage.
	ErrTokenUnavailable = errors.New("tvtime: auth token unavailable")

	// ErrLoginFailed is returned when the login exchange fails: the
	// endpoint is unreachable, the response is not JSON, or the token
	// pair is missing from the response.
	ErrLoginFailed = errors.New("tvtime: login failed")
)

// ErrInvalidResponse is returned when a watch call's response fails to
// parse as the expected JSON envelope even after the one re-auth retry.
var ErrInvalidResponse = errors.New("tvtime: invalid response envelope")

// APIError represents a response that parsed correctly but reports a
// failed operation. It is never retried: only an unparsable envelope is
// treated as a credential-expiry symptom.
type APIError struct {
	Op     string // operation name, e.g. "watch_episode"
	Status string // status reported by the service
}

// Error returns the error message.
func (e *APIError) Error() string {
	return fmt.Sprintf("tvtime: %s failed with status %q", e.Op, e.Status)
}
