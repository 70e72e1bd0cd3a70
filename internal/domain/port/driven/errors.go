package driven

import "errors"

// Sentinel errors shared by the driven adapters. Adapter errors wrap one of
// these so callers can classify failures with errors.Is.
var (
	// ErrEncryptionKeyNotSet is returned by SessionStore writes when
	// TIENDAPANEL_SECRET_KEY has not been configured.
	ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set TIENDAPANEL_SECRET_KEY")

	// ErrUnauthorized means the API rejected the attached credential (HTTP 401).
	ErrUnauthorized = errors.New("session expired or invalid")

	// ErrForbidden means the credential lacks permission (HTTP 403).
	ErrForbidden = errors.New("permission denied")

	// ErrNotFound means the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("resource not found")

	// ErrUnreachable means no HTTP response was received.
	ErrUnreachable = errors.New("api unreachable")
)

// StatusError is implemented by adapter errors that carry the HTTP status of
// the API answer and a message meant for the operator.
type StatusError interface {
	error
	Status() int
	UserMessage() string
}
