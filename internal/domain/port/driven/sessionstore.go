package driven

import (
	"context"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// SessionStore defines the driven port for per-context credential and user
// persistence. It replaces ad hoc key access: the key convention lives in
// model.SessionKey and nowhere else.
type SessionStore interface {
	// SetCredential stores the credential for key, clearing any prior one
	// first. Returns ErrEncryptionKeyNotSet if the adapter has no key.
	SetCredential(ctx context.Context, key model.SessionKey, cred model.Credential) error

	// RawToken returns the stored token value for key exactly as persisted.
	// Returns ("", nil) if none exists.
	RawToken(ctx context.Context, key model.SessionKey) (string, error)

	// Credential returns the decoded credential for key, or (nil, nil).
	Credential(ctx context.Context, key model.SessionKey) (*model.Credential, error)

	// ClearCredential removes the credential for key. Missing keys are not an error.
	ClearCredential(ctx context.Context, key model.SessionKey) error

	// SetUser stores the user record for key.
	SetUser(ctx context.Context, key model.SessionKey, user model.StoredUser) error

	// User returns the user record for key, or (nil, nil).
	User(ctx context.Context, key model.SessionKey) (*model.StoredUser, error)

	// ClearUser removes the user record for key.
	ClearUser(ctx context.Context, key model.SessionKey) error

	// Entries lists the stored keys, ordered by key.
	Entries(ctx context.Context) ([]model.SessionEntry, error)
}
