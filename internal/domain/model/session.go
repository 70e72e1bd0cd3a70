package model

import (
	"strings"
	"time"
)

// SessionKey identifies one credential context: the tenant admin, or the
// customer session of a single storefront.
type SessionKey struct {
	slug string
}

// AdminSession is the process-wide admin/tenant-owner context.
var AdminSession = SessionKey{}

// StorefrontSession returns the context for the storefront with the given slug.
// An empty slug yields AdminSession.
func StorefrontSession(slug string) SessionKey {
	return SessionKey{slug: strings.TrimSpace(slug)}
}

// Slug returns the storefront slug, or "" for the admin context.
func (k SessionKey) Slug() string { return k.slug }

// IsAdmin reports whether k is the admin context.
func (k SessionKey) IsAdmin() bool { return k.slug == "" }

// TokenKey is the storage key for the credential: "token" or "token_<slug>".
func (k SessionKey) TokenKey() string {
	if k.IsAdmin() {
		return "token"
	}
	return "token_" + k.slug
}

// UserKey is the storage key for the user record: "user" or "user_<slug>".
func (k SessionKey) UserKey() string {
	if k.IsAdmin() {
		return "user"
	}
	return "user_" + k.slug
}

// String implements fmt.Stringer for log output.
func (k SessionKey) String() string {
	if k.IsAdmin() {
		return "admin"
	}
	return "storefront:" + k.slug
}

// SessionKeyFromStorageKey reverses TokenKey and UserKey. ok is false for keys
// that follow neither convention.
func SessionKeyFromStorageKey(key string) (SessionKey, bool) {
	switch {
	case key == "token" || key == "user":
		return AdminSession, true
	case strings.HasPrefix(key, "token_"):
		return StorefrontSession(strings.TrimPrefix(key, "token_")), true
	case strings.HasPrefix(key, "user_"):
		return StorefrontSession(strings.TrimPrefix(key, "user_")), true
	default:
		return SessionKey{}, false
	}
}

// Credential is a bearer credential stored for one session context.
type Credential struct {
	Access     string `json:"access"`
	Refresh    string `json:"refresh,omitempty"`
	IdentityID int64  `json:"id,omitempty"`
	Slug       string `json:"slug,omitempty"`
}

// StoredUser is the user record kept next to a credential.
type StoredUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"nombre"`
	Role  Role   `json:"rol"`
	Slug  string `json:"slug,omitempty"`
}

// SessionEntry is one raw row of the session store, used for listing.
type SessionEntry struct {
	Key       string
	UpdatedAt time.Time
}
