package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenResolver = (*TokenRouter)(nil)

// AdminOnlyEndpoints always travel with the admin credential, whatever page
// the operator is on. Matching is by substring of the target URL.
var AdminOnlyEndpoints = []string{
	"users/profile/",
	"leads/",
	"tiendas/tiendas/config/",
	"tiendas/productos/stock-bajo/",
	"store-style/",
	"payments/methods/",
	"audit-logs/logs/",
	"backups/",
	"subscriptions/create-checkout-session/",
}

// TokenRouter chooses which stored credential to attach to an API request.
type TokenRouter struct {
	store     driven.SessionStore
	adminOnly []string
	// storefrontFirst evaluates the storefront rule before the "admin token
	// present" rule. Off by default: an admin browsing a storefront page
	// transacts as admin.
	storefrontFirst bool
	logger          *slog.Logger
}

// NewTokenRouter creates a TokenRouter over the given session store.
func NewTokenRouter(store driven.SessionStore, storefrontFirst bool, logger *slog.Logger) *TokenRouter {
	return &TokenRouter{
		store:           store,
		adminOnly:       AdminOnlyEndpoints,
		storefrontFirst: storefrontFirst,
		logger:          logger,
	}
}

// ResolveToken returns the bearer token for target given the page path in
// ctx, or "" to send the request unauthenticated.
func (r *TokenRouter) ResolveToken(ctx context.Context, target *url.URL) (string, error) {
	key, err := r.selectSession(ctx, target)
	if err != nil {
		return "", err
	}

	raw, err := r.store.RawToken(ctx, key)
	if err != nil {
		return "", fmt.Errorf("reading %s token: %w", key, err)
	}
	return accessToken(raw), nil
}

// selectSession applies the decision list in order:
//  1. admin-only endpoint, or an admin token exists -> admin
//  2. page path inside a storefront with a slug -> that storefront
//  3. otherwise -> admin
func (r *TokenRouter) selectSession(ctx context.Context, target *url.URL) (model.SessionKey, error) {
	if r.isAdminOnly(target) {
		return model.AdminSession, nil
	}

	path := PagePath(ctx)
	slug, inStorefront := "", false
	if isStorefrontPath(path) {
		slug, inStorefront = StorefrontSlug(path)
	}

	if r.storefrontFirst && inStorefront {
		return model.StorefrontSession(slug), nil
	}

	adminToken, err := r.store.RawToken(ctx, model.AdminSession)
	if err != nil {
		return model.SessionKey{}, fmt.Errorf("reading admin token: %w", err)
	}
	if adminToken != "" {
		if inStorefront {
			r.logger.Debug("admin session takes precedence on storefront page", "slug", slug, "path", path)
		}
		return model.AdminSession, nil
	}

	if inStorefront {
		return model.StorefrontSession(slug), nil
	}
	return model.AdminSession, nil
}

func (r *TokenRouter) isAdminOnly(target *url.URL) bool {
	if target == nil {
		return false
	}
	s := target.String()
	for _, endpoint := range r.adminOnly {
		if strings.Contains(s, endpoint) {
			return true
		}
	}
	return false
}

// accessToken prefers the "access" field of a JSON-encoded token and falls
// back to the raw value when it is not such an object.
func accessToken(raw string) string {
	if raw == "" {
		return ""
	}
	var decoded struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil && decoded.Access != "" {
		return decoded.Access
	}
	return raw
}
