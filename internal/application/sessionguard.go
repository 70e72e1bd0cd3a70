package application

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// SessionGuard reacts to authentication failures: it clears the credential
// implicated by the page the operator was on and names the login page to go to.
type SessionGuard struct {
	store  driven.SessionStore
	logger *slog.Logger
}

// NewSessionGuard creates a SessionGuard over the given session store.
func NewSessionGuard(store driven.SessionStore, logger *slog.Logger) *SessionGuard {
	return &SessionGuard{store: store, logger: logger}
}

// HandleUnauthorized is called after the API answered 401 for a request made
// from pagePath. It returns the login redirect, or handled=false when
// pagePath is a public route and the failure should propagate unchanged.
func (g *SessionGuard) HandleUnauthorized(ctx context.Context, pagePath string) (redirect string, handled bool) {
	if IsPublicRoute(pagePath) {
		return "", false
	}

	key := model.AdminSession
	login := "/login"
	if isStorefrontPath(pagePath) {
		if slug, ok := StorefrontSlug(pagePath); ok {
			key = model.StorefrontSession(slug)
			login = "/" + StorefrontMarker + "/" + url.PathEscape(slug) + "/login"
		}
	}

	if err := g.store.ClearCredential(ctx, key); err != nil {
		g.logger.Error("failed to clear credential after 401", "session", key.String(), "error", err)
	}
	if err := g.store.ClearUser(ctx, key); err != nil {
		g.logger.Error("failed to clear user after 401", "session", key.String(), "error", err)
	}

	g.logger.Info("session invalidated", "session", key.String(), "page", pagePath)
	return login + "?next=" + url.QueryEscape(pagePath), true
}
