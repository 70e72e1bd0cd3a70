package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// AuthService logs operators and storefront customers in and out and keeps
// the session store in step.
type AuthService struct {
	api    driven.AuthAPI
	store  driven.SessionStore
	logger *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(api driven.AuthAPI, store driven.SessionStore, logger *slog.Logger) *AuthService {
	return &AuthService{api: api, store: store, logger: logger}
}

// Login authenticates a tenant admin and persists the admin session.
func (s *AuthService) Login(ctx context.Context, in model.LoginInput) (*model.StoredUser, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.api.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, model.AdminSession, res)
}

// Register creates a tenant owner account and persists the admin session.
func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (*model.StoredUser, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.StoreName) == "" {
		return nil, &model.ValidationError{Field: "nombre_tienda", Message: "el nombre de la tienda es obligatorio"}
	}
	res, err := s.api.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, model.AdminSession, res)
}

// StorefrontLogin authenticates a storefront customer and persists the
// session under the storefront's slug.
func (s *AuthService) StorefrontLogin(ctx context.Context, slug string, in model.LoginInput) (*model.StoredUser, error) {
	if err := validSlug(slug); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.api.StorefrontLogin(ctx, slug, in)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, model.StorefrontSession(slug), res)
}

// StorefrontRegister creates a storefront customer and persists the session.
func (s *AuthService) StorefrontRegister(ctx context.Context, slug string, in model.RegisterInput) (*model.StoredUser, error) {
	if err := validSlug(slug); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.api.StorefrontRegister(ctx, slug, in)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, model.StorefrontSession(slug), res)
}

// RequestPasswordReset forwards a reset request for email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return &model.ValidationError{Field: "email", Message: "el email es obligatorio"}
	}
	return s.api.RequestPasswordReset(ctx, email)
}

// Logout clears the credential and user record of one session context.
func (s *AuthService) Logout(ctx context.Context, key model.SessionKey) error {
	credErr := s.store.ClearCredential(ctx, key)
	userErr := s.store.ClearUser(ctx, key)
	if err := errors.Join(credErr, userErr); err != nil {
		return fmt.Errorf("logout %s: %w", key, err)
	}
	s.logger.Info("logged out", "session", key.String())
	return nil
}

// CurrentUser returns the stored user of a session context, or nil when
// nobody is logged in there.
func (s *AuthService) CurrentUser(ctx context.Context, key model.SessionKey) (*model.StoredUser, error) {
	cred, err := s.store.Credential(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s credential: %w", key, err)
	}
	if cred == nil {
		return nil, nil
	}
	return s.store.User(ctx, key)
}

// StorefrontSessions returns the slugs of the storefronts with a stored
// customer credential, in storage key order.
func (s *AuthService) StorefrontSessions(ctx context.Context) ([]string, error) {
	entries, err := s.store.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	var slugs []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, "token_") {
			continue
		}
		if key, ok := model.SessionKeyFromStorageKey(e.Key); ok && !key.IsAdmin() {
			slugs = append(slugs, key.Slug())
		}
	}
	return slugs, nil
}

// RefreshProfile re-reads the admin profile from the API and stores it.
func (s *AuthService) RefreshProfile(ctx context.Context) (*model.StoredUser, error) {
	user, err := s.api.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUser(ctx, model.AdminSession, *user); err != nil {
		return nil, fmt.Errorf("storing profile: %w", err)
	}
	return user, nil
}

// persist clears whatever the key held, then writes the new credential and user.
func (s *AuthService) persist(ctx context.Context, key model.SessionKey, res *model.AuthResult) (*model.StoredUser, error) {
	if err := s.store.ClearUser(ctx, key); err != nil {
		return nil, fmt.Errorf("clearing %s user: %w", key, err)
	}
	if err := s.store.SetCredential(ctx, key, res.Credential); err != nil {
		return nil, fmt.Errorf("storing %s credential: %w", key, err)
	}
	if err := s.store.SetUser(ctx, key, res.User); err != nil {
		return nil, fmt.Errorf("storing %s user: %w", key, err)
	}

	if _, err := model.ParseRole(string(res.User.Role)); err != nil && key.IsAdmin() {
		s.logger.Warn("logged-in user has an unknown role", "role", res.User.Role, "user_id", res.User.ID)
	}

	s.logger.Info("logged in", "session", key.String(), "user_id", res.User.ID)
	user := res.User
	return &user, nil
}

func validSlug(slug string) error {
	if slug == "" || strings.ContainsAny(slug, "/?#") {
		return &model.ValidationError{Field: "slug", Message: "tienda inválida"}
	}
	return nil
}
