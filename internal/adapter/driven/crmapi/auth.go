package crmapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// tokenResponse is the body returned by every login and register endpoint.
type tokenResponse struct {
	Access  string           `json:"access"`
	Refresh string           `json:"refresh"`
	User    model.StoredUser `json:"user"`
}

func (t tokenResponse) result(slug string) (*model.AuthResult, error) {
	if t.Access == "" {
		return nil, fmt.Errorf("login response carries no access token")
	}
	user := t.User
	user.Slug = slug
	return &model.AuthResult{
		Credential: model.Credential{
			Access:     t.Access,
			Refresh:    t.Refresh,
			IdentityID: user.ID,
			Slug:       slug,
		},
		User: user,
	}, nil
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Slug     string `json:"tienda_slug,omitempty"`
}

type registerBody struct {
	Name            string `json:"nombre"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password2"`
	StoreName       string `json:"nombre_tienda,omitempty"`
	Slug            string `json:"tienda_slug,omitempty"`
}

func newRegisterBody(in model.RegisterInput, slug string) registerBody {
	return registerBody{
		Name:            in.Name,
		Email:           in.Email,
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
		StoreName:       in.StoreName,
		Slug:            slug,
	}
}

// Login authenticates a tenant admin.
func (c *Client) Login(ctx context.Context, in model.LoginInput) (*model.AuthResult, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "login/", nil, loginBody{Email: in.Email, Password: in.Password}, &resp); err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	return resp.result("")
}

// Register creates a tenant owner account and logs it in.
func (c *Client) Register(ctx context.Context, in model.RegisterInput) (*model.AuthResult, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "register/", nil, newRegisterBody(in, ""), &resp); err != nil {
		return nil, fmt.Errorf("admin register: %w", err)
	}
	return resp.result("")
}

// StorefrontLogin authenticates a customer of the storefront identified by slug.
func (c *Client) StorefrontLogin(ctx context.Context, slug string, in model.LoginInput) (*model.AuthResult, error) {
	body := loginBody{Email: in.Email, Password: in.Password, Slug: slug}
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "users-public/login/", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("storefront %s login: %w", slug, err)
	}
	return resp.result(slug)
}

// StorefrontRegister creates a customer account on the storefront identified by slug.
func (c *Client) StorefrontRegister(ctx context.Context, slug string, in model.RegisterInput) (*model.AuthResult, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "users-public/register/", nil, newRegisterBody(in, slug), &resp); err != nil {
		return nil, fmt.Errorf("storefront %s register: %w", slug, err)
	}
	return resp.result(slug)
}

// RequestPasswordReset asks the API to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := c.doJSON(ctx, http.MethodPost, "password-reset/", nil, body, nil); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	return nil
}

// Profile returns the profile of the admin session.
func (c *Client) Profile(ctx context.Context) (*model.StoredUser, error) {
	var user model.StoredUser
	if err := c.doJSON(ctx, http.MethodGet, "users/profile/", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &user, nil
}
