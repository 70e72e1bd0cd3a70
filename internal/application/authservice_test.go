package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

func authResult(access string, role model.Role) *model.AuthResult {
	return &model.AuthResult{
		Credential: model.Credential{Access: access, Refresh: "r-" + access},
		User:       model.StoredUser{ID: 5, Email: "op@example.com", Name: "Op", Role: role},
	}
}

func TestAuthService_LoginPersistsAdminSession(t *testing.T) {
	store := newMemSessionStore()
	api := &mockAuthAPI{result: authResult("A1", model.RoleOwner)}
	svc := application.NewAuthService(api, store, discardLogger())

	user, err := svc.Login(context.Background(), model.LoginInput{Email: "op@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, user.Role)

	cred, err := store.Credential(context.Background(), model.AdminSession)
	require.NoError(t, err)
	assert.Equal(t, "A1", cred.Access)

	current, err := svc.CurrentUser(context.Background(), model.AdminSession)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, int64(5), current.ID)
}

func TestAuthService_LoginOverwritesPreviousSession(t *testing.T) {
	store := newMemSessionStore()
	store.putRaw("token", "old")
	store.putRaw("user", `{"id":99}`)
	api := &mockAuthAPI{result: authResult("new", model.RoleAdmin)}
	svc := application.NewAuthService(api, store, discardLogger())

	_, err := svc.Login(context.Background(), model.LoginInput{Email: "op@example.com", Password: "secret"})
	require.NoError(t, err)

	cred, _ := store.Credential(context.Background(), model.AdminSession)
	assert.Equal(t, "new", cred.Access)
	user, _ := store.User(context.Background(), model.AdminSession)
	assert.Equal(t, int64(5), user.ID)
}

func TestAuthService_StorefrontLoginUsesSlugKeys(t *testing.T) {
	store := newMemSessionStore()
	api := &mockAuthAPI{result: authResult("S1", "")}
	svc := application.NewAuthService(api, store, discardLogger())

	_, err := svc.StorefrontLogin(context.Background(), "foo", model.LoginInput{Email: "c@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "foo", api.storefront)
	assert.True(t, store.has("token_foo"))
	assert.True(t, store.has("user_foo"))
	assert.False(t, store.has("token"))
}

func TestAuthService_StorefrontRejectsBadSlug(t *testing.T) {
	api := &mockAuthAPI{result: authResult("S1", "")}
	svc := application.NewAuthService(api, newMemSessionStore(), discardLogger())

	_, err := svc.StorefrontLogin(context.Background(), "a/b", model.LoginInput{Email: "c@example.com", Password: "pw"})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, api.calls)
}

func TestAuthService_RegisterValidatesBeforeCallingAPI(t *testing.T) {
	tests := []struct {
		name  string
		in    model.RegisterInput
		field string
	}{
		{"missing name", model.RegisterInput{Email: "a@b.es", Password: "12345678", PasswordConfirm: "12345678", StoreName: "T"}, "nombre"},
		{"bad email", model.RegisterInput{Name: "A", Email: "nope", Password: "12345678", PasswordConfirm: "12345678", StoreName: "T"}, "email"},
		{"short password", model.RegisterInput{Name: "A", Email: "a@b.es", Password: "123", PasswordConfirm: "123", StoreName: "T"}, "password"},
		{"mismatch", model.RegisterInput{Name: "A", Email: "a@b.es", Password: "12345678", PasswordConfirm: "87654321", StoreName: "T"}, "password_confirm"},
		{"missing store", model.RegisterInput{Name: "A", Email: "a@b.es", Password: "12345678", PasswordConfirm: "12345678"}, "nombre_tienda"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAuthAPI{result: authResult("A", model.RoleOwner)}
			svc := application.NewAuthService(api, newMemSessionStore(), discardLogger())

			_, err := svc.Register(context.Background(), tt.in)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, api.calls)
		})
	}
}

func TestAuthService_LoginFailureKeepsStoreEmpty(t *testing.T) {
	store := newMemSessionStore()
	api := &mockAuthAPI{err: driven.ErrUnauthorized}
	svc := application.NewAuthService(api, store, discardLogger())

	_, err := svc.Login(context.Background(), model.LoginInput{Email: "op@example.com", Password: "bad"})

	require.ErrorIs(t, err, driven.ErrUnauthorized)
	assert.False(t, store.has("token"))
}

func TestAuthService_LogoutClearsOnlyThatSession(t *testing.T) {
	store := seededStore()
	svc := application.NewAuthService(&mockAuthAPI{}, store, discardLogger())

	require.NoError(t, svc.Logout(context.Background(), model.StorefrontSession("foo")))

	assert.False(t, store.has("token_foo"))
	assert.False(t, store.has("user_foo"))
	assert.True(t, store.has("token"))

	user, err := svc.CurrentUser(context.Background(), model.StorefrontSession("foo"))
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthService_StorefrontSessionsListsSlugsWithCredential(t *testing.T) {
	store := newMemSessionStore()
	store.putRaw("token", "admin")
	store.putRaw("token_bar", "b")
	store.putRaw("user_baz", `{"id":3}`)
	store.putRaw("token_foo", "f")
	svc := application.NewAuthService(&mockAuthAPI{}, store, discardLogger())

	slugs, err := svc.StorefrontSessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, slugs)
}

func TestAuthService_RefreshProfileStoresUser(t *testing.T) {
	store := newMemSessionStore()
	api := &mockAuthAPI{result: authResult("A", model.RoleSeller)}
	svc := application.NewAuthService(api, store, discardLogger())

	user, err := svc.RefreshProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RoleSeller, user.Role)

	stored, _ := store.User(context.Background(), model.AdminSession)
	assert.Equal(t, model.RoleSeller, stored.Role)
}
