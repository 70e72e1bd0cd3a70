package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

func TestSessionKey_StorageKeys(t *testing.T) {
	assert.Equal(t, "token", model.AdminSession.TokenKey())
	assert.Equal(t, "user", model.AdminSession.UserKey())

	foo := model.StorefrontSession("foo")
	assert.Equal(t, "token_foo", foo.TokenKey())
	assert.Equal(t, "user_foo", foo.UserKey())
	assert.False(t, foo.IsAdmin())
	assert.Equal(t, "foo", foo.Slug())

	assert.True(t, model.StorefrontSession("  ").IsAdmin())
}

func TestSessionKeyFromStorageKey(t *testing.T) {
	key, ok := model.SessionKeyFromStorageKey("user_bar")
	assert.True(t, ok)
	assert.Equal(t, model.StorefrontSession("bar"), key)

	key, ok = model.SessionKeyFromStorageKey("token")
	assert.True(t, ok)
	assert.True(t, key.IsAdmin())

	_, ok = model.SessionKeyFromStorageKey("theme")
	assert.False(t, ok)
}
