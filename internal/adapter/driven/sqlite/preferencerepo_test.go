package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

func TestPreferenceRepo_GetUnset(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))

	val, err := repo.Get(context.Background(), "admin", model.PrefLeadPageSize)
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestPreferenceRepo_SetOverwrites(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.Preference{Scope: "admin", Key: model.PrefLeadPageSize, Value: "25"}))
	require.NoError(t, repo.Set(ctx, model.Preference{Scope: "admin", Key: model.PrefLeadPageSize, Value: "50"}))

	val, err := repo.Get(ctx, "admin", model.PrefLeadPageSize)
	require.NoError(t, err)
	assert.Equal(t, "50", val)
}

func TestPreferenceRepo_ScopesAreIndependent(t *testing.T) {
	repo := NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, model.Preference{Scope: "admin", Key: model.PrefLeadStateFilter, Value: "ganado"}))
	require.NoError(t, repo.Set(ctx, model.Preference{Scope: "storefront:foo", Key: model.PrefLeadStateFilter, Value: "nuevo"}))

	val, err := repo.Get(ctx, "admin", model.PrefLeadStateFilter)
	require.NoError(t, err)
	assert.Equal(t, "ganado", val)
}
