package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

func TestStorefrontService_SaveConfigNormalizes(t *testing.T) {
	api := &mockStorefrontAPI{}
	svc := application.NewStorefrontService(api, discardLogger())

	saved, err := svc.SaveConfig(context.Background(), model.StoreConfig{Name: "  Mi Tienda ", Slug: " Mi-Tienda ", Published: true})

	require.NoError(t, err)
	assert.Equal(t, "Mi Tienda", saved.Name)
	assert.Equal(t, "mi-tienda", saved.Slug)
	assert.Equal(t, 1, api.saves)
}

func TestStorefrontService_InvalidInputNeverReachesAPI(t *testing.T) {
	api := &mockStorefrontAPI{}
	svc := application.NewStorefrontService(api, discardLogger())
	ctx := context.Background()

	_, err := svc.SaveConfig(ctx, model.StoreConfig{Name: "Tienda", Slug: "con espacios"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	_, err = svc.SaveStyle(ctx, model.StoreStyle{
		PrimaryColor: "#112233", SecondaryColor: "rojo", BackgroundColor: "#ffffff",
		Layout: model.StoreLayoutGrid,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "color_secundario", verr.Field)

	_, err = svc.SaveStyle(ctx, model.StoreStyle{
		PrimaryColor: "#112233", SecondaryColor: "#445566", BackgroundColor: "#ffffff",
		Layout: "revista",
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plantilla", verr.Field)

	assert.Zero(t, api.saves)
}

func TestStorefrontService_SaveStyleLowercasesColors(t *testing.T) {
	api := &mockStorefrontAPI{}
	svc := application.NewStorefrontService(api, discardLogger())

	saved, err := svc.SaveStyle(context.Background(), model.StoreStyle{
		PrimaryColor: " #AABBCC", SecondaryColor: "#445566", BackgroundColor: "#FFFFFF",
		Layout: model.StoreLayoutMinimal,
	})

	require.NoError(t, err)
	assert.Equal(t, "#aabbcc", saved.PrimaryColor)
	assert.Equal(t, "#ffffff", api.style.BackgroundColor)
}

func TestStorefrontService_Catalog(t *testing.T) {
	api := &mockStorefrontAPI{
		categories: []model.Category{{ID: 3, Name: "Remeras"}},
		products: []model.Product{
			{ID: 1, Name: "Remera lisa", Stock: 1, MinStock: 4, CategoryID: 3},
			{ID: 2, Name: "Remera estampada", Stock: 9, MinStock: 4, CategoryID: 3},
		},
	}
	svc := application.NewStorefrontService(api, discardLogger())

	catalog, err := svc.Catalog(context.Background(), model.ProductFilter{CategoryID: 3, Search: "  remera "})

	require.NoError(t, err)
	assert.Len(t, catalog.Products, 2)
	assert.Equal(t, 1, catalog.LowStock)
	assert.Equal(t, "remera", api.filter.Search)
}

func TestStorefrontService_CatalogUnknownCategory(t *testing.T) {
	api := &mockStorefrontAPI{categories: []model.Category{{ID: 3}}}
	svc := application.NewStorefrontService(api, discardLogger())

	_, err := svc.Catalog(context.Background(), model.ProductFilter{CategoryID: 99})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "categoria", verr.Field)
}

func TestStorefrontService_SettingsPropagatesErrors(t *testing.T) {
	api := &mockStorefrontAPI{err: errors.New("boom")}
	svc := application.NewStorefrontService(api, discardLogger())

	_, _, err := svc.Settings(context.Background())

	assert.Error(t, err)
}
