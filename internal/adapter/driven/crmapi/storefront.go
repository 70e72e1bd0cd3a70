package crmapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// StoreConfig returns the storefront configuration.
func (c *Client) StoreConfig(ctx context.Context) (*model.StoreConfig, error) {
	var cfg model.StoreConfig
	if err := c.doJSON(ctx, http.MethodGet, "tiendas/tiendas/config/", nil, nil, &cfg); err != nil {
		return nil, fmt.Errorf("getting store config: %w", err)
	}
	return &cfg, nil
}

// UpdateStoreConfig saves the storefront configuration.
func (c *Client) UpdateStoreConfig(ctx context.Context, cfg model.StoreConfig) (*model.StoreConfig, error) {
	var saved model.StoreConfig
	if err := c.doJSON(ctx, http.MethodPatch, "tiendas/tiendas/config/", nil, cfg, &saved); err != nil {
		return nil, fmt.Errorf("updating store config: %w", err)
	}
	return &saved, nil
}

// StoreStyle returns the storefront theme.
func (c *Client) StoreStyle(ctx context.Context) (*model.StoreStyle, error) {
	var style model.StoreStyle
	if err := c.doJSON(ctx, http.MethodGet, "store-style/", nil, nil, &style); err != nil {
		return nil, fmt.Errorf("getting store style: %w", err)
	}
	return &style, nil
}

// UpdateStoreStyle saves the storefront theme.
func (c *Client) UpdateStoreStyle(ctx context.Context, style model.StoreStyle) (*model.StoreStyle, error) {
	var saved model.StoreStyle
	if err := c.doJSON(ctx, http.MethodPatch, "store-style/", nil, style, &saved); err != nil {
		return nil, fmt.Errorf("updating store style: %w", err)
	}
	return &saved, nil
}

// ListProducts returns the catalog products matching filter.
func (c *Client) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	q := url.Values{}
	if filter.CategoryID > 0 {
		q.Set("categoria", strconv.FormatInt(filter.CategoryID, 10))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	products, err := getList[model.Product](ctx, c, "tiendas/productos/", q)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// ListCategories returns the catalog categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := getList[model.Category](ctx, c, "tiendas/categorias/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}
