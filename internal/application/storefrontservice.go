package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// Catalog is one filtered view of the storefront products.
type Catalog struct {
	Categories []model.Category
	Products   []model.Product
	// LowStock counts the listed products under their minimum stock.
	LowStock int
}

// StorefrontService manages the storefront configuration, its theme and the
// product catalog.
type StorefrontService struct {
	api    driven.StorefrontAPI
	logger *slog.Logger
}

// NewStorefrontService creates a StorefrontService.
func NewStorefrontService(api driven.StorefrontAPI, logger *slog.Logger) *StorefrontService {
	return &StorefrontService{api: api, logger: logger}
}

// Settings loads the configuration and the theme.
func (s *StorefrontService) Settings(ctx context.Context) (*model.StoreConfig, *model.StoreStyle, error) {
	cfg, err := s.api.StoreConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	style, err := s.api.StoreStyle(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, style, nil
}

// SaveConfig normalizes and validates cfg, then saves it.
func (s *StorefrontService) SaveConfig(ctx context.Context, cfg model.StoreConfig) (*model.StoreConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Slug = strings.ToLower(strings.TrimSpace(cfg.Slug))
	cfg.ContactEmail = strings.TrimSpace(cfg.ContactEmail)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.api.UpdateStoreConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Info("store config saved", "slug", saved.Slug, "published", saved.Published)
	return saved, nil
}

// SaveStyle normalizes and validates style, then saves it.
func (s *StorefrontService) SaveStyle(ctx context.Context, style model.StoreStyle) (*model.StoreStyle, error) {
	style.PrimaryColor = strings.ToLower(strings.TrimSpace(style.PrimaryColor))
	style.SecondaryColor = strings.ToLower(strings.TrimSpace(style.SecondaryColor))
	style.BackgroundColor = strings.ToLower(strings.TrimSpace(style.BackgroundColor))
	if err := style.Validate(); err != nil {
		return nil, err
	}
	return s.api.UpdateStoreStyle(ctx, style)
}

// Catalog lists the categories and the products matching filter.
func (s *StorefrontService) Catalog(ctx context.Context, filter model.ProductFilter) (*Catalog, error) {
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if filter.CategoryID > 0 && !hasCategory(categories, filter.CategoryID) {
		return nil, &model.ValidationError{Field: "categoria", Message: fmt.Sprintf("categoría %d desconocida", filter.CategoryID)}
	}

	filter.Search = strings.TrimSpace(filter.Search)
	products, err := s.api.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	catalog := &Catalog{Categories: categories, Products: products}
	for _, p := range products {
		if p.LowStock() {
			catalog.LowStock++
		}
	}
	return catalog, nil
}

func hasCategory(categories []model.Category, id int64) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
