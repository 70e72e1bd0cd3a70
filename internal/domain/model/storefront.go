package model

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// StoreConfig is the public storefront configuration of the tenant.
type StoreConfig struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"nombre"`
	Slug         string `json:"slug"`
	Description  string `json:"descripcion"`
	ContactEmail string `json:"email_contacto"`
	Phone        string `json:"telefono"`
	Address      string `json:"direccion"`
	Published    bool   `json:"publicada"`
}

// Validate checks the configuration before it is sent to the API.
func (c StoreConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "nombre", Message: "el nombre de la tienda es obligatorio"}
	}
	if !slugPattern.MatchString(c.Slug) {
		return &ValidationError{Field: "slug", Message: "el slug solo admite minúsculas, números y guiones"}
	}
	if c.ContactEmail != "" && !strings.Contains(c.ContactEmail, "@") {
		return &ValidationError{Field: "email_contacto", Message: "el email de contacto no es válido"}
	}
	return nil
}

// StoreLayout is one of the storefront page templates.
type StoreLayout string

const (
	StoreLayoutClassic StoreLayout = "clasica"
	StoreLayoutGrid    StoreLayout = "grilla"
	StoreLayoutMinimal StoreLayout = "minimal"
)

// StoreLayouts lists every storefront template.
var StoreLayouts = []StoreLayout{StoreLayoutClassic, StoreLayoutGrid, StoreLayoutMinimal}

// Valid reports whether l is a known template.
func (l StoreLayout) Valid() bool {
	for _, known := range StoreLayouts {
		if l == known {
			return true
		}
	}
	return false
}

// StoreStyle is the storefront theme.
type StoreStyle struct {
	PrimaryColor    string      `json:"color_primario"`
	SecondaryColor  string      `json:"color_secundario"`
	BackgroundColor string      `json:"color_fondo"`
	Font            string      `json:"fuente"`
	Layout          StoreLayout `json:"plantilla"`
}

// Validate checks the theme before it is sent to the API. Colors are
// #rrggbb.
func (s StoreStyle) Validate() error {
	colors := []struct{ field, value string }{
		{"color_primario", s.PrimaryColor},
		{"color_secundario", s.SecondaryColor},
		{"color_fondo", s.BackgroundColor},
	}
	for _, c := range colors {
		if !hexColorPattern.MatchString(c.value) {
			return &ValidationError{Field: c.field, Message: fmt.Sprintf("color inválido %q", c.value)}
		}
	}
	if !s.Layout.Valid() {
		return &ValidationError{Field: "plantilla", Message: fmt.Sprintf("plantilla desconocida %q", s.Layout)}
	}
	return nil
}

// Category groups storefront products.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Description  string `json:"descripcion"`
	ProductCount int    `json:"total_productos"`
}

// Product is a storefront catalog item.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"nombre"`
	SKU        string `json:"sku"`
	Price      Amount `json:"precio"`
	Stock      int    `json:"stock"`
	MinStock   int    `json:"stock_minimo"`
	CategoryID int64  `json:"categoria"`
	Active     bool   `json:"activo"`
}

// LowStock reports whether the stock is under the product's minimum.
func (p Product) LowStock() bool {
	return p.Stock < p.MinStock
}

// ProductFilter narrows a catalog query.
type ProductFilter struct {
	CategoryID int64
	Search     string
}
