package crmapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceLabel(t *testing.T) {
	tests := map[string]string{
		"/api/leads/":                        "api/leads",
		"/api/leads/42/actualizar_estado/":   "api/leads/{id}/actualizar_estado",
		"/api/v1/backups/7/download/":        "v1/backups/{id}/download",
		"/api/tiendas/productos/stock-bajo/": "api/tiendas/productos/stock-bajo",
		"/api/pedidos-publicos/12/estado/":   "api/pedidos-publicos/{id}/estado",
		"/":                                  "",
	}

	for path, want := range tests {
		assert.Equal(t, want, resourceLabel(path), path)
	}
}
