package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protectCSRF(withPagePath(fn)))
	}

	// Public pages.
	handle("GET /{$}", h.Home)
	handle("GET /login", h.LoginPage)
	handle("POST /login", h.Login)
	handle("GET /register", h.RegisterPage)
	handle("POST /register", h.Register)
	handle("POST /logout", h.Logout)
	handle("POST /recuperar", h.RequestPasswordReset)
	handle("GET /precios", h.Pricing)
	handle("POST /precios/{id}/checkout", h.Checkout)

	// Lead pipeline.
	handle("GET /leads", h.Leads)
	handle("POST /leads", h.CreateLead)
	handle("GET /leads/{id}", h.LeadDetail)
	handle("POST /leads/{id}", h.UpdateLead)
	handle("POST /leads/{id}/estado", h.ChangeLeadState)
	handle("POST /leads/{id}/interacciones", h.AddInteraction)
	handle("POST /leads/{id}/contacto/{channel}", h.Contact)

	// Backups.
	handle("GET /backups", h.Backups)
	handle("POST /backups", h.CreateBackup)
	handle("GET /backups/{id}/download", h.DownloadBackup)
	handle("POST /backups/{id}/delete", h.DeleteBackup)
	handle("POST /backups/{id}/restore", h.RestoreBackup)
	handle("POST /backups/restore-file", h.RestoreFromFile)

	// Storefront management.
	handle("GET /tienda", h.Catalog)
	handle("GET /configuracion", h.Settings)
	handle("POST /configuracion/tienda", h.SaveStoreConfig)
	handle("POST /configuracion/estilo", h.SaveStoreStyle)

	// Reports.
	handle("GET /reportes", h.SalesReport)
	handle("GET /reportes/ventas.csv", h.ExportSales)

	// Store operations.
	handle("GET /orders", h.Orders)
	handle("POST /orders/{id}/estado", h.UpdateOrderStatus)
	handle("GET /pagos", h.Payments)
	handle("GET /audit", h.Audit)
	handle("GET /audit/export", h.ExportAudit)

	// Storefront customer pages.
	handle("GET /tienda-publica/{slug}/login", h.StorefrontLoginPage)
	handle("POST /tienda-publica/{slug}/login", h.StorefrontLogin)
	handle("GET /tienda-publica/{slug}/registro", h.StorefrontRegisterPage)
	handle("POST /tienda-publica/{slug}/registro", h.StorefrontRegister)
	handle("POST /tienda-publica/{slug}/logout", h.StorefrontLogout)
	handle("GET /tienda-publica/{slug}/pedidos", h.StorefrontOrders)
}
