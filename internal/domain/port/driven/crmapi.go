package driven

import (
	"context"
	"io"
	"net/url"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// TokenResolver picks the bearer token for an outgoing API request. The
// context carries the page path the request originates from.
type TokenResolver interface {
	ResolveToken(ctx context.Context, target *url.URL) (string, error)
}

// AuthAPI covers the authentication endpoints of the tenant API.
type AuthAPI interface {
	Login(ctx context.Context, in model.LoginInput) (*model.AuthResult, error)
	Register(ctx context.Context, in model.RegisterInput) (*model.AuthResult, error)
	StorefrontLogin(ctx context.Context, slug string, in model.LoginInput) (*model.AuthResult, error)
	StorefrontRegister(ctx context.Context, slug string, in model.RegisterInput) (*model.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	Profile(ctx context.Context) (*model.StoredUser, error)
}

// LeadAPI covers leads, interactions and pipeline metrics.
type LeadAPI interface {
	ListLeads(ctx context.Context) ([]model.Lead, error)
	GetLead(ctx context.Context, id int64) (*model.Lead, error)
	CreateLead(ctx context.Context, in model.LeadInput) (*model.Lead, error)
	UpdateLead(ctx context.Context, id int64, in model.LeadInput) (*model.Lead, error)
	// UpdateLeadState moves a lead; a non-empty note is recorded by the API
	// as an interaction.
	UpdateLeadState(ctx context.Context, id int64, to model.LeadState, note string) (*model.Lead, error)
	ListInteractions(ctx context.Context, leadID int64) ([]model.Interaction, error)
	AddInteraction(ctx context.Context, leadID int64, in model.Interaction) (*model.Interaction, error)
	Metrics(ctx context.Context) (*model.PipelineMetrics, error)
}

// BackupAPI covers tenant backups.
type BackupAPI interface {
	ListBackups(ctx context.Context) ([]model.Backup, error)
	CreateBackup(ctx context.Context) (*model.Backup, error)
	DownloadBackup(ctx context.Context, id int64, w io.Writer) (int64, error)
	DeleteBackup(ctx context.Context, id int64) error
	RestoreBackup(ctx context.Context, id int64) (*model.RestoreResult, error)
	RestoreFromFile(ctx context.Context, filename string, archive io.Reader) (*model.RestoreResult, error)
}

// CommerceAPI covers orders, stock, payment methods and the audit log.
type CommerceAPI interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListMyOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	LowStock(ctx context.Context) ([]model.StockAlert, error)
	ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error)
	ListAuditLog(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error)
	ExportAuditLog(ctx context.Context, filter model.AuditFilter, w io.Writer) (int64, error)
}

// PlanCatalog serves the public subscription plans.
type PlanCatalog interface {
	ListPlans(ctx context.Context) ([]model.Plan, error)
	CreateCheckoutSession(ctx context.Context, planID int64) (string, error)
}

// StorefrontAPI covers the storefront configuration, theme and catalog.
type StorefrontAPI interface {
	StoreConfig(ctx context.Context) (*model.StoreConfig, error)
	UpdateStoreConfig(ctx context.Context, cfg model.StoreConfig) (*model.StoreConfig, error)
	StoreStyle(ctx context.Context) (*model.StoreStyle, error)
	UpdateStoreStyle(ctx context.Context, style model.StoreStyle) (*model.StoreStyle, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}
