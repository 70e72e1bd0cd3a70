package application_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSessionStore is an in-memory driven.SessionStore keyed exactly like the
// SQLite adapter.
type memSessionStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{values: map[string]string{}}
}

// putRaw stores a raw token value the way an older client might have.
func (m *memSessionStore) putRaw(storageKey, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[storageKey] = value
}

func (m *memSessionStore) has(storageKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[storageKey]
	return ok
}

func (m *memSessionStore) SetCredential(_ context.Context, key model.SessionKey, cred model.Credential) error {
	if m.setErr != nil {
		return m.setErr
	}
	b, _ := json.Marshal(cred)
	m.putRaw(key.TokenKey(), string(b))
	return nil
}

func (m *memSessionStore) RawToken(_ context.Context, key model.SessionKey) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key.TokenKey()], nil
}

func (m *memSessionStore) Credential(ctx context.Context, key model.SessionKey) (*model.Credential, error) {
	raw, _ := m.RawToken(ctx, key)
	if raw == "" {
		return nil, nil
	}
	var cred model.Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return &model.Credential{Access: raw}, nil
	}
	return &cred, nil
}

func (m *memSessionStore) ClearCredential(_ context.Context, key model.SessionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key.TokenKey())
	return nil
}

func (m *memSessionStore) SetUser(_ context.Context, key model.SessionKey, user model.StoredUser) error {
	if m.setErr != nil {
		return m.setErr
	}
	b, _ := json.Marshal(user)
	m.putRaw(key.UserKey(), string(b))
	return nil
}

func (m *memSessionStore) User(_ context.Context, key model.SessionKey) (*model.StoredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key.UserKey()]
	if !ok {
		return nil, nil
	}
	var user model.StoredUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

func (m *memSessionStore) ClearUser(_ context.Context, key model.SessionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key.UserKey())
	return nil
}

func (m *memSessionStore) Entries(_ context.Context) ([]model.SessionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []model.SessionEntry
	for k := range m.values {
		entries = append(entries, model.SessionEntry{Key: k})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// mockLeadAPI implements driven.LeadAPI with function fields; nil functions
// fall back to zero values.
type mockLeadAPI struct {
	listLeads        func(ctx context.Context) ([]model.Lead, error)
	getLead          func(ctx context.Context, id int64) (*model.Lead, error)
	createLead       func(ctx context.Context, in model.LeadInput) (*model.Lead, error)
	updateLead       func(ctx context.Context, id int64, in model.LeadInput) (*model.Lead, error)
	updateLeadState  func(ctx context.Context, id int64, to model.LeadState, note string) (*model.Lead, error)
	listInteractions func(ctx context.Context, leadID int64) ([]model.Interaction, error)
	addInteraction   func(ctx context.Context, leadID int64, in model.Interaction) (*model.Interaction, error)
	metrics          func(ctx context.Context) (*model.PipelineMetrics, error)

	metricsCalls int
}

func (m *mockLeadAPI) ListLeads(ctx context.Context) ([]model.Lead, error) {
	if m.listLeads == nil {
		return []model.Lead{}, nil
	}
	return m.listLeads(ctx)
}

func (m *mockLeadAPI) GetLead(ctx context.Context, id int64) (*model.Lead, error) {
	if m.getLead == nil {
		return &model.Lead{ID: id}, nil
	}
	return m.getLead(ctx, id)
}

func (m *mockLeadAPI) CreateLead(ctx context.Context, in model.LeadInput) (*model.Lead, error) {
	return m.createLead(ctx, in)
}

func (m *mockLeadAPI) UpdateLead(ctx context.Context, id int64, in model.LeadInput) (*model.Lead, error) {
	return m.updateLead(ctx, id, in)
}

func (m *mockLeadAPI) UpdateLeadState(ctx context.Context, id int64, to model.LeadState, note string) (*model.Lead, error) {
	return m.updateLeadState(ctx, id, to, note)
}

func (m *mockLeadAPI) ListInteractions(ctx context.Context, leadID int64) ([]model.Interaction, error) {
	if m.listInteractions == nil {
		return []model.Interaction{}, nil
	}
	return m.listInteractions(ctx, leadID)
}

func (m *mockLeadAPI) AddInteraction(ctx context.Context, leadID int64, in model.Interaction) (*model.Interaction, error) {
	if m.addInteraction == nil {
		created := in
		created.ID = 1
		return &created, nil
	}
	return m.addInteraction(ctx, leadID, in)
}

func (m *mockLeadAPI) Metrics(ctx context.Context) (*model.PipelineMetrics, error) {
	m.metricsCalls++
	if m.metrics == nil {
		return &model.PipelineMetrics{ByState: map[model.LeadState]int{}}, nil
	}
	return m.metrics(ctx)
}

// memPrefs is an in-memory driven.PreferenceStore.
type memPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemPrefs() *memPrefs {
	return &memPrefs{values: map[string]string{}}
}

func (p *memPrefs) Get(_ context.Context, scope, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[scope+"\x00"+key], nil
}

func (p *memPrefs) Set(_ context.Context, pref model.Preference) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[pref.Scope+"\x00"+pref.Key] = pref.Value
	return nil
}

type mockBackupAPI struct {
	created      *model.Backup
	listed       []model.Backup
	listCalls    int
	restoreRes   *model.RestoreResult
	restoreErr   error
	restoreCalls int
	uploaded     string
}

func (m *mockBackupAPI) ListBackups(context.Context) ([]model.Backup, error) {
	m.listCalls++
	return m.listed, nil
}

func (m *mockBackupAPI) CreateBackup(context.Context) (*model.Backup, error) {
	return m.created, nil
}

func (m *mockBackupAPI) DownloadBackup(_ context.Context, _ int64, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, "archive")
	return int64(n), err
}

func (m *mockBackupAPI) DeleteBackup(context.Context, int64) error { return nil }

func (m *mockBackupAPI) RestoreBackup(context.Context, int64) (*model.RestoreResult, error) {
	m.restoreCalls++
	return m.restoreRes, m.restoreErr
}

func (m *mockBackupAPI) RestoreFromFile(_ context.Context, filename string, archive io.Reader) (*model.RestoreResult, error) {
	m.restoreCalls++
	b, _ := io.ReadAll(archive)
	m.uploaded = filename + ":" + string(b)
	return m.restoreRes, m.restoreErr
}

type mockAuthAPI struct {
	result     *model.AuthResult
	err        error
	calls      int
	storefront string
}

func (m *mockAuthAPI) Login(context.Context, model.LoginInput) (*model.AuthResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockAuthAPI) Register(context.Context, model.RegisterInput) (*model.AuthResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockAuthAPI) StorefrontLogin(_ context.Context, slug string, _ model.LoginInput) (*model.AuthResult, error) {
	m.calls++
	m.storefront = slug
	return m.result, m.err
}

func (m *mockAuthAPI) StorefrontRegister(_ context.Context, slug string, _ model.RegisterInput) (*model.AuthResult, error) {
	m.calls++
	m.storefront = slug
	return m.result, m.err
}

func (m *mockAuthAPI) RequestPasswordReset(context.Context, string) error {
	m.calls++
	return m.err
}

func (m *mockAuthAPI) Profile(context.Context) (*model.StoredUser, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	user := m.result.User
	return &user, nil
}

// mockCommerceAPI scripts LowStock and ListOrders; the pages that use the
// other methods are covered by the adapter tests.
type mockCommerceAPI struct {
	mu        sync.Mutex
	alerts    []model.StockAlert
	orders    []model.Order
	err       error
	calls     int
	pagePath  string
	ordersErr error
}

func (m *mockCommerceAPI) ListOrders(context.Context) ([]model.Order, error) {
	return m.orders, m.ordersErr
}

func (m *mockCommerceAPI) ListMyOrders(context.Context) ([]model.Order, error) { return nil, nil }
func (m *mockCommerceAPI) UpdateOrderStatus(context.Context, int64, model.OrderStatus) (*model.Order, error) {
	return nil, nil
}

func (m *mockCommerceAPI) LowStock(ctx context.Context) ([]model.StockAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.pagePath = application.PagePath(ctx)
	return m.alerts, m.err
}

func (m *mockCommerceAPI) ListPaymentMethods(context.Context) ([]model.PaymentMethod, error) {
	return nil, nil
}

func (m *mockCommerceAPI) ListAuditLog(context.Context, model.AuditFilter) ([]model.AuditEntry, error) {
	return nil, nil
}

func (m *mockCommerceAPI) ExportAuditLog(context.Context, model.AuditFilter, io.Writer) (int64, error) {
	return 0, nil
}

func (m *mockCommerceAPI) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockStorefrontAPI struct {
	config     model.StoreConfig
	style      model.StoreStyle
	categories []model.Category
	products   []model.Product
	filter     model.ProductFilter
	saves      int
	err        error
}

func (m *mockStorefrontAPI) StoreConfig(context.Context) (*model.StoreConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	cfg := m.config
	return &cfg, nil
}

func (m *mockStorefrontAPI) UpdateStoreConfig(_ context.Context, cfg model.StoreConfig) (*model.StoreConfig, error) {
	m.saves++
	m.config = cfg
	return &cfg, m.err
}

func (m *mockStorefrontAPI) StoreStyle(context.Context) (*model.StoreStyle, error) {
	if m.err != nil {
		return nil, m.err
	}
	style := m.style
	return &style, nil
}

func (m *mockStorefrontAPI) UpdateStoreStyle(_ context.Context, style model.StoreStyle) (*model.StoreStyle, error) {
	m.saves++
	m.style = style
	return &style, m.err
}

func (m *mockStorefrontAPI) ListProducts(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	m.filter = filter
	return m.products, m.err
}

func (m *mockStorefrontAPI) ListCategories(context.Context) ([]model.Category, error) {
	return m.categories, m.err
}
