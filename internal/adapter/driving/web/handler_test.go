package web

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type memStore struct {
	mu    sync.Mutex
	creds map[string]model.Credential
	users map[string]model.StoredUser
}

func newMemStore() *memStore {
	return &memStore{creds: map[string]model.Credential{}, users: map[string]model.StoredUser{}}
}

func (s *memStore) login(key model.SessionKey, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[key.TokenKey()] = model.Credential{Access: "tok-" + key.String()}
	s.users[key.UserKey()] = model.StoredUser{ID: 1, Name: "Ana", Email: "ana@example.com", Role: role}
}

func (s *memStore) hasCredential(key model.SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.creds[key.TokenKey()]
	return ok
}

func (s *memStore) SetCredential(_ context.Context, k model.SessionKey, c model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[k.TokenKey()] = c
	return nil
}
func (s *memStore) RawToken(_ context.Context, k model.SessionKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds[k.TokenKey()].Access, nil
}
func (s *memStore) Credential(_ context.Context, k model.SessionKey) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[k.TokenKey()]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
func (s *memStore) ClearCredential(_ context.Context, k model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, k.TokenKey())
	return nil
}
func (s *memStore) SetUser(_ context.Context, k model.SessionKey, u model.StoredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[k.UserKey()] = u
	return nil
}
func (s *memStore) User(_ context.Context, k model.SessionKey) (*model.StoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[k.UserKey()]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
func (s *memStore) ClearUser(_ context.Context, k model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, k.UserKey())
	return nil
}
func (s *memStore) Entries(context.Context) ([]model.SessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]model.SessionEntry, 0, len(s.creds))
	for k := range s.creds {
		entries = append(entries, model.SessionEntry{Key: k})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

type fakeAuthAPI struct {
	result *model.AuthResult
	err    error
}

func (f *fakeAuthAPI) Login(context.Context, model.LoginInput) (*model.AuthResult, error) {
	return f.result, f.err
}
func (f *fakeAuthAPI) Register(context.Context, model.RegisterInput) (*model.AuthResult, error) {
	return f.result, f.err
}
func (f *fakeAuthAPI) StorefrontLogin(context.Context, string, model.LoginInput) (*model.AuthResult, error) {
	return f.result, f.err
}
func (f *fakeAuthAPI) StorefrontRegister(context.Context, string, model.RegisterInput) (*model.AuthResult, error) {
	return f.result, f.err
}
func (f *fakeAuthAPI) RequestPasswordReset(context.Context, string) error { return f.err }
func (f *fakeAuthAPI) Profile(context.Context) (*model.StoredUser, error) {
	return &f.result.User, f.err
}

type fakeLeadAPI struct {
	leads    []model.Lead
	err      error
	movedTo  model.LeadState
	note     string
	added    []model.Interaction
	created  []model.LeadInput
	pagePath string
}

func (f *fakeLeadAPI) ListLeads(ctx context.Context) ([]model.Lead, error) {
	f.pagePath = application.PagePath(ctx)
	return f.leads, f.err
}
func (f *fakeLeadAPI) GetLead(_ context.Context, id int64) (*model.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, l := range f.leads {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, driven.ErrNotFound
}
func (f *fakeLeadAPI) CreateLead(_ context.Context, in model.LeadInput) (*model.Lead, error) {
	f.created = append(f.created, in)
	return &model.Lead{ID: 99, Name: in.Name, State: in.State}, f.err
}
func (f *fakeLeadAPI) UpdateLead(_ context.Context, id int64, in model.LeadInput) (*model.Lead, error) {
	return &model.Lead{ID: id, Name: in.Name}, f.err
}
func (f *fakeLeadAPI) UpdateLeadState(_ context.Context, id int64, to model.LeadState, note string) (*model.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.movedTo, f.note = to, note
	return &model.Lead{ID: id, State: to}, nil
}
func (f *fakeLeadAPI) ListInteractions(context.Context, int64) ([]model.Interaction, error) {
	return nil, f.err
}
func (f *fakeLeadAPI) AddInteraction(_ context.Context, _ int64, in model.Interaction) (*model.Interaction, error) {
	f.added = append(f.added, in)
	return &in, f.err
}
func (f *fakeLeadAPI) Metrics(context.Context) (*model.PipelineMetrics, error) {
	return &model.PipelineMetrics{TotalLeads: len(f.leads), ByState: map[model.LeadState]int{}}, f.err
}

type fakeBackupAPI struct {
	restore *model.RestoreResult
	archive string
}

func (f *fakeBackupAPI) ListBackups(context.Context) ([]model.Backup, error) {
	return []model.Backup{{ID: 7, Status: model.BackupCompleted}}, nil
}
func (f *fakeBackupAPI) CreateBackup(context.Context) (*model.Backup, error) {
	return &model.Backup{ID: 8, Status: model.BackupPending}, nil
}
func (f *fakeBackupAPI) DownloadBackup(_ context.Context, _ int64, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.archive)
	return int64(n), err
}
func (f *fakeBackupAPI) DeleteBackup(context.Context, int64) error { return nil }
func (f *fakeBackupAPI) RestoreBackup(context.Context, int64) (*model.RestoreResult, error) {
	return f.restore, nil
}
func (f *fakeBackupAPI) RestoreFromFile(context.Context, string, io.Reader) (*model.RestoreResult, error) {
	return f.restore, nil
}

type fakeCommerceAPI struct {
	myOrdersErr error
	status      model.OrderStatus
	orders      []model.Order
}

func (f *fakeCommerceAPI) ListOrders(context.Context) ([]model.Order, error) {
	if f.orders != nil {
		return f.orders, nil
	}
	return []model.Order{{ID: 3, CustomerName: "Luis", Status: model.OrderPaid}}, nil
}
func (f *fakeCommerceAPI) ListMyOrders(context.Context) ([]model.Order, error) {
	return nil, f.myOrdersErr
}
func (f *fakeCommerceAPI) UpdateOrderStatus(_ context.Context, id int64, s model.OrderStatus) (*model.Order, error) {
	f.status = s
	return &model.Order{ID: id, Status: s}, nil
}
func (f *fakeCommerceAPI) LowStock(context.Context) ([]model.StockAlert, error) { return nil, nil }
func (f *fakeCommerceAPI) ListPaymentMethods(context.Context) ([]model.PaymentMethod, error) {
	return []model.PaymentMethod{{Name: "Transferencia", Type: "manual", Enabled: true}}, nil
}
func (f *fakeCommerceAPI) ListAuditLog(context.Context, model.AuditFilter) ([]model.AuditEntry, error) {
	return nil, nil
}
func (f *fakeCommerceAPI) ExportAuditLog(_ context.Context, _ model.AuditFilter, w io.Writer) (int64, error) {
	n, err := io.WriteString(w, "usuario,accion\n")
	return int64(n), err
}

type fakeStorefrontAPI struct {
	config   model.StoreConfig
	style    model.StoreStyle
	products []model.Product
	filter   model.ProductFilter
	saves    int
}

func (f *fakeStorefrontAPI) StoreConfig(context.Context) (*model.StoreConfig, error) {
	cfg := f.config
	return &cfg, nil
}
func (f *fakeStorefrontAPI) UpdateStoreConfig(_ context.Context, cfg model.StoreConfig) (*model.StoreConfig, error) {
	f.saves++
	f.config = cfg
	return &cfg, nil
}
func (f *fakeStorefrontAPI) StoreStyle(context.Context) (*model.StoreStyle, error) {
	style := f.style
	return &style, nil
}
func (f *fakeStorefrontAPI) UpdateStoreStyle(_ context.Context, style model.StoreStyle) (*model.StoreStyle, error) {
	f.saves++
	f.style = style
	return &style, nil
}
func (f *fakeStorefrontAPI) ListProducts(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	f.filter = filter
	return f.products, nil
}
func (f *fakeStorefrontAPI) ListCategories(context.Context) ([]model.Category, error) {
	return []model.Category{{ID: 2, Name: "Tazas", ProductCount: 1}}, nil
}

type fakePlans struct{ checkoutURL string }

func (f *fakePlans) ListPlans(context.Context) ([]model.Plan, error) {
	return []model.Plan{{ID: 1, Name: "Básico", Price: 10, Interval: "mes"}}, nil
}
func (f *fakePlans) CreateCheckoutSession(context.Context, int64) (string, error) {
	return f.checkoutURL, nil
}

// --- Fixture ---

type fixture struct {
	mux        *http.ServeMux
	store      *memStore
	auth       *fakeAuthAPI
	leads      *fakeLeadAPI
	backups    *fakeBackupAPI
	commerce   *fakeCommerceAPI
	storefront *fakeStorefrontAPI
	plans      *fakePlans
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		store:      newMemStore(),
		auth:       &fakeAuthAPI{},
		leads:      &fakeLeadAPI{},
		backups:    &fakeBackupAPI{},
		commerce:   &fakeCommerceAPI{},
		storefront: &fakeStorefrontAPI{},
		plans:      &fakePlans{checkoutURL: "https://pagos.example.com/s/1"},
	}

	h := NewHandler(
		application.NewAuthService(f.auth, f.store, logger),
		application.NewPipelineService(f.leads, nil, logger),
		application.NewBackupService(f.backups, 0, logger),
		application.NewStockAlertService(f.commerce, 0, logger),
		application.NewSessionGuard(f.store, logger),
		application.NewStorefrontService(f.storefront, logger),
		application.NewReportService(f.commerce, logger),
		f.commerce,
		f.plans,
		logger,
	)
	f.mux = http.NewServeMux()
	RegisterRoutes(f.mux, h)
	return f
}

const testToken = "test-csrf-token"

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) post(target string, form url.Values, referer string) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(csrfFormField, testToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testToken})
	if referer != "" {
		req.Header.Set("Referer", "http://example.com"+referer)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func flashOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookieName && c.Value != "" {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return popFlash(httptest.NewRecorder(), req).Message
		}
	}
	return ""
}

// --- Tests ---

func TestHome_VisitorSeesLanding(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Crear cuenta")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), csrfCookieName)
}

func TestHome_DashboardListsOnlyAccessibleSections(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleViewer)
	f.store.login(model.StorefrontSession("foo"), model.RoleViewer)

	rec := f.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Hola, Ana")
	assert.NotContains(t, body, `href="/leads"`)
	assert.NotContains(t, body, `href="/backups"`)
	assert.NotContains(t, body, `href="/configuracion"`)
	assert.Contains(t, body, `href="/reportes"`)
	assert.Contains(t, body, `href="/tienda-publica/foo/pedidos"`)
}

func TestGatedPage_RedirectsVisitorToLogin(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/leads")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fleads", rec.Header().Get("Location"))
}

func TestGatedPage_ForbiddenForRoleWithoutAccess(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleAdmin)

	rec := f.get("/backups")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), application.MsgForbidden)
}

func TestPost_RejectsMissingCSRFToken(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin_PersistsSessionAndFollowsNext(t *testing.T) {
	f := newFixture(t)
	f.auth.result = &model.AuthResult{
		Credential: model.Credential{Access: "abc"},
		User:       model.StoredUser{ID: 1, Name: "Ana", Role: model.RoleOwner},
	}

	rec := f.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"secreto"}, "next": {"/leads"}}, "/login")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/leads", rec.Header().Get("Location"))
	assert.True(t, f.store.hasCredential(model.AdminSession))
}

func TestLogin_RejectsExternalNext(t *testing.T) {
	f := newFixture(t)
	f.auth.result = &model.AuthResult{User: model.StoredUser{Role: model.RoleOwner}}

	rec := f.post("/login", url.Values{"email": {"a@b.c"}, "password": {"x"}, "next": {"//evil.example.com"}}, "/login")

	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin_BadCredentialsStayOnForm(t *testing.T) {
	f := newFixture(t)
	f.auth.err = driven.ErrUnauthorized

	rec := f.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"mala"}}, "/login")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), msgBadCredentials)
	assert.Contains(t, rec.Body.String(), `value="ana@example.com"`)
	assert.False(t, f.store.hasCredential(model.AdminSession))
}

func TestLeads_RendersTransitionButtonsFromTable(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleSeller)
	f.leads.leads = []model.Lead{
		{ID: 1, Name: "Carla", State: model.LeadStateNew},
		{ID: 2, Name: "Diego", State: model.LeadStateWon},
	}

	rec := f.get("/leads?estado=nuevo")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Carla")
	assert.NotContains(t, body, "Diego")
	assert.Contains(t, body, "Marcar contactado")
	assert.Contains(t, body, `action="/leads/1/estado"`)
	assert.Equal(t, "/leads", f.leads.pagePath)
}

func TestChangeLeadState_SendsNoteAndReturnsToReferer(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleSeller)

	rec := f.post("/leads/5/estado", url.Values{"estado": {"contactado"}, "nota": {"llamó"}}, "/leads?estado=nuevo")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/leads?estado=nuevo", rec.Header().Get("Location"))
	assert.Equal(t, model.LeadStateContacted, f.leads.movedTo)
	assert.Equal(t, "llamó", f.leads.note)
	assert.Equal(t, "Lead movido a Contactado.", flashOf(t, rec))
}

func TestCreateLead_RejectsInvalidInputBeforeCallingAPI(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"unknown source", url.Values{"nombre": {"Ana"}, "fuente": {"radio"}}},
		{"NaN value", url.Values{"nombre": {"Ana"}, "valor_estimado": {"NaN"}}},
		{"infinite value", url.Values{"nombre": {"Ana"}, "valor_estimado": {"Inf"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.login(model.AdminSession, model.RoleSeller)

			rec := f.post("/leads", tt.form, "/leads")

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/leads", rec.Header().Get("Location"))
			assert.NotEmpty(t, flashOf(t, rec))
			assert.Empty(t, f.leads.created)
		})
	}
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount(" 1234,5 ", "valor")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(1234.5), v)

	for _, raw := range []string{"NaN", "Inf", "-Inf", "-3", "abc"} {
		_, err := parseAmount(raw, "valor")
		assert.Error(t, err, raw)
	}
}

func TestChangeLeadState_UnknownStateIsFlashed(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleSeller)

	rec := f.post("/leads/5/estado", url.Values{"estado": {"archivado"}}, "/leads/5")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/leads/5", rec.Header().Get("Location"))
	assert.Contains(t, flashOf(t, rec), "archivado")
	assert.Empty(t, f.leads.movedTo)
}

func TestUnauthorizedAPI_ClearsAdminSessionAndRedirects(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)
	f.leads.err = driven.ErrUnauthorized

	rec := f.get("/leads")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fleads", rec.Header().Get("Location"))
	assert.False(t, f.store.hasCredential(model.AdminSession))
	assert.Equal(t, application.MsgExpired, flashOf(t, rec))
}

func TestUnauthorizedAPI_OnStorefrontClearsOnlyThatStore(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)
	f.store.login(model.StorefrontSession("foo"), model.RoleViewer)
	f.commerce.myOrdersErr = driven.ErrUnauthorized

	rec := f.get("/tienda-publica/foo/pedidos")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tienda-publica/foo/login?next=%2Ftienda-publica%2Ffoo%2Fpedidos", rec.Header().Get("Location"))
	assert.False(t, f.store.hasCredential(model.StorefrontSession("foo")))
	assert.True(t, f.store.hasCredential(model.AdminSession))
}

func TestLeadDetail_NotFound(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)

	rec := f.get("/leads/42")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "El recurso solicitado no existe")
}

func TestContact_WhatsAppLogsInteractionAndRedirects(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleSeller)
	f.leads.leads = []model.Lead{{ID: 1, Name: "Carla", Phone: "+54 9 11 5555-0101"}}

	rec := f.post("/leads/1/contacto/whatsapp", nil, "/leads/1")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://wa.me/5491155550101", rec.Header().Get("Location"))
	require.Len(t, f.leads.added, 1)
	assert.Equal(t, model.InteractionWhatsApp, f.leads.added[0].Type)
}

func TestRestoreFromFile_FailureKeepsFileNameAndServerText(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)
	f.backups.restore = &model.RestoreResult{Success: false, Error: "archivo corrupto"}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField(csrfFormField, testToken))
	require.NoError(t, mw.WriteField("confirmar", "1"))
	part, err := mw.CreateFormFile("archivo", "respaldo-marzo.zip")
	require.NoError(t, err)
	_, err = part.Write([]byte("PK"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/backups/restore-file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testToken})
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "archivo corrupto")
	assert.Contains(t, rec.Body.String(), "respaldo-marzo.zip")
}

func TestRestoreBackup_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)
	f.backups.restore = &model.RestoreResult{Success: true}

	rec := f.post("/backups/7/restore", nil, "/backups")

	assert.Equal(t, "/backups", rec.Header().Get("Location"))
	assert.Contains(t, flashOf(t, rec), "Confirme")
}

func TestDownloadBackup_StreamsArchive(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)
	f.backups.archive = "zip-bytes"

	rec := f.get("/backups/7/download")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zip-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "backup-7.zip")
}

func TestUpdateOrderStatus_ValidatesStatus(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleSupport)

	rec := f.post("/orders/3/estado", url.Values{"estado": {"perdido"}}, "/orders")
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
	assert.Empty(t, f.commerce.status)

	rec = f.post("/orders/3/estado", url.Values{"estado": {"enviado"}}, "/orders")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, model.OrderShipped, f.commerce.status)
}

func TestCheckout_RedirectsToProvider(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)

	rec := f.post("/precios/1/checkout", nil, "/precios")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://pagos.example.com/s/1", rec.Header().Get("Location"))
}

func TestPricing_IsPublic(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/precios")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Básico")
	assert.Contains(t, rec.Body.String(), "Crear cuenta para suscribirse")
}

func TestExportAudit_PassesCSVThrough(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleAdmin)

	rec := f.get("/audit/export?usuario=ana")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usuario,accion\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/leads", "/leads"},
		{"", "/"},
		{"https://evil.example.com", "/"},
		{"//evil.example.com", "/"},
		{"/\\evil.example.com", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.in), tt.in)
	}
}

func TestFlash_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec, flashError, "No se pudo | guardar")
	assert.Equal(t, "No se pudo | guardar", flashOf(t, rec))
}

func TestCatalog_FiltersByCategoryAndFlagsLowStock(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleAdmin)
	f.storefront.products = []model.Product{
		{ID: 1, Name: "Taza blanca", SKU: "TZ-1", Price: 12, Stock: 1, MinStock: 3, CategoryID: 2, Active: true},
	}

	rec := f.get("/tienda?categoria=2&q=taza")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ProductFilter{CategoryID: 2, Search: "taza"}, f.storefront.filter)
	body := rec.Body.String()
	assert.Contains(t, body, "Taza blanca")
	assert.Contains(t, body, "Stock bajo")
	assert.Contains(t, body, `<option value="2" selected>Tazas</option>`)
}

func TestCatalog_ForbiddenForSeller(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleSeller)

	rec := f.get("/tienda")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSettings_RendersCurrentValues(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)
	f.storefront.config = model.StoreConfig{Name: "Tienda Ana", Slug: "tienda-ana", Published: true}
	f.storefront.style = model.StoreStyle{PrimaryColor: "#112233", Layout: model.StoreLayoutGrid}

	rec := f.get("/configuracion")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="tienda-ana"`)
	assert.Contains(t, body, `value="#112233"`)
	assert.Contains(t, body, `<option value="grilla" selected>Grilla</option>`)
	assert.Contains(t, body, `href="/tienda-publica/tienda-ana/login"`)
}

func TestSaveStoreConfig_SavesAndRedirects(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)

	rec := f.post("/configuracion/tienda", url.Values{
		"nombre":    {"Tienda Ana"},
		"slug":      {"Tienda-Ana"},
		"publicada": {"1"},
	}, "/configuracion")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/configuracion", rec.Header().Get("Location"))
	assert.Equal(t, "tienda-ana", f.storefront.config.Slug)
	assert.True(t, f.storefront.config.Published)
}

func TestSaveStoreStyle_InvalidColorIsFlashed(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleOwner)

	rec := f.post("/configuracion/estilo", url.Values{
		"color_primario":   {"azul"},
		"color_secundario": {"#000000"},
		"color_fondo":      {"#ffffff"},
		"plantilla":        {"clasica"},
	}, "/configuracion")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/configuracion", rec.Header().Get("Location"))
	assert.Contains(t, flashOf(t, rec), "color inválido")
	assert.Zero(t, f.storefront.saves)
}

func salesOrders() []model.Order {
	at := func(d int) time.Time { return time.Date(2026, time.May, d, 12, 0, 0, 0, time.Local) }
	return []model.Order{
		{ID: 1, CustomerName: "Ana", Total: 80, Status: model.OrderPaid, CreatedAt: at(2)},
		{ID: 2, CustomerName: "Luis", Total: 20, Status: model.OrderCanceled, CreatedAt: at(3)},
		{ID: 3, CustomerName: "Eva", Total: 500, Status: model.OrderPaid, CreatedAt: at(20)},
	}
}

func TestSalesReport_SummarizesRange(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleViewer)
	f.commerce.orders = salesOrders()

	rec := f.get("/reportes?desde=2026-05-01&hasta=2026-05-10")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "$ 80.00")
	assert.NotContains(t, body, "$ 500.00")
	assert.Contains(t, body, "02/05/2026")
	assert.Contains(t, body, `href="/reportes/ventas.csv?desde=2026-05-01&amp;hasta=2026-05-10"`)
}

func TestSalesReport_InvalidDateIsBadRequest(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleViewer)

	rec := f.get("/reportes?desde=ayer")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "fecha inicial inválida")
}

func TestExportSales_DownloadsCSV(t *testing.T) {
	f := newFixture(t)
	f.store.login(model.AdminSession, model.RoleAdmin)
	f.commerce.orders = salesOrders()

	rec := f.get("/reportes/ventas.csv?desde=2026-05-01&hasta=2026-05-31")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ventas-2026-05-01-2026-05-31.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "pedido,fecha,cliente,estado,total,cobrado", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "3,2026-05-20 12:00,Eva,pagado,500.00,true"))
}

func TestStatic_ServesEmbeddedStylesheet(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/static/panel.css")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".banner-error")
}

func TestLayout_ExposesCSRFTokenToScripts(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/")

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)
	body := rec.Body.String()
	assert.Contains(t, body, `<meta name="csrf-token" content="`+token+`">`)
	assert.Contains(t, body, `<link rel="stylesheet" href="/static/panel.css">`)
}
