package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/http"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockLeadAPI struct {
	leads        []model.Lead
	lead         *model.Lead
	interactions []model.Interaction
	metrics      *model.PipelineMetrics
	err          error
	stateErr     error
	movedTo      model.LeadState
	note         string
	listCalls    int
}

func (m *mockLeadAPI) ListLeads(context.Context) ([]model.Lead, error) {
	m.listCalls++
	return m.leads, m.err
}
func (m *mockLeadAPI) GetLead(context.Context, int64) (*model.Lead, error) {
	return m.lead, m.err
}
func (m *mockLeadAPI) CreateLead(context.Context, model.LeadInput) (*model.Lead, error) {
	return nil, errors.New("not used")
}
func (m *mockLeadAPI) UpdateLead(context.Context, int64, model.LeadInput) (*model.Lead, error) {
	return nil, errors.New("not used")
}
func (m *mockLeadAPI) UpdateLeadState(_ context.Context, id int64, to model.LeadState, note string) (*model.Lead, error) {
	if m.stateErr != nil {
		return nil, m.stateErr
	}
	m.movedTo, m.note = to, note
	updated := *m.lead
	updated.State = to
	return &updated, nil
}
func (m *mockLeadAPI) ListInteractions(context.Context, int64) ([]model.Interaction, error) {
	return m.interactions, nil
}
func (m *mockLeadAPI) AddInteraction(context.Context, int64, model.Interaction) (*model.Interaction, error) {
	return nil, errors.New("not used")
}
func (m *mockLeadAPI) Metrics(context.Context) (*model.PipelineMetrics, error) {
	if m.metrics == nil {
		return &model.PipelineMetrics{ByState: map[model.LeadState]int{}}, m.err
	}
	return m.metrics, m.err
}

type mockCommerceAPI struct {
	alerts []model.StockAlert
	err    error
}

func (m *mockCommerceAPI) ListOrders(context.Context) ([]model.Order, error)   { return nil, nil }
func (m *mockCommerceAPI) ListMyOrders(context.Context) ([]model.Order, error) { return nil, nil }
func (m *mockCommerceAPI) UpdateOrderStatus(context.Context, int64, model.OrderStatus) (*model.Order, error) {
	return nil, nil
}
func (m *mockCommerceAPI) LowStock(context.Context) ([]model.StockAlert, error) {
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

// mockSessionStore keeps raw values by storage key.
type mockSessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMockSessionStore(kv ...string) *mockSessionStore {
	s := &mockSessionStore{values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		s.values[kv[i]] = kv[i+1]
	}
	return s
}

func (s *mockSessionStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

func (s *mockSessionStore) SetCredential(_ context.Context, k model.SessionKey, c model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[k.TokenKey()] = c.Access
	return nil
}
func (s *mockSessionStore) RawToken(_ context.Context, k model.SessionKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[k.TokenKey()], nil
}
func (s *mockSessionStore) Credential(ctx context.Context, k model.SessionKey) (*model.Credential, error) {
	raw, _ := s.RawToken(ctx, k)
	if raw == "" {
		return nil, nil
	}
	return &model.Credential{Access: raw}, nil
}
func (s *mockSessionStore) ClearCredential(_ context.Context, k model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, k.TokenKey())
	return nil
}
func (s *mockSessionStore) SetUser(_ context.Context, k model.SessionKey, _ model.StoredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[k.UserKey()] = "{}"
	return nil
}
func (s *mockSessionStore) User(context.Context, model.SessionKey) (*model.StoredUser, error) {
	return nil, nil
}
func (s *mockSessionStore) ClearUser(_ context.Context, k model.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, k.UserKey())
	return nil
}
func (s *mockSessionStore) Entries(context.Context) ([]model.SessionEntry, error) { return nil, nil }

// --- Test helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	leads    *mockLeadAPI
	commerce *mockCommerceAPI
	store    *mockSessionStore
	stock    *application.StockAlertService
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		leads:    &mockLeadAPI{},
		commerce: &mockCommerceAPI{},
		store:    newMockSessionStore("token", "admin", "user", "{}", "token_foo", "foo", "user_foo", "{}"),
	}
	logger := discardLogger()
	f.stock = application.NewStockAlertService(f.commerce, time.Minute, logger)
	h := httphandler.NewHandler(
		application.NewPipelineService(f.leads, nil, logger),
		f.stock,
		application.NewSessionGuard(f.store, logger),
		logger,
	)

	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, h)
	httphandler.RegisterMetricsRoute(mux)
	f.handler = httphandler.ApplyMiddleware(mux, logger, []string{"http://localhost:3000"})
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const testCSRFToken = "test-csrf-token"

// post sends a JSON write the way the panel pages do: JSON body, CSRF cookie
// and matching header.
func (f *fixture) post(t *testing.T, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	base := []string{
		"Content-Type", "application/json",
		"Cookie", httphandler.CSRFCookieName + "=" + testCSRFToken,
		httphandler.CSRFHeader, testCSRFToken,
	}
	return f.do(t, http.MethodPost, target, body, append(base, headers...)...)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- Tests ---

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.NotEmpty(t, rec.Header().Get(httphandler.RequestIDHeader))
	resp := decode[httphandler.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
}

func TestRequestIDIsPropagated(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/health", "", httphandler.RequestIDHeader, "abc-123")

	assert.Equal(t, "abc-123", rec.Header().Get(httphandler.RequestIDHeader))
}

func TestListTransitions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/pipeline/transitions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode[map[string][]httphandler.TransitionResponse](t, rec)
	assert.Len(t, table, 7)
	assert.Len(t, table["nuevo"], 3)

	rec = f.do(t, http.MethodGet, "/api/v1/pipeline/transitions?from=negociacion", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]httphandler.TransitionResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "ganado", list[0].To)

	rec = f.do(t, http.MethodGet, "/api/v1/pipeline/transitions?from=archivado", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListLeads_FiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	f.leads.leads = []model.Lead{
		{ID: 1, Name: "Ana", State: model.LeadStateNew, EstimatedValue: 100},
		{ID: 2, Name: "Beto", State: model.LeadStateNew, EstimatedValue: 50},
		{ID: 3, Name: "Carla", State: model.LeadStateWon},
	}
	f.leads.metrics = &model.PipelineMetrics{
		TotalLeads:    3,
		PipelineValue: 150,
		ByState:       map[model.LeadState]int{model.LeadStateNew: 2, model.LeadStateWon: 1},
	}

	rec := f.do(t, http.MethodGet, "/api/v1/leads?estado=nuevo&page_size=1&page=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[httphandler.LeadPageResponse](t, rec)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, int64(2), resp.Leads[0].ID)
	assert.Equal(t, "Nuevo", resp.Leads[0].StateLabel)
	assert.Equal(t, "150.00", resp.Metrics.PipelineValue)
	assert.Equal(t, 2, resp.Metrics.ByState["nuevo"])
	assert.Equal(t, 0, resp.Metrics.ByState["perdido"])
}

func TestListLeads_UnknownStateFilter(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/leads?estado=archivado", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeLeadState(t *testing.T) {
	f := newFixture(t)
	f.leads.lead = &model.Lead{ID: 4, Name: "Ana", State: model.LeadStateNew}
	f.leads.interactions = []model.Interaction{{ID: 1, Type: model.InteractionOther, Description: "nota"}}
	f.leads.metrics = &model.PipelineMetrics{TotalLeads: 1, ByState: map[model.LeadState]int{model.LeadStateContacted: 1}}

	rec := f.post(t, "/api/v1/leads/4/state", `{"estado":"contactado","nota":"nota"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.LeadStateContacted, f.leads.movedTo)
	assert.Equal(t, "nota", f.leads.note)

	resp := decode[httphandler.LeadDetailResponse](t, rec)
	assert.Equal(t, "contactado", resp.Lead.State)
	require.Len(t, resp.Transitions, 3)
	assert.Equal(t, "calificado", resp.Transitions[0].To)
	assert.Len(t, resp.Interactions, 1)
	assert.Equal(t, 1, resp.Metrics.ByState["contactado"])
}

func TestChangeLeadState_BadInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"non numeric id", "/api/v1/leads/abc/state", `{"estado":"nuevo"}`},
		{"bad json", "/api/v1/leads/4/state", `{`},
		{"unknown state", "/api/v1/leads/4/state", `{"estado":"archivado"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(t, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"forbidden", fmt.Errorf("x: %w", driven.ErrForbidden), http.StatusForbidden},
		{"not found", fmt.Errorf("x: %w", driven.ErrNotFound), http.StatusNotFound},
		{"unreachable", fmt.Errorf("x: %w", driven.ErrUnreachable), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.leads.err = tt.err

			rec := f.do(t, http.MethodGet, "/api/v1/leads/metrics", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decode[map[string]string](t, rec)
			assert.NotEmpty(t, resp["error"])
			assert.Empty(t, resp["redirect"])
			assert.True(t, f.store.has("token"), "session untouched")
		})
	}
}

func TestUnauthorizedFromStorefrontPageClearsThatSession(t *testing.T) {
	f := newFixture(t)
	f.leads.err = fmt.Errorf("x: %w", driven.ErrUnauthorized)

	rec := f.do(t, http.MethodGet, "/api/v1/leads", "", "Referer", "http://example.com/tienda-publica/foo/pedidos")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "/tienda-publica/foo/login?next=%2Ftienda-publica%2Ffoo%2Fpedidos", resp["redirect"])
	assert.False(t, f.store.has("token_foo"))
	assert.False(t, f.store.has("user_foo"))
	assert.True(t, f.store.has("token"))
}

func TestUnauthorizedFromAdminPageClearsAdminSession(t *testing.T) {
	f := newFixture(t)
	f.leads.err = fmt.Errorf("x: %w", driven.ErrUnauthorized)

	rec := f.do(t, http.MethodGet, "/api/v1/leads", "", "Referer", "http://example.com/leads")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "/login?next=%2Fleads", resp["redirect"])
	assert.False(t, f.store.has("token"))
	assert.True(t, f.store.has("token_foo"))
}

func TestUnauthorizedFromPublicPageDoesNotRedirect(t *testing.T) {
	f := newFixture(t)
	f.leads.err = fmt.Errorf("x: %w", driven.ErrUnauthorized)

	rec := f.do(t, http.MethodGet, "/api/v1/leads", "", "Referer", "http://example.com/precios")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Empty(t, resp["redirect"])
	assert.True(t, f.store.has("token"))
}

func TestFailedStateChangeReportsValidationMessage(t *testing.T) {
	f := newFixture(t)
	f.leads.lead = &model.Lead{ID: 4, State: model.LeadStateNew}
	f.leads.stateErr = &model.ValidationError{Field: "estado", Message: "no permitido"}

	rec := f.post(t, "/api/v1/leads/4/state", `{"estado":"ganado"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "no permitido", resp["error"])
	assert.Equal(t, "estado", resp["field"])
}

func TestListStockAlerts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/stock-alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[httphandler.StockAlertsResponse](t, rec)
	assert.Empty(t, empty.Alerts)
	assert.Empty(t, empty.CheckedAt)

	f.commerce.alerts = []model.StockAlert{{ProductID: 9, Name: "Taza", Stock: 1, MinStock: 3}}
	f.stock.Refresh(context.Background())

	rec = f.do(t, http.MethodGet, "/api/v1/stock-alerts", "")
	resp := decode[httphandler.StockAlertsResponse](t, rec)
	require.Len(t, resp.Alerts, 1)
	assert.Equal(t, "Taza", resp.Alerts[0].Name)
	assert.NotEmpty(t, resp.CheckedAt)
}

func TestCORSPreflightOnAPI(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodOptions, "/api/v1/leads", "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", http.MethodGet,
	)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/v1/health", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tiendapanel_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="GET /api/v1/health"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	handler := httphandler.ApplyMiddleware(mux, discardLogger(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChangeLeadState_RequiresCSRFToken(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
	}{
		{"no token", []string{"Content-Type", "application/json"}},
		{"header without cookie", []string{"Content-Type", "application/json", httphandler.CSRFHeader, testCSRFToken}},
		{"mismatched token", []string{
			"Content-Type", "application/json",
			"Cookie", httphandler.CSRFCookieName + "=" + testCSRFToken,
			httphandler.CSRFHeader, "other",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.leads.lead = &model.Lead{ID: 1, State: model.LeadStateNegotiation}

			rec := f.do(t, http.MethodPost, "/api/v1/leads/1/state", `{"estado":"perdido"}`,
				append(tt.headers, "Origin", "https://evil.example")...)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Empty(t, f.leads.movedTo)
		})
	}
}

func TestChangeLeadState_RejectsNonJSONBody(t *testing.T) {
	f := newFixture(t)
	f.leads.lead = &model.Lead{ID: 1, State: model.LeadStateNegotiation}

	rec := f.do(t, http.MethodPost, "/api/v1/leads/1/state", `{"estado":"perdido","x":"="}`,
		"Content-Type", "text/plain",
		"Cookie", httphandler.CSRFCookieName+"="+testCSRFToken,
		httphandler.CSRFHeader, testCSRFToken,
	)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, f.leads.movedTo)
}

func TestForeignRefererDoesNotChooseSession(t *testing.T) {
	f := newFixture(t)
	f.leads.err = fmt.Errorf("x: %w", driven.ErrUnauthorized)

	rec := f.do(t, http.MethodGet, "/api/v1/leads", "", "Referer", "https://evil.example/tienda-publica/foo/pedidos")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "/login?next=%2Fapi%2Fv1%2Fleads", resp["redirect"])
	assert.True(t, f.store.has("token_foo"), "storefront session untouched")
	assert.True(t, f.store.has("user_foo"))
}

func TestGetMetricsFetchesOnlyMetrics(t *testing.T) {
	f := newFixture(t)
	f.leads.metrics = &model.PipelineMetrics{
		TotalLeads:    2,
		PipelineValue: 150,
		ByState:       map[model.LeadState]int{model.LeadStateNew: 1, model.LeadStateWon: 1},
	}

	rec := f.do(t, http.MethodGet, "/api/v1/leads/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[httphandler.MetricsResponse](t, rec)
	assert.Equal(t, 2, resp.TotalLeads)
	assert.Equal(t, "150.00", resp.PipelineValue)
	assert.Zero(t, f.leads.listCalls)
}
