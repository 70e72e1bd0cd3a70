package crmapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driven/crmapi"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// stubResolver returns a fixed token and records the last target.
type stubResolver struct {
	token  string
	err    error
	target string
}

func (s *stubResolver) ResolveToken(_ context.Context, target *url.URL) (string, error) {
	s.target = target.String()
	return s.token, s.err
}

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, resolver driven.TokenResolver, handler http.Handler) *crmapi.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := crmapi.NewClient(server.URL+"/api", resolver, crmapi.WithTransport(server.Client().Transport))
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := crmapi.NewClient("/api", nil)
	assert.Error(t, err)
}

func TestClient_AttachesResolvedBearerToken(t *testing.T) {
	resolver := &stubResolver{token: "tok-123"}
	client := newTestClient(t, resolver, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/leads/", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nombre": "Ana", "estado": "nuevo", "valor_estimado": "100.00"}})
	}))

	leads, err := client.ListLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, model.LeadStateNew, leads[0].State)
	assert.Equal(t, "100.00", leads[0].EstimatedValue.String())
	assert.True(t, strings.HasSuffix(resolver.target, "/api/leads/"))
}

func TestClient_NoTokenSendsUnauthenticated(t *testing.T) {
	client := newTestClient(t, &stubResolver{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"results": []map[string]any{{"id": 4, "estado": "pagado"}}})
	}))

	orders, err := client.ListMyOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderPaid, orders[0].Status)
}

func TestClient_ResolverErrorAbortsRequest(t *testing.T) {
	var hits atomic.Int32
	boom := errors.New("store locked")
	client := newTestClient(t, &stubResolver{err: boom}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.ListLeads(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Zero(t, hits.Load())
}

func TestClient_StatusSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, driven.ErrUnauthorized},
		{http.StatusForbidden, driven.ErrForbidden},
		{http.StatusNotFound, driven.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, map[string]string{"detail": "nope"})
			}))

			_, err := client.GetLead(context.Background(), 9)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, crmapi.IsAPIStatus(err, tt.status))

			var apiErr *crmapi.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "nope", apiErr.UserMessage())
		})
	}
}

func TestClient_FieldErrorsAreConcatenated(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"nombre": []string{"Este campo es obligatorio."},
			"email":  []string{"Email inválido.", "Ya existe."},
		})
	}))

	_, err := client.CreateLead(context.Background(), model.LeadInput{})

	var apiErr *crmapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Email inválido. Ya existe. Este campo es obligatorio.", apiErr.UserMessage())
	assert.Len(t, apiErr.FieldErrors, 2)
}

func TestClient_ServerErrorWithHTMLBody(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>oops</html>")
	}))

	_, err := client.ListBackups(context.Background())

	var apiErr *crmapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.UserMessage())
}

func TestClient_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	client, err := crmapi.NewClient(base, &stubResolver{})
	require.NoError(t, err)

	_, err = client.ListLeads(context.Background())
	require.ErrorIs(t, err, driven.ErrUnreachable)
}

func TestClient_UpdateLeadStateSendsStateAndNote(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/leads/12/actualizar_estado/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "propuesta", body["estado"])
		assert.Equal(t, "enviada por email", body["nota"])

		writeJSON(w, http.StatusOK, map[string]any{"id": 12, "estado": "propuesta"})
	}))

	lead, err := client.UpdateLeadState(context.Background(), 12, model.LeadStateProposal, "enviada por email")
	require.NoError(t, err)
	assert.Equal(t, model.LeadStateProposal, lead.State)
}

func TestClient_MetricsAcceptStringAmounts(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"total_leads": 2, "valor_total_pipeline": "150.00", "valor_total_compras": 0, "por_estado": {"nuevo": 2}}`)
	}))

	metrics, err := client.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalLeads)
	assert.Equal(t, "150.00", metrics.PipelineValue.String())
	assert.Equal(t, 2, metrics.ByState[model.LeadStateNew])
}

func TestClient_MetricsWithoutByState(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"total_leads": 0}`)
	}))

	metrics, err := client.Metrics(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, metrics.ByState)
}

func TestClient_RestoreFromFileUploadsMultipart(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/backups/restore_from_file/", r.URL.Path)

		file, header, err := r.FormFile("backup_file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "respaldo.zip", header.Filename)
		assert.Equal(t, "PK-data", string(data))
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "versión incompatible"})
	}))

	res, err := client.RestoreFromFile(context.Background(), "respaldo.zip", strings.NewReader("PK-data"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "versión incompatible", res.FailureText())
}

func TestClient_DownloadBackupStreams(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/backups/3/download/", r.URL.Path)
		_, _ = io.WriteString(w, "binary-archive")
	}))

	var sb strings.Builder
	n, err := client.DownloadBackup(context.Background(), 3, &sb)
	require.NoError(t, err)
	assert.Equal(t, int64(len("binary-archive")), n)
	assert.Equal(t, "binary-archive", sb.String())
}

func TestClient_LoginReturnsCredential(t *testing.T) {
	client := newTestClient(t, &stubResolver{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "foo", body["tienda_slug"])
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  "A",
			"refresh": "R",
			"user":    map[string]any{"id": 8, "email": "c@example.com"},
		})
	}))

	res, err := client.StorefrontLogin(context.Background(), "foo", model.LoginInput{Email: "c@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "A", res.Credential.Access)
	assert.Equal(t, int64(8), res.Credential.IdentityID)
	assert.Equal(t, "foo", res.User.Slug)
}

func TestClient_LoginWithoutAccessTokenFails(t *testing.T) {
	client := newTestClient(t, &stubResolver{}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1}})
	}))

	_, err := client.Login(context.Background(), model.LoginInput{Email: "a@b.es", Password: "x"})
	assert.Error(t, err)
}

func TestClient_ListPlansIsCached(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, &stubResolver{token: "should-not-be-sent"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Cache-Control", "max-age=300")
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nombre": "Básico"}})
	}))

	for range 3 {
		plans, err := client.ListPlans(context.Background())
		require.NoError(t, err)
		require.Len(t, plans, 1)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_AuditLogQuery(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/audit-logs/logs/", r.URL.Path)
		assert.Equal(t, "ana", r.URL.Query().Get("usuario"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	}))

	entries, err := client.ListAuditLog(context.Background(), model.AuditFilter{User: "ana", Page: 2})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestClient_UpdateStoreConfigPatchesConfig(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/tiendas/tiendas/config/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Mi Tienda", body["nombre"])
		assert.Equal(t, "mi-tienda", body["slug"])
		assert.Equal(t, true, body["publicada"])

		body["id"] = 3
		writeJSON(w, http.StatusOK, body)
	}))

	saved, err := client.UpdateStoreConfig(context.Background(), model.StoreConfig{Name: "Mi Tienda", Slug: "mi-tienda", Published: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), saved.ID)
}

func TestClient_StoreStyle(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/store-style/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"color_primario": "#112233", "plantilla": "grilla"})
	}))

	style, err := client.StoreStyle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "#112233", style.PrimaryColor)
	assert.Equal(t, model.StoreLayoutGrid, style.Layout)
}

func TestClient_ListProductsQuery(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tiendas/productos/", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("categoria"))
		assert.Equal(t, "taza", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, map[string]any{"results": []map[string]any{
			{"id": 1, "nombre": "Taza", "precio": "12.50", "stock": 1, "stock_minimo": 3, "categoria": 4},
		}})
	}))

	products, err := client.ListProducts(context.Background(), model.ProductFilter{CategoryID: 4, Search: "taza"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "12.50", products[0].Price.String())
	assert.True(t, products[0].LowStock())
}

func TestClient_ListCategories(t *testing.T) {
	client := newTestClient(t, &stubResolver{token: "t"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tiendas/categorias/", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 4, "nombre": "Cocina", "total_productos": 9}})
	}))

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 9, categories[0].ProductCount)
}
