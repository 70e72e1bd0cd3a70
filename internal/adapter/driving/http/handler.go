package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	pipeline *application.PipelineService
	stock    *application.StockAlertService
	guard    *application.SessionGuard
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	pipeline *application.PipelineService,
	stock *application.StockAlertService,
	guard *application.SessionGuard,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pipeline: pipeline,
		stock:    stock,
		guard:    guard,
		logger:   logger,
	}
}

// RegisterAPIRoutes registers the /api/v1 routes on mux. Every route runs
// with the page path of the calling page in its context; writes need a JSON
// body and the CSRF header.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protectWrites(refererPagePath(fn)))
	}

	route("GET /api/v1/health", h.Health)
	route("GET /api/v1/pipeline/transitions", h.ListTransitions)
	route("GET /api/v1/leads", h.ListLeads)
	route("GET /api/v1/leads/metrics", h.GetMetrics)
	route("POST /api/v1/leads/{id}/state", h.ChangeLeadState)
	route("GET /api/v1/stock-alerts", h.ListStockAlerts)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListTransitions returns the transition table, or only the transitions of
// the state given in ?from=.
func (h *Handler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	if from := r.URL.Query().Get("from"); from != "" {
		state := model.LeadState(from)
		if !state.Valid() {
			writeError(w, http.StatusBadRequest, "unknown state "+strconv.Quote(from))
			return
		}
		writeJSON(w, http.StatusOK, toTransitionResponses(model.Transitions(state)))
		return
	}

	resp := make(map[model.LeadState][]TransitionResponse, len(model.LeadStates))
	for _, s := range model.LeadStates {
		resp[s] = toTransitionResponses(model.Transitions(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListLeads returns one filtered page of leads together with the metrics.
// Query parameters: estado, q, page, page_size.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.LeadFilter{
		State:    model.LeadState(q.Get("estado")),
		Search:   q.Get("q"),
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(q.Get("page_size"), application.DefaultLeadPageSize),
	}
	if filter.State != "" && !filter.State.Valid() {
		writeError(w, http.StatusBadRequest, "unknown state "+strconv.Quote(string(filter.State)))
		return
	}

	view, err := h.pipeline.LoadBoard(r.Context())
	if err != nil {
		h.writeFailure(w, r, err, "failed to load leads")
		return
	}

	page, total := application.FilterLeads(view.Leads, filter)
	resp := LeadPageResponse{
		Leads:    make([]LeadResponse, 0, len(page)),
		Total:    total,
		Page:     max(filter.Page, 1),
		PageSize: filter.PageSize,
		Metrics:  toMetricsResponse(view.Metrics, view.MetricsStale),
	}
	for _, l := range page {
		resp.Leads = append(resp.Leads, toLeadResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMetrics returns the server-derived pipeline metrics.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.pipeline.Metrics(r.Context())
	if err != nil {
		h.writeFailure(w, r, err, "failed to load metrics")
		return
	}
	writeJSON(w, http.StatusOK, toMetricsResponse(*metrics, false))
}

// ChangeLeadState moves a lead to another state. The body is
// {"estado": "...", "nota": "..."}; the note is optional.
func (h *Handler) ChangeLeadState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req ChangeStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	to := model.LeadState(strings.TrimSpace(req.State))
	if !to.Valid() {
		writeError(w, http.StatusBadRequest, "unknown state "+strconv.Quote(req.State))
		return
	}

	view := &model.PipelineView{}
	if err := h.pipeline.OpenDetail(r.Context(), view, id); err != nil {
		h.writeFailure(w, r, err, "failed to load lead")
		return
	}

	if err := h.pipeline.Transition(r.Context(), view, id, to, req.Note); err != nil {
		h.writeFailure(w, r, err, "failed to change lead state")
		return
	}

	interactions := make([]InteractionResponse, 0, len(view.Detail.Interactions))
	for _, it := range view.Detail.Interactions {
		interactions = append(interactions, toInteractionResponse(it))
	}

	writeJSON(w, http.StatusOK, LeadDetailResponse{
		Lead:         toLeadResponse(view.Detail.Lead),
		Interactions: interactions,
		Transitions:  toTransitionResponses(model.Transitions(view.Detail.Lead.State)),
		Metrics:      toMetricsResponse(view.Metrics, view.MetricsStale),
	})
}

// ListStockAlerts returns the latest stock poll result.
func (h *Handler) ListStockAlerts(w http.ResponseWriter, _ *http.Request) {
	snap := h.stock.Snapshot()

	resp := StockAlertsResponse{Alerts: make([]StockAlertResponse, 0, len(snap.Alerts))}
	for _, a := range snap.Alerts {
		resp.Alerts = append(resp.Alerts, StockAlertResponse{
			ProductID: a.ProductID,
			Name:      a.Name,
			Stock:     a.Stock,
			MinStock:  a.MinStock,
		})
	}
	if !snap.CheckedAt.IsZero() {
		resp.CheckedAt = snap.CheckedAt.UTC().Format(time.RFC3339)
	}
	if snap.Err != nil {
		resp.Error = application.DescribeFailure(snap.Err).Message
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeFailure is the single error funnel of the JSON API. A 401 from the
// tenant API invalidates the session of the calling page and answers with
// the login location in "redirect".
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	f := application.DescribeFailure(err)

	switch f.Kind {
	case application.FailureUnauthorized:
		redirect, handled := h.guard.HandleUnauthorized(r.Context(), application.PagePath(r.Context()))
		if !handled {
			writeError(w, http.StatusUnauthorized, f.Message)
			return
		}
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: f.Message, Redirect: redirect})
	case application.FailureForbidden:
		writeError(w, http.StatusForbidden, f.Message)
	case application.FailureNotFound:
		writeError(w, http.StatusNotFound, f.Message)
	case application.FailureInvalid:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: f.Message, Field: f.Field})
	case application.FailureUnreachable:
		h.logger.Warn(logMsg, "error", err)
		writeError(w, http.StatusBadGateway, f.Message)
	case application.FailureCanceled:
		writeError(w, http.StatusServiceUnavailable, f.Message)
	default:
		h.logger.Error(logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, f.Message)
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
