package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Redirect is set when
// the session of the calling page was invalidated.
type errorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// TransitionResponse is one recommended next state.
type TransitionResponse struct {
	To    string `json:"to"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// LeadResponse is the JSON representation of a lead.
type LeadResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"nombre"`
	Email          string  `json:"email"`
	Phone          string  `json:"telefono"`
	State          string  `json:"estado"`
	StateLabel     string  `json:"estado_label"`
	Source         string  `json:"fuente"`
	EstimatedValue string  `json:"valor_estimado"`
	Probability    int     `json:"probabilidad"`
	PurchaseCount  int     `json:"total_compras"`
	PurchaseTotal  string  `json:"valor_total_compras"`
	PurchaseFreq   float64 `json:"frecuencia_compra"`
	UpdatedAt      string  `json:"fecha_actualizacion,omitempty"`
}

// InteractionResponse is the JSON representation of an interaction.
type InteractionResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"tipo"`
	Description string `json:"descripcion"`
	Value       string `json:"valor,omitempty"`
	CreatedAt   string `json:"fecha,omitempty"`
}

// MetricsResponse is the JSON representation of the pipeline metrics. Stale
// is true when the last refresh failed and the numbers are from before.
type MetricsResponse struct {
	TotalLeads    int            `json:"total_leads"`
	PipelineValue string         `json:"valor_total_pipeline"`
	PurchaseValue string         `json:"valor_total_compras"`
	AvgFrequency  float64        `json:"frecuencia_promedio"`
	ByState       map[string]int `json:"por_estado"`
	Stale         bool           `json:"stale"`
}

// LeadPageResponse is one page of the filtered lead list.
type LeadPageResponse struct {
	Leads    []LeadResponse  `json:"leads"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Metrics  MetricsResponse `json:"metrics"`
}

// LeadDetailResponse is a lead after a state change with what the views
// need to redraw.
type LeadDetailResponse struct {
	Lead         LeadResponse          `json:"lead"`
	Interactions []InteractionResponse `json:"interactions"`
	Transitions  []TransitionResponse  `json:"transitions"`
	Metrics      MetricsResponse       `json:"metrics"`
}

// ChangeStateRequest is the JSON body of the state change endpoint.
type ChangeStateRequest struct {
	State string `json:"estado"`
	Note  string `json:"nota"`
}

// StockAlertResponse is one low-stock product.
type StockAlertResponse struct {
	ProductID int64  `json:"id"`
	Name      string `json:"nombre"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"stock_minimo"`
}

// StockAlertsResponse is the latest stock poll.
type StockAlertsResponse struct {
	Alerts    []StockAlertResponse `json:"alerts"`
	CheckedAt string               `json:"checked_at,omitempty"`
	Error     string               `json:"error,omitempty"`
}

func toTransitionResponses(ts []model.Transition) []TransitionResponse {
	out := make([]TransitionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, TransitionResponse{To: string(t.To), Label: t.Label, Icon: t.Icon})
	}
	return out
}

func toLeadResponse(l model.Lead) LeadResponse {
	resp := LeadResponse{
		ID:             l.ID,
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		State:          string(l.State),
		StateLabel:     l.State.Label(),
		Source:         string(l.Source),
		EstimatedValue: l.EstimatedValue.String(),
		Probability:    l.Probability,
		PurchaseCount:  l.PurchaseCount,
		PurchaseTotal:  l.PurchaseTotal.String(),
		PurchaseFreq:   l.PurchaseFrequency,
	}
	if !l.UpdatedAt.IsZero() {
		resp.UpdatedAt = l.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toInteractionResponse(it model.Interaction) InteractionResponse {
	resp := InteractionResponse{
		ID:          it.ID,
		Type:        string(it.Type),
		Description: it.Description,
	}
	if it.Value != nil {
		resp.Value = it.Value.String()
	}
	if !it.CreatedAt.IsZero() {
		resp.CreatedAt = it.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toMetricsResponse(m model.PipelineMetrics, stale bool) MetricsResponse {
	byState := make(map[string]int, len(model.LeadStates))
	for _, s := range model.LeadStates {
		byState[string(s)] = m.ByState[s]
	}
	return MetricsResponse{
		TotalLeads:    m.TotalLeads,
		PipelineValue: m.PipelineValue.String(),
		PurchaseValue: m.PurchaseValue.String(),
		AvgFrequency:  m.AveragePurchaseFreq,
		ByState:       byState,
		Stale:         stale,
	}
}
