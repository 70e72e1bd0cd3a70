package crmapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// ListLeads returns every lead of the tenant.
func (c *Client) ListLeads(ctx context.Context) ([]model.Lead, error) {
	leads, err := getList[model.Lead](ctx, c, "leads/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

// GetLead returns a single lead.
func (c *Client) GetLead(ctx context.Context, id int64) (*model.Lead, error) {
	var lead model.Lead
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("leads/%d/", id), nil, nil, &lead); err != nil {
		return nil, fmt.Errorf("fetching lead %d: %w", id, err)
	}
	return &lead, nil
}

// CreateLead creates a lead from manual form entry.
func (c *Client) CreateLead(ctx context.Context, in model.LeadInput) (*model.Lead, error) {
	var lead model.Lead
	if err := c.doJSON(ctx, http.MethodPost, "leads/", nil, in, &lead); err != nil {
		return nil, fmt.Errorf("creating lead: %w", err)
	}
	return &lead, nil
}

// UpdateLead patches the editable fields of a lead.
func (c *Client) UpdateLead(ctx context.Context, id int64, in model.LeadInput) (*model.Lead, error) {
	var lead model.Lead
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("leads/%d/", id), nil, in, &lead); err != nil {
		return nil, fmt.Errorf("updating lead %d: %w", id, err)
	}
	return &lead, nil
}

type stateChangeBody struct {
	State model.LeadState `json:"estado"`
	Note  string          `json:"nota,omitempty"`
}

// UpdateLeadState moves a lead to another pipeline state.
func (c *Client) UpdateLeadState(ctx context.Context, id int64, to model.LeadState, note string) (*model.Lead, error) {
	var lead model.Lead
	path := fmt.Sprintf("leads/%d/actualizar_estado/", id)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, stateChangeBody{State: to, Note: note}, &lead); err != nil {
		return nil, fmt.Errorf("moving lead %d to %s: %w", id, to, err)
	}
	return &lead, nil
}

// ListInteractions returns the interactions of a lead, oldest first as sent by the API.
func (c *Client) ListInteractions(ctx context.Context, leadID int64) ([]model.Interaction, error) {
	items, err := getList[model.Interaction](ctx, c, fmt.Sprintf("leads/%d/interacciones/", leadID), nil)
	if err != nil {
		return nil, fmt.Errorf("listing interactions of lead %d: %w", leadID, err)
	}
	return items, nil
}

// AddInteraction records a contact event on a lead.
func (c *Client) AddInteraction(ctx context.Context, leadID int64, in model.Interaction) (*model.Interaction, error) {
	body := struct {
		Type        model.InteractionType `json:"tipo"`
		Description string                `json:"descripcion"`
		Value       *model.Amount         `json:"valor,omitempty"`
	}{in.Type, in.Description, in.Value}

	var created model.Interaction
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("leads/%d/interacciones/", leadID), nil, body, &created); err != nil {
		return nil, fmt.Errorf("adding interaction to lead %d: %w", leadID, err)
	}
	return &created, nil
}

// Metrics returns the server-derived pipeline aggregates.
func (c *Client) Metrics(ctx context.Context) (*model.PipelineMetrics, error) {
	var metrics model.PipelineMetrics
	if err := c.doJSON(ctx, http.MethodGet, "leads/metricas/", nil, nil, &metrics); err != nil {
		return nil, fmt.Errorf("fetching pipeline metrics: %w", err)
	}
	if metrics.ByState == nil {
		metrics.ByState = map[model.LeadState]int{}
	}
	return &metrics, nil
}
