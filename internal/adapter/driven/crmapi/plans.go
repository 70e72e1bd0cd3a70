package crmapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// ListPlans returns the public subscription plans. Responses are cached
// according to the server's Cache-Control and ETag headers.
func (c *Client) ListPlans(ctx context.Context) ([]model.Plan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("subscriptions/plans/public/", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("building plans request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var env listEnvelope[model.Plan]
	if err := c.send(c.catalog, req, &env); err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	if env.items == nil {
		return []model.Plan{}, nil
	}
	return env.items, nil
}

// CreateCheckoutSession starts a subscription checkout and returns the
// payment page URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, planID int64) (string, error) {
	body := map[string]int64{"plan_id": planID}
	var resp struct {
		URL       string `json:"url"`
		SessionID string `json:"session_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "subscriptions/create-checkout-session/", nil, body, &resp); err != nil {
		return "", fmt.Errorf("creating checkout session for plan %d: %w", planID, err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("checkout session for plan %d: response carries no url", planID)
	}
	return resp.URL, nil
}
