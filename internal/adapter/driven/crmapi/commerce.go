package crmapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// ListOrders returns the storefront orders visible to the admin session.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := getList[model.Order](ctx, c, "pedidos-publicos/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// ListMyOrders returns the orders of the logged-in storefront customer.
func (c *Client) ListMyOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := getList[model.Order](ctx, c, "pedidos-publicos/mis-pedidos/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing customer orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus changes the fulfilment status of an order.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	body := map[string]model.OrderStatus{"estado": status}
	var order model.Order
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("pedidos-publicos/%d/estado/", id), nil, body, &order); err != nil {
		return nil, fmt.Errorf("updating order %d: %w", id, err)
	}
	return &order, nil
}

// LowStock returns the products whose stock is under their minimum.
func (c *Client) LowStock(ctx context.Context) ([]model.StockAlert, error) {
	alerts, err := getList[model.StockAlert](ctx, c, "tiendas/productos/stock-bajo/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing low stock products: %w", err)
	}
	return alerts, nil
}

// ListPaymentMethods returns the configured payment methods.
func (c *Client) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	methods, err := getList[model.PaymentMethod](ctx, c, "payments/methods/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing payment methods: %w", err)
	}
	return methods, nil
}

// ListAuditLog returns one page of the audit log.
func (c *Client) ListAuditLog(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	entries, err := getList[model.AuditEntry](ctx, c, "audit-logs/logs/", auditQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	return entries, nil
}

// ExportAuditLog streams the CSV export of the filtered audit log into w.
func (c *Client) ExportAuditLog(ctx context.Context, filter model.AuditFilter, w io.Writer) (int64, error) {
	q := auditQuery(filter)
	q.Del("page")
	n, err := c.stream(ctx, "audit-logs/logs/export/", q, w)
	if err != nil {
		return n, fmt.Errorf("exporting audit log: %w", err)
	}
	return n, nil
}

func auditQuery(filter model.AuditFilter) url.Values {
	q := url.Values{}
	if filter.User != "" {
		q.Set("usuario", filter.User)
	}
	if filter.Action != "" {
		q.Set("accion", filter.Action)
	}
	if filter.Page > 1 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	return q
}
