package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// auditPageSize is the page size of the audit log endpoint.
const auditPageSize = 50

// Home renders the landing page for visitors and the dashboard for
// logged-in operators.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := h.currentUser(ctx, model.AdminSession)
	if user == nil {
		h.render(w, r, http.StatusOK, h.shell(w, r, "Inicio", nil), pages.Landing())
		return
	}

	shell := h.shell(w, r, "Inicio", user)
	data := vm.Dashboard{UserName: shell.UserName}
	for _, item := range shell.Nav {
		if item.Path != "/" {
			data.Sections = append(data.Sections, item)
		}
	}

	if slugs, err := h.auth.StorefrontSessions(ctx); err != nil {
		h.logger.Warn("failed to list storefront sessions", "error", err)
	} else {
		for _, slug := range slugs {
			data.Storefronts = append(data.Storefronts, vm.NavItem{Label: slug, Path: storefrontBase(slug) + "/pedidos"})
		}
	}

	if model.CanAccess(user.Role, model.SectionStorefront) {
		snap := h.stock.Snapshot()
		data.Alerts = toStockAlerts(snap.Alerts)
		data.CheckedAt = formatTime(snap.CheckedAt)
		if snap.Err != nil {
			data.AlertsError = application.DescribeFailure(snap.Err).Message
		}
	}

	if model.CanAccess(user.Role, model.SectionCRM) {
		if metrics, err := h.pipeline.Metrics(ctx); err != nil {
			h.logger.Warn("failed to load dashboard metrics", "error", err)
		} else {
			m := toMetrics(*metrics, false)
			data.Metrics = &m
		}
	}

	h.render(w, r, http.StatusOK, shell, pages.Dashboard(data))
}

// Pricing renders the public plan catalog.
func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r.Context(), model.AdminSession)
	data := vm.PricingPage{LoggedIn: user != nil}

	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		f := application.DescribeFailure(err)
		h.logFailure(f, err, "failed to list plans")
		data.Error = f.Message
	}
	data.Plans = toPlans(plans)

	shell := h.shell(w, r, "Planes", user)
	h.render(w, r, http.StatusOK, shell, pages.Pricing(data, shell.CSRFToken))
}

// Checkout starts a subscription checkout and sends the operator to the
// payment provider.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if user := h.currentUser(r.Context(), model.AdminSession); user == nil {
		http.Redirect(w, r, "/login?next=%2Fprecios", http.StatusSeeOther)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	target, err := h.plans.CreateCheckoutSession(r.Context(), id)
	if err == nil {
		if u, perr := url.Parse(target); perr != nil || (u.Scheme != "https" && u.Scheme != "http") {
			err = &model.ValidationError{Message: "la API devolvió un enlace de pago inválido"}
		}
	}
	if err != nil {
		h.failBack(w, r, err, "/precios", "failed to create checkout session")
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Orders lists the storefront orders.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionOrders)
	if !ok {
		return
	}
	orders, err := h.commerce.ListOrders(r.Context())
	if err != nil {
		h.fail(w, r, user, err, "failed to list orders")
		return
	}
	shell := h.shell(w, r, "Pedidos", user)
	h.render(w, r, http.StatusOK, shell, pages.Orders(vm.OrdersPage{Rows: toOrderRows(orders)}, shell.CSRFToken))
}

// UpdateOrderStatus changes the fulfilment status of an order.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSection(w, r, model.SectionOrders); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	status := model.OrderStatus(r.PostFormValue("estado"))
	if !status.Valid() {
		h.failBack(w, r, &model.ValidationError{Field: "estado", Message: "estado de pedido desconocido"}, "/orders", "invalid order status")
		return
	}
	if _, err := h.commerce.UpdateOrderStatus(r.Context(), id, status); err != nil {
		h.failBack(w, r, err, "/orders", "failed to update order status")
		return
	}
	setFlash(w, flashOK, "Pedido #"+strconv.FormatInt(id, 10)+" marcado como "+orderStatusLabel(status)+".")
	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

// StorefrontOrders lists the orders of the customer logged into a storefront.
func (h *Handler) StorefrontOrders(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	ctx := r.Context()
	base := storefrontBase(slug)

	customer := h.currentUser(ctx, model.StorefrontSession(slug))
	if customer == nil {
		http.Redirect(w, r, base+"/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
		return
	}

	shell := h.shell(w, r, "Mis pedidos", nil)
	shell.StorefrontSlug = slug
	shell.UserName = displayName(customer)

	orders, err := h.commerce.ListMyOrders(ctx)
	if err != nil {
		f := application.DescribeFailure(err)
		if h.redirectUnauthorized(w, r, f) {
			return
		}
		h.logFailure(f, err, "failed to list customer orders")
		h.render(w, r, failureStatus(f.Kind), shell, templates.ErrorPage(vm.ErrorPage{Status: failureStatus(f.Kind), Message: f.Message}))
		return
	}

	page := vm.OrdersPage{Rows: toOrderRows(orders), Storefront: true, LogoutPath: base + "/logout"}
	h.render(w, r, http.StatusOK, shell, pages.Orders(page, shell.CSRFToken))
}

// Payments lists the configured payment methods.
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionPayments)
	if !ok {
		return
	}
	methods, err := h.commerce.ListPaymentMethods(r.Context())
	if err != nil {
		h.fail(w, r, user, err, "failed to list payment methods")
		return
	}
	h.render(w, r, http.StatusOK, h.shell(w, r, "Pagos", user), pages.Payments(toPaymentMethods(methods)))
}

// Audit renders one page of the audit log.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionAudit)
	if !ok {
		return
	}
	filter := auditFilter(r)
	entries, err := h.commerce.ListAuditLog(r.Context(), filter)
	if err != nil {
		h.fail(w, r, user, err, "failed to list audit log")
		return
	}
	page := toAuditPage(entries, filter, len(entries) >= auditPageSize)
	h.render(w, r, http.StatusOK, h.shell(w, r, "Auditoría", user), pages.Audit(page))
}

// ExportAudit passes the API's CSV export through to the browser.
func (h *Handler) ExportAudit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionAudit)
	if !ok {
		return
	}
	filter := auditFilter(r)
	filter.Page = 0

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="auditoria.csv"`)

	n, err := h.commerce.ExportAuditLog(r.Context(), filter, w)
	if err == nil {
		return
	}
	if n > 0 {
		h.logger.Error("audit export interrupted", "bytes", n, "error", err)
		return
	}
	w.Header().Del("Content-Disposition")
	w.Header().Del("Content-Type")
	h.fail(w, r, user, err, "failed to export audit log")
}

func auditFilter(r *http.Request) model.AuditFilter {
	q := r.URL.Query()
	filter := model.AuditFilter{
		User:   strings.TrimSpace(q.Get("usuario")),
		Action: strings.TrimSpace(q.Get("accion")),
		Page:   1,
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	return filter
}
