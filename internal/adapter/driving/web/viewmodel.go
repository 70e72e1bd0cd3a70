package web

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	vm "github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

const (
	timeLayout = "02/01/2006 15:04"
	dayLayout  = "02/01/2006"
	// dateLayout is the value format of <input type="date">.
	dateLayout = "2006-01-02"
)

// sectionPages maps every section to its label and path.
var sectionPages = map[model.Section]vm.NavItem{
	model.SectionDashboard:  {Label: "Inicio", Path: "/"},
	model.SectionCRM:        {Label: "Leads", Path: "/leads"},
	model.SectionStorefront: {Label: "Tienda", Path: "/tienda"},
	model.SectionOrders:     {Label: "Pedidos", Path: "/orders"},
	model.SectionPayments:   {Label: "Pagos", Path: "/pagos"},
	model.SectionReports:    {Label: "Reportes", Path: "/reportes"},
	model.SectionAudit:      {Label: "Auditoría", Path: "/audit"},
	model.SectionBackups:    {Label: "Copias", Path: "/backups"},
	model.SectionSettings:   {Label: "Configuración", Path: "/configuracion"},
}

func navFor(role model.Role, current string) []vm.NavItem {
	var items []vm.NavItem
	for _, s := range model.AccessibleSections(role) {
		item, ok := sectionPages[s]
		if !ok {
			continue
		}
		item.Active = item.Path == current || (item.Path != "/" && strings.HasPrefix(current, item.Path+"/"))
		items = append(items, item)
	}
	return items
}

func displayName(u *model.StoredUser) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func roleLabel(r model.Role) string {
	switch r {
	case model.RoleOwner:
		return "Propietario"
	case model.RoleAdmin:
		return "Administrador"
	case model.RoleSeller:
		return "Vendedor"
	case model.RoleSupport:
		return "Soporte"
	case model.RoleViewer:
		return "Lector"
	default:
		return ""
	}
}

func formatAmount(a model.Amount) string {
	return "$ " + a.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func formatSize(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1<<10:
		return strconv.FormatInt(n, 10) + " B"
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	case n < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	}
}

func leadPath(id int64) string {
	return "/leads/" + strconv.FormatInt(id, 10)
}

func toTransitionButtons(lead model.Lead) []vm.TransitionButton {
	offered := model.Transitions(lead.State)
	buttons := make([]vm.TransitionButton, 0, len(offered))
	for _, t := range offered {
		buttons = append(buttons, vm.TransitionButton{
			To:     string(t.To),
			Label:  t.Label,
			Icon:   t.Icon,
			Action: leadPath(lead.ID) + "/estado",
		})
	}
	return buttons
}

func toLeadRow(l model.Lead) vm.LeadRow {
	return vm.LeadRow{
		ID:             l.ID,
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		State:          string(l.State),
		StateLabel:     l.State.Label(),
		Source:         sourceLabel(l.Source),
		EstimatedValue: formatAmount(l.EstimatedValue),
		Probability:    l.Probability,
		DetailPath:     leadPath(l.ID),
		Transitions:    toTransitionButtons(l),
	}
}

func toMetrics(m model.PipelineMetrics, stale bool) vm.Metrics {
	out := vm.Metrics{
		TotalLeads:    m.TotalLeads,
		PipelineValue: formatAmount(m.PipelineValue),
		PurchaseValue: formatAmount(m.PurchaseValue),
		AvgFrequency:  strconv.FormatFloat(m.AveragePurchaseFreq, 'f', 1, 64),
		Stale:         stale,
	}
	for _, s := range model.LeadStates {
		out.ByState = append(out.ByState, vm.StateCount{State: string(s), Label: s.Label(), Count: m.ByState[s]})
	}
	return out
}

func toLeadList(view *model.PipelineView, filter model.LeadFilter) vm.LeadList {
	page, total := application.FilterLeads(view.Leads, filter)
	size := filter.PageSize
	if size <= 0 {
		size = application.DefaultLeadPageSize
	}
	pages := max(1, int(math.Ceil(float64(total)/float64(size))))
	current := min(max(filter.Page, 1), pages)

	rows := make([]vm.LeadRow, 0, len(page))
	for _, l := range page {
		rows = append(rows, toLeadRow(l))
	}

	list := vm.LeadList{
		Rows:         rows,
		Total:        total,
		Page:         current,
		Pages:        pages,
		Search:       filter.Search,
		StateOptions: stateOptions(filter.State),
		Metrics:      toMetrics(view.Metrics, view.MetricsStale),
		Form:         vm.LeadForm{Action: "/leads", Probability: "0", SourceOptions: sourceOptions(model.LeadSourceManual)},
	}
	if current > 1 {
		list.PrevPath = leadListPath(filter, current-1)
	}
	if current < pages {
		list.NextPath = leadListPath(filter, current+1)
	}
	return list
}

func leadListPath(filter model.LeadFilter, page int) string {
	q := make([]string, 0, 3)
	q = append(q, "estado="+string(filter.State))
	if filter.Search != "" {
		q = append(q, "q="+url.QueryEscape(filter.Search))
	}
	q = append(q, "page="+strconv.Itoa(page))
	return "/leads?" + strings.Join(q, "&")
}

func toLeadForm(l model.Lead) vm.LeadForm {
	return vm.LeadForm{
		Action:         leadPath(l.ID),
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		EstimatedValue: l.EstimatedValue.String(),
		Probability:    strconv.Itoa(l.Probability),
		Notes:          l.Notes,
		SourceOptions:  sourceOptions(l.Source),
	}
}

func toLeadDetail(view *model.PipelineView) vm.LeadDetail {
	lead := view.Detail.Lead
	detail := vm.LeadDetail{
		Lead:              toLeadRow(lead),
		NotesHTML:         RenderMarkdown(lead.Notes),
		PurchaseCount:     lead.PurchaseCount,
		PurchaseTotal:     formatAmount(lead.PurchaseTotal),
		PurchaseFrequency: strconv.FormatFloat(lead.PurchaseFrequency, 'f', 1, 64),
		UpdatedAt:         formatTime(lead.UpdatedAt),
		InteractionAction: leadPath(lead.ID) + "/interacciones",
		InteractionTypes:  interactionTypeOptions(),
		Form:              toLeadForm(lead),
		Metrics:           toMetrics(view.Metrics, view.MetricsStale),
	}
	for _, it := range view.Detail.Interactions {
		item := vm.Interaction{
			TypeLabel:       interactionLabel(it.Type),
			DescriptionHTML: RenderMarkdown(it.Description),
			When:            formatTime(it.CreatedAt),
		}
		if it.Value != nil {
			item.Value = formatAmount(*it.Value)
		}
		detail.Interactions = append(detail.Interactions, item)
	}

	base := leadPath(lead.ID) + "/contacto/"
	if lead.Phone != "" {
		detail.Contacts = append(detail.Contacts,
			vm.ContactLink{Label: "Llamar", Action: base + string(application.ContactCall)},
			vm.ContactLink{Label: "WhatsApp", Action: base + string(application.ContactWhatsApp)},
		)
	}
	if lead.Email != "" {
		detail.Contacts = append(detail.Contacts, vm.ContactLink{Label: "Email", Action: base + string(application.ContactEmail)})
	}
	return detail
}

func stateOptions(selected model.LeadState) []vm.Option {
	opts := make([]vm.Option, 0, len(model.LeadStates))
	for _, s := range model.LeadStates {
		opts = append(opts, vm.Option{Value: string(s), Label: s.Label(), Selected: s == selected})
	}
	return opts
}

func sourceLabel(s model.LeadSource) string {
	switch s {
	case model.LeadSourceManual:
		return "Manual"
	case model.LeadSourceStorefront:
		return "Tienda"
	case model.LeadSourceEcommerce:
		return "E-commerce"
	case model.LeadSourceSocial:
		return "Redes sociales"
	case model.LeadSourceReferral:
		return "Referido"
	case model.LeadSourceOther:
		return "Otro"
	default:
		return string(s)
	}
}

func sourceOptions(selected model.LeadSource) []vm.Option {
	opts := make([]vm.Option, 0, len(model.LeadSources))
	for _, s := range model.LeadSources {
		opts = append(opts, vm.Option{Value: string(s), Label: sourceLabel(s), Selected: s == selected})
	}
	return opts
}

var interactionTypes = []model.InteractionType{
	model.InteractionCall,
	model.InteractionEmail,
	model.InteractionMeeting,
	model.InteractionWhatsApp,
	model.InteractionPurchase,
	model.InteractionOther,
}

func interactionLabel(t model.InteractionType) string {
	switch t {
	case model.InteractionCall:
		return "Llamada"
	case model.InteractionEmail:
		return "Email"
	case model.InteractionMeeting:
		return "Reunión"
	case model.InteractionPurchase:
		return "Compra"
	case model.InteractionWhatsApp:
		return "WhatsApp"
	case model.InteractionOther:
		return "Otro"
	default:
		return string(t)
	}
}

func interactionTypeOptions() []vm.Option {
	opts := make([]vm.Option, 0, len(interactionTypes))
	for _, t := range interactionTypes {
		opts = append(opts, vm.Option{Value: string(t), Label: interactionLabel(t)})
	}
	return opts
}

func backupStatusLabel(s model.BackupStatus) string {
	switch s {
	case model.BackupPending:
		return "En curso"
	case model.BackupCompleted:
		return "Completada"
	case model.BackupFailed:
		return "Fallida"
	default:
		return string(s)
	}
}

func toBackupRows(backups []model.Backup) []vm.BackupRow {
	rows := make([]vm.BackupRow, 0, len(backups))
	for _, b := range backups {
		base := "/backups/" + strconv.FormatInt(b.ID, 10)
		rows = append(rows, vm.BackupRow{
			ID:            b.ID,
			CreatedAt:     formatTime(b.CreatedAt),
			Status:        string(b.Status),
			StatusLabel:   backupStatusLabel(b.Status),
			Size:          formatSize(b.SizeBytes),
			DownloadPath:  base + "/download",
			DeleteAction:  base + "/delete",
			RestoreAction: base + "/restore",
		})
	}
	return rows
}

func orderStatusLabel(s model.OrderStatus) string {
	switch s {
	case model.OrderPending:
		return "Pendiente"
	case model.OrderPaid:
		return "Pagado"
	case model.OrderShipped:
		return "Enviado"
	case model.OrderDelivered:
		return "Entregado"
	case model.OrderCanceled:
		return "Cancelado"
	default:
		return string(s)
	}
}

func toOrderRows(orders []model.Order) []vm.OrderRow {
	rows := make([]vm.OrderRow, 0, len(orders))
	for _, o := range orders {
		opts := make([]vm.Option, 0, len(model.OrderStatuses))
		for _, s := range model.OrderStatuses {
			opts = append(opts, vm.Option{Value: string(s), Label: orderStatusLabel(s), Selected: s == o.Status})
		}
		rows = append(rows, vm.OrderRow{
			ID:            o.ID,
			Customer:      o.CustomerName,
			Total:         formatAmount(o.Total),
			Status:        string(o.Status),
			StatusLabel:   orderStatusLabel(o.Status),
			CreatedAt:     formatTime(o.CreatedAt),
			StatusAction:  "/orders/" + strconv.FormatInt(o.ID, 10) + "/estado",
			StatusOptions: opts,
		})
	}
	return rows
}

func toAuditPage(entries []model.AuditEntry, filter model.AuditFilter, hasMore bool) vm.AuditPage {
	page := vm.AuditPage{
		User:       filter.User,
		Action:     filter.Action,
		Page:       max(filter.Page, 1),
		ExportPath: "/audit/export" + auditQuery(filter, 0),
	}
	for _, e := range entries {
		page.Rows = append(page.Rows, vm.AuditRow{
			When:     formatTime(e.Timestamp),
			User:     e.User,
			Action:   e.Action,
			Resource: e.Resource,
			IP:       e.IP,
		})
	}
	if page.Page > 1 {
		page.PrevPath = "/audit" + auditQuery(filter, page.Page-1)
	}
	if hasMore {
		page.NextPath = "/audit" + auditQuery(filter, page.Page+1)
	}
	return page
}

func auditQuery(filter model.AuditFilter, page int) string {
	var q []string
	if filter.User != "" {
		q = append(q, "usuario="+url.QueryEscape(filter.User))
	}
	if filter.Action != "" {
		q = append(q, "accion="+url.QueryEscape(filter.Action))
	}
	if page > 0 {
		q = append(q, "page="+strconv.Itoa(page))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + strings.Join(q, "&")
}

func toPaymentMethods(methods []model.PaymentMethod) []vm.PaymentMethod {
	out := make([]vm.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		out = append(out, vm.PaymentMethod{Name: m.Name, Kind: m.Type, Enabled: m.Enabled})
	}
	return out
}

func toPlans(plans []model.Plan) []vm.Plan {
	out := make([]vm.Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, vm.Plan{
			ID:             p.ID,
			Name:           p.Name,
			Price:          formatAmount(p.Price),
			Interval:       p.Interval,
			Features:       p.Features,
			CheckoutAction: "/precios/" + strconv.FormatInt(p.ID, 10) + "/checkout",
		})
	}
	return out
}

func toStockAlerts(alerts []model.StockAlert) []vm.StockAlert {
	out := make([]vm.StockAlert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, vm.StockAlert{Name: a.Name, Stock: a.Stock, MinStock: a.MinStock})
	}
	return out
}

func toCatalogPage(c *application.Catalog, filter model.ProductFilter) vm.CatalogPage {
	page := vm.CatalogPage{Search: filter.Search, LowStock: c.LowStock}
	names := make(map[int64]string, len(c.Categories))
	page.CategoryOptions = append(page.CategoryOptions, vm.Option{Value: "", Label: "Todas las categorías", Selected: filter.CategoryID == 0})
	for _, cat := range c.Categories {
		names[cat.ID] = cat.Name
		id := strconv.FormatInt(cat.ID, 10)
		page.Categories = append(page.Categories, vm.CategoryRow{
			Name:     cat.Name,
			Products: cat.ProductCount,
			Path:     "/tienda?categoria=" + id,
			Active:   cat.ID == filter.CategoryID,
		})
		page.CategoryOptions = append(page.CategoryOptions, vm.Option{Value: id, Label: cat.Name, Selected: cat.ID == filter.CategoryID})
	}
	for _, p := range c.Products {
		page.Rows = append(page.Rows, vm.ProductRow{
			Name:     p.Name,
			SKU:      p.SKU,
			Category: names[p.CategoryID],
			Price:    formatAmount(p.Price),
			Stock:    p.Stock,
			MinStock: p.MinStock,
			LowStock: p.LowStock(),
			Active:   p.Active,
		})
	}
	return page
}

func layoutLabel(l model.StoreLayout) string {
	switch l {
	case model.StoreLayoutClassic:
		return "Clásica"
	case model.StoreLayoutGrid:
		return "Grilla"
	case model.StoreLayoutMinimal:
		return "Minimalista"
	default:
		return string(l)
	}
}

func toSettingsPage(cfg *model.StoreConfig, style *model.StoreStyle) vm.SettingsPage {
	page := vm.SettingsPage{
		Config: vm.StoreConfigForm{
			Action:       "/configuracion/tienda",
			Name:         cfg.Name,
			Slug:         cfg.Slug,
			Description:  cfg.Description,
			ContactEmail: cfg.ContactEmail,
			Phone:        cfg.Phone,
			Address:      cfg.Address,
			Published:    cfg.Published,
		},
		Style: vm.StoreStyleForm{
			Action:          "/configuracion/estilo",
			PrimaryColor:    style.PrimaryColor,
			SecondaryColor:  style.SecondaryColor,
			BackgroundColor: style.BackgroundColor,
			Font:            style.Font,
		},
	}
	for _, l := range model.StoreLayouts {
		page.Style.LayoutOptions = append(page.Style.LayoutOptions, vm.Option{Value: string(l), Label: layoutLabel(l), Selected: l == style.Layout})
	}
	if cfg.Published && cfg.Slug != "" {
		page.PublicPath = storefrontBase(cfg.Slug) + "/login"
	}
	return page
}

func toSalesReportPage(report *model.SalesReport) vm.SalesReportPage {
	from := report.Filter.From.Format(dateLayout)
	to := report.Filter.To.Format(dateLayout)
	page := vm.SalesReportPage{
		From:          from,
		To:            to,
		Orders:        report.Orders,
		Revenue:       formatAmount(report.Revenue),
		AverageTicket: formatAmount(report.AverageTicket),
		ExportPath:    "/reportes/ventas.csv?" + url.Values{"desde": {from}, "hasta": {to}}.Encode(),
	}
	for _, st := range report.ByStatus {
		page.ByStatus = append(page.ByStatus, vm.StatusTotalRow{Label: orderStatusLabel(st.Status), Orders: st.Orders, Total: formatAmount(st.Total)})
	}
	for _, d := range report.Daily {
		page.Daily = append(page.Daily, vm.DailySalesRow{Day: d.Day.Format(dayLayout), Orders: d.Orders, Revenue: formatAmount(d.Revenue)})
	}
	return page
}
