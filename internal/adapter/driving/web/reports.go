package web

import (
	"bytes"
	"net/http"
	"time"

	"github.com/ericfisherdev/tiendapanel/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/tiendapanel/internal/application"
	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
)

// SalesReport renders the sales summary of the requested day range.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionReports)
	if !ok {
		return
	}
	filter, err := reportFilter(r, time.Now())
	var report *model.SalesReport
	if err == nil {
		report, err = h.reports.SalesReport(r.Context(), filter)
	}
	if err != nil {
		h.fail(w, r, user, err, "failed to build sales report")
		return
	}
	h.render(w, r, http.StatusOK, h.shell(w, r, "Reportes", user), pages.SalesReport(toSalesReportPage(report)))
}

// ExportSales downloads the orders of the requested day range as CSV. The
// file is built in memory so a failure can still render an error page.
func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireSection(w, r, model.SectionReports)
	if !ok {
		return
	}
	filter, err := reportFilter(r, time.Now())
	var buf bytes.Buffer
	if err == nil {
		err = h.reports.ExportSalesCSV(r.Context(), filter, &buf)
	}
	if err != nil {
		h.fail(w, r, user, err, "failed to export sales")
		return
	}

	name := "ventas-" + filter.From.Format(dateLayout) + "-" + filter.To.Format(dateLayout) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("sales export interrupted", "error", err)
	}
}

// reportFilter reads the desde and hasta dates, defaulting to the last
// application.DefaultReportDays days.
func reportFilter(r *http.Request, now time.Time) (model.ReportFilter, error) {
	filter := application.DefaultReportFilter(now)
	q := r.URL.Query()
	if v := q.Get("desde"); v != "" {
		from, err := time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			return filter, &model.ValidationError{Field: "desde", Message: "fecha inicial inválida"}
		}
		filter.From = from
	}
	if v := q.Get("hasta"); v != "" {
		to, err := time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			return filter, &model.ValidationError{Field: "hasta", Message: "fecha final inválida"}
		}
		filter.To = to
	}
	return filter, nil
}
