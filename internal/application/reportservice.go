package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// DefaultReportDays is the range of a sales report opened without dates.
const DefaultReportDays = 30

// ReportService builds sales reports from the storefront orders.
type ReportService struct {
	api    driven.CommerceAPI
	logger *slog.Logger
}

// NewReportService creates a ReportService.
func NewReportService(api driven.CommerceAPI, logger *slog.Logger) *ReportService {
	return &ReportService{api: api, logger: logger}
}

// DefaultReportFilter covers the DefaultReportDays days ending on now's day.
func DefaultReportFilter(now time.Time) model.ReportFilter {
	to := startOfDay(now)
	return model.ReportFilter{From: to.AddDate(0, 0, -(DefaultReportDays - 1)), To: to}
}

// SalesReport aggregates the orders created within filter.
func (s *ReportService) SalesReport(ctx context.Context, filter model.ReportFilter) (*model.SalesReport, error) {
	orders, err := s.ordersIn(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &model.SalesReport{Filter: filter, Orders: len(orders)}
	byStatus := make(map[model.OrderStatus]*model.StatusTotal, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		byStatus[st] = &model.StatusTotal{Status: st}
	}
	daily := map[time.Time]*model.DailySales{}
	collected := 0

	for _, o := range orders {
		if t, ok := byStatus[o.Status]; ok {
			t.Orders++
			t.Total += o.Total
		}

		day := startOfDay(o.CreatedAt.In(filter.From.Location()))
		d, ok := daily[day]
		if !ok {
			d = &model.DailySales{Day: day}
			daily[day] = d
		}
		d.Orders++

		if o.Status.Collected() {
			collected++
			report.Revenue += o.Total
			d.Revenue += o.Total
		}
	}

	if collected > 0 {
		report.AverageTicket = report.Revenue / model.Amount(collected)
	}
	for _, st := range model.OrderStatuses {
		report.ByStatus = append(report.ByStatus, *byStatus[st])
	}
	for _, d := range daily {
		report.Daily = append(report.Daily, *d)
	}
	sort.Slice(report.Daily, func(i, j int) bool { return report.Daily[i].Day.Before(report.Daily[j].Day) })
	return report, nil
}

// ExportSalesCSV writes the orders created within filter as CSV, oldest
// first.
func (s *ReportService) ExportSalesCSV(ctx context.Context, filter model.ReportFilter, w io.Writer) error {
	orders, err := s.ordersIn(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pedido", "fecha", "cliente", "estado", "total", "cobrado"}); err != nil {
		return fmt.Errorf("write sales header: %w", err)
	}
	for _, o := range orders {
		row := []string{
			strconv.FormatInt(o.ID, 10),
			o.CreatedAt.In(filter.From.Location()).Format("2006-01-02 15:04"),
			o.CustomerName,
			string(o.Status),
			o.Total.String(),
			strconv.FormatBool(o.Status.Collected()),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write sales row %d: %w", o.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush sales csv: %w", err)
	}
	return nil
}

// ordersIn lists the orders created within filter, oldest first.
func (s *ReportService) ordersIn(ctx context.Context, filter model.ReportFilter) ([]model.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	all, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	for _, o := range all {
		if filter.Contains(o.CreatedAt) {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	s.logger.Debug("sales report orders", "from", filter.From, "to", filter.To, "matched", len(orders), "total", len(all))
	return orders, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
