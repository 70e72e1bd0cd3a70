package model

import "time"

// ReportFilter is the closed day range of a sales report.
type ReportFilter struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls on a day of the range.
func (f ReportFilter) Contains(t time.Time) bool {
	day := t.In(f.From.Location())
	return !day.Before(f.From) && day.Before(f.To.AddDate(0, 0, 1))
}

// Validate rejects ranges that end before they start.
func (f ReportFilter) Validate() error {
	if f.From.IsZero() || f.To.IsZero() {
		return &ValidationError{Field: "desde", Message: "indica el rango de fechas"}
	}
	if f.To.Before(f.From) {
		return &ValidationError{Field: "hasta", Message: "la fecha final es anterior a la inicial"}
	}
	return nil
}

// Collected reports whether orders in status s count as revenue.
func (s OrderStatus) Collected() bool {
	return s == OrderPaid || s == OrderShipped || s == OrderDelivered
}

// StatusTotal is the order count and amount of one status.
type StatusTotal struct {
	Status OrderStatus
	Orders int
	Total  Amount
}

// DailySales aggregates the orders of one day.
type DailySales struct {
	Day     time.Time
	Orders  int
	Revenue Amount
}

// SalesReport summarizes the storefront orders of a day range. Revenue
// counts collected orders only.
type SalesReport struct {
	Filter        ReportFilter
	Orders        int
	Revenue       Amount
	AverageTicket Amount
	ByStatus      []StatusTotal
	Daily         []DailySales
}
