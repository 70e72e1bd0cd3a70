package model

import "time"

// OrderStatus is the fulfilment state of a storefront order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pendiente"
	OrderPaid      OrderStatus = "pagado"
	OrderShipped   OrderStatus = "enviado"
	OrderDelivered OrderStatus = "entregado"
	OrderCanceled  OrderStatus = "cancelado"
)

// OrderStatuses lists every order status.
var OrderStatuses = []OrderStatus{OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCanceled}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a storefront order.
type Order struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"cliente_nombre"`
	Total        Amount      `json:"total"`
	Status       OrderStatus `json:"estado"`
	CreatedAt    time.Time   `json:"fecha_creacion"`
}

// StockAlert is a product whose stock dropped below its minimum.
type StockAlert struct {
	ProductID int64  `json:"id"`
	Name      string `json:"nombre"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"stock_minimo"`
}

// PaymentMethod is a configured payment option of the storefront.
type PaymentMethod struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	Type    string `json:"tipo"`
	Enabled bool   `json:"activo"`
}

// Plan is a public subscription plan.
type Plan struct {
	ID       int64    `json:"id"`
	Name     string   `json:"nombre"`
	Price    Amount   `json:"precio"`
	Interval string   `json:"intervalo"`
	Features []string `json:"caracteristicas"`
}

// AuditEntry is one row of the tenant audit log.
type AuditEntry struct {
	ID        int64     `json:"id"`
	User      string    `json:"usuario"`
	Action    string    `json:"accion"`
	Resource  string    `json:"recurso"`
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit log query.
type AuditFilter struct {
	User   string
	Action string
	Page   int
}
