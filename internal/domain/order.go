package domain

import (
	"time"
)

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// Order is a placed order row. The order number is reserved before payment and
// is unique across the store; the database enforces that with a unique
// constraint so the same authorization can never produce two orders.
type Order struct {
	ID              string      `json:"id"`
	Number          string      `json:"number"`
	UserID          string      `json:"user_id,omitempty"`
	Status          string      `json:"status"`
	Currency        string      `json:"currency"`
	SubtotalAmount  int64       `json:"subtotal_amount"`
	ShippingAmount  int64       `json:"shipping_amount"`
	TotalAmount     int64       `json:"total_amount"`
	ShippingMethod  string      `json:"shipping_method,omitempty"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`
	Lines           []OrderLine `json:"lines"`
	PlacedVia       string      `json:"placed_via,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderLine is a single purchased line on an order.
type OrderLine struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductSlug string `json:"product_slug,omitempty"`
	SKU         string `json:"sku"`
	Title       string `json:"title"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
}

// ValidOrderStatuses returns the set of valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusShipped,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}

// IsValidOrderStatus checks whether the given status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
