package domain

import (
	"time"
)

// Submission status constants. A submission moves from awaiting_card_details
// to authorizing while a gateway call is in flight; terminal outcomes are not
// stored on the submission because it is deleted on completion.
const (
	SubmissionAwaitingCardDetails = "awaiting_card_details"
	SubmissionAuthorizing         = "authorizing"
)

// Submission is a session-scoped snapshot of everything needed to place an
// order once payment is authorized: the frozen basket, addresses, shipping
// method and the reserved order number. It lives in Redis for the duration of
// the payment step and is removed when the order materializes or the customer
// restarts checkout.
type Submission struct {
	SessionID       string     `json:"session_id"`
	OrderNumber     string     `json:"order_number"`
	Status          string     `json:"status"`
	UserID          string     `json:"user_id,omitempty"`
	Basket          Basket     `json:"basket"`
	ShippingAddress *Address   `json:"shipping_address,omitempty"`
	BillingAddress  *Address   `json:"billing_address,omitempty"`
	ShippingMethod  string     `json:"shipping_method"`
	ShippingAmount  int64      `json:"shipping_amount"`
	Currency        string     `json:"currency"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Basket is the frozen basket contents attached to a submission.
type Basket struct {
	Lines []BasketLine `json:"lines"`
}

// BasketLine is a single priced line in the frozen basket.
type BasketLine struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Address is a shipping or billing address snapshot.
type Address struct {
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	Phone       string `json:"phone,omitempty"`
}

// Subtotal computes the basket subtotal (unit price * quantity per line).
func (b Basket) Subtotal() int64 {
	var subtotal int64
	for _, line := range b.Lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	return subtotal
}

// IsEmpty reports whether the basket has no purchasable lines.
func (b Basket) IsEmpty() bool {
	for _, line := range b.Lines {
		if line.Quantity > 0 {
			return false
		}
	}
	return true
}

// Total is the amount the customer is charged: basket subtotal plus shipping.
func (s *Submission) Total() int64 {
	return s.Basket.Subtotal() + s.ShippingAmount
}
