package domain

import (
	"time"
)

// Transaction type constants.
const (
	TxnTypeAuthorisation = "authorisation"
	TxnTypeRefund        = "refund"
)

// Transaction status constants.
const (
	TxnStatusComplete = "complete"
	TxnStatusFailed   = "failed"
)

// Source is the payment source recorded against an order after a successful
// authorization. Allocated equals debited equals the order total because the
// gateway captures in a single shot; refunds accumulate separately.
type Source struct {
	ID              string    `json:"id"`
	OrderID         string    `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	Label           string    `json:"label"`
	Currency        string    `json:"currency"`
	AmountAllocated int64     `json:"amount_allocated"`
	AmountDebited   int64     `json:"amount_debited"`
	AmountRefunded  int64     `json:"amount_refunded"`
	Reference       string    `json:"reference"`
	CardBrand       string    `json:"card_brand,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Transaction is an append-only ledger entry under a source. Each gateway
// interaction that moves money gets exactly one row.
type Transaction struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"source_id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
	AuthCode  string    `json:"auth_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
