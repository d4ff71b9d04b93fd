package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/blueworldgit/epc-parts-store/pkg/kafka"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

// Kafka topics for checkout and payment domain events.
var (
	TopicCheckoutCompleted = pkgkafka.Topic("checkout", "completed")
	TopicPaymentAuthorized = pkgkafka.Topic("payment", "authorized")
	TopicPaymentDeclined   = pkgkafka.Topic("payment", "declined")
	TopicPaymentRefunded   = pkgkafka.Topic("payment", "refunded")
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypePayment = "payment"
)

// Source identifier for events originating from this service.
const SourceCheckout = "checkout-service"

// CheckoutCompletedData is the payload for a checkout.completed event.
type CheckoutCompletedData struct {
	OrderNumber string `json:"order_number"`
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id,omitempty"`
	PaymentID   string `json:"payment_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	PlacedVia   string `json:"placed_via,omitempty"`
}

// PaymentAuthorizedData is the payload for a payment.authorized event.
type PaymentAuthorizedData struct {
	OrderNumber string `json:"order_number"`
	PaymentID   string `json:"payment_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	CardBrand   string `json:"card_brand,omitempty"`
	Label       string `json:"label"`
}

// PaymentDeclinedData is the payload for a payment.declined event. It carries
// the decline code for analytics, never card details.
type PaymentDeclinedData struct {
	OrderNumber string `json:"order_number"`
	DeclineCode string `json:"decline_code,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// PaymentRefundedData is the payload for a payment.refunded event.
type PaymentRefundedData struct {
	OrderNumber string `json:"order_number"`
	PaymentID   string `json:"payment_id"`
	RefundID    string `json:"refund_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// Producer publishes checkout and payment domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCheckoutCompleted publishes a checkout.completed event.
func (p *Producer) PublishCheckoutCompleted(ctx context.Context, order *domain.Order, paymentID string) error {
	data := CheckoutCompletedData{
		OrderNumber: order.Number,
		OrderID:     order.ID,
		UserID:      order.UserID,
		PaymentID:   paymentID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		PlacedVia:   order.PlacedVia,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutCompleted, order.Number, AggregateTypeOrder, SourceCheckout, data)
	if err != nil {
		return fmt.Errorf("create checkout.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutCompleted, event); err != nil {
		return fmt.Errorf("publish checkout.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.completed event",
		slog.String("order_number", order.Number),
		slog.String("payment_id", paymentID),
	)

	return nil
}

// PublishPaymentAuthorized publishes a payment.authorized event.
func (p *Producer) PublishPaymentAuthorized(ctx context.Context, source *domain.Source) error {
	data := PaymentAuthorizedData{
		OrderNumber: source.OrderNumber,
		PaymentID:   source.Reference,
		Amount:      source.AmountDebited,
		Currency:    source.Currency,
		CardBrand:   source.CardBrand,
		Label:       source.Label,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentAuthorized, source.Reference, AggregateTypePayment, SourceCheckout, data)
	if err != nil {
		return fmt.Errorf("create payment.authorized event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentAuthorized, event); err != nil {
		return fmt.Errorf("publish payment.authorized event: %w", err)
	}

	return nil
}

// PublishPaymentDeclined publishes a payment.declined event.
func (p *Producer) PublishPaymentDeclined(ctx context.Context, orderNumber, declineCode string, amount int64, currency string) error {
	data := PaymentDeclinedData{
		OrderNumber: orderNumber,
		DeclineCode: declineCode,
		Amount:      amount,
		Currency:    currency,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentDeclined, orderNumber, AggregateTypePayment, SourceCheckout, data)
	if err != nil {
		return fmt.Errorf("create payment.declined event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentDeclined, event); err != nil {
		return fmt.Errorf("publish payment.declined event: %w", err)
	}

	return nil
}

// PublishPaymentRefunded publishes a payment.refunded event.
func (p *Producer) PublishPaymentRefunded(ctx context.Context, source *domain.Source, refundID string, amount int64) error {
	data := PaymentRefundedData{
		OrderNumber: source.OrderNumber,
		PaymentID:   source.Reference,
		RefundID:    refundID,
		Amount:      amount,
		Currency:    source.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentRefunded, source.Reference, AggregateTypePayment, SourceCheckout, data)
	if err != nil {
		return fmt.Errorf("create payment.refunded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentRefunded, event); err != nil {
		return fmt.Errorf("publish payment.refunded event: %w", err)
	}

	return nil
}
