package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blueworldgit/epc-parts-store/internal/domain"
	"github.com/blueworldgit/epc-parts-store/internal/gateway"
	"github.com/blueworldgit/epc-parts-store/internal/repository"
	"github.com/blueworldgit/epc-parts-store/internal/session"
	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
)

// PaymentGateway is the outbound payment processor interface.
// gateway.Client satisfies this.
type PaymentGateway interface {
	Authorize(ctx context.Context, input gateway.AuthorizeInput) *gateway.RawResponse
	Refund(ctx context.Context, input gateway.RefundInput) (string, error)
	Live() bool
}

// Materializer converts an authorized submission into a persisted order.
type Materializer interface {
	Materialize(ctx context.Context, sub *domain.Submission) (*domain.Order, error)
}

// Recorder writes the payment ledger entries for an authorized charge.
type Recorder interface {
	RecordAuthorization(ctx context.Context, order *domain.Order, result gateway.Result, card domain.Card) (*domain.Source, error)
}

// EventPublisher publishes checkout and payment domain events.
// event.Producer satisfies this.
type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, order *domain.Order, paymentID string) error
	PublishPaymentAuthorized(ctx context.Context, source *domain.Source) error
	PublishPaymentDeclined(ctx context.Context, orderNumber, declineCode string, amount int64, currency string) error
	PublishPaymentRefunded(ctx context.Context, source *domain.Source, refundID string, amount int64) error
}

// CheckoutService orchestrates the checkout flow: it holds the in-progress
// submission, charges the card through the gateway, and on success turns the
// submission into an order with matching ledger entries.
type CheckoutService struct {
	store        session.Store
	sequence     session.NumberSequence
	gateway      PaymentGateway
	materializer Materializer
	recorder     Recorder
	orders       repository.OrderRepository
	ledger       repository.LedgerRepository
	producer     EventPublisher
	logger       *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	store session.Store,
	sequence session.NumberSequence,
	gw PaymentGateway,
	materializer Materializer,
	recorder Recorder,
	orders repository.OrderRepository,
	ledger repository.LedgerRepository,
	producer EventPublisher,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		store:        store,
		sequence:     sequence,
		gateway:      gw,
		materializer: materializer,
		recorder:     recorder,
		orders:       orders,
		ledger:       ledger,
		producer:     producer,
		logger:       logger,
	}
}

// BeginCheckoutInput holds the parameters for starting a checkout.
type BeginCheckoutInput struct {
	UserID          string
	Basket          domain.Basket
	ShippingAddress *domain.Address
	BillingAddress  *domain.Address
	ShippingMethod  string
	ShippingAmount  int64
	Currency        string
}

// BeginCheckout validates the basket, assigns an order number, and stores a
// new submission for the session. An existing submission under the same
// session is replaced.
func (s *CheckoutService) BeginCheckout(ctx context.Context, sessionID string, input *BeginCheckoutInput) (*domain.Submission, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("checkout input is required")
	}
	if input.Basket.IsEmpty() {
		return nil, apperrors.InvalidInput("basket must contain at least one line")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
	}
	if input.ShippingAmount < 0 {
		return nil, apperrors.InvalidInput("shipping amount must not be negative")
	}
	for i, line := range input.Basket.Lines {
		if line.UnitPrice <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("line %d: unit price must be greater than 0", i))
		}
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("line %d: quantity must be greater than 0", i))
		}
	}

	number, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}

	now := time.Now().UTC()
	sub := &domain.Submission{
		SessionID:       sessionID,
		OrderNumber:     number,
		Status:          domain.SubmissionAwaitingCardDetails,
		UserID:          input.UserID,
		Basket:          input.Basket,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		ShippingMethod:  input.ShippingMethod,
		ShippingAmount:  input.ShippingAmount,
		Currency:        strings.ToUpper(input.Currency),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if sub.Total() <= 0 {
		return nil, apperrors.InvalidInput("order total must be greater than 0")
	}

	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout started",
		slog.String("session_id", sessionID),
		slog.String("order_number", number),
		slog.Int64("total_amount", sub.Total()),
	)

	return sub, nil
}

// GetSubmission returns the in-progress submission for a session.
func (s *CheckoutService) GetSubmission(ctx context.Context, sessionID string) (*domain.Submission, error) {
	sub, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	return sub, nil
}

// CancelCheckout discards the in-progress submission for a session. It is
// idempotent: cancelling a session with no submission succeeds.
func (s *CheckoutService) CancelCheckout(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear submission: %w", err)
	}
	s.logger.InfoContext(ctx, "checkout cancelled",
		slog.String("session_id", sessionID),
	)
	return nil
}

// Confirmation is the successful outcome of a card submission.
type Confirmation struct {
	OrderNumber string `json:"order_number"`
	PaymentID   string `json:"payment_id"`
	AuthCode    string `json:"auth_code,omitempty"`
	CardLabel   string `json:"card_label"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// SubmitCard takes card details for the session's submission, charges the
// card through the gateway, and on approval places the order and records the
// payment. The gateway is called exactly once per submission; no outcome is
// ever retried from here.
func (s *CheckoutService) SubmitCard(ctx context.Context, sessionID string, card domain.Card) (*Confirmation, error) {
	sub, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Gone("checkout session has expired, please start again")
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}

	card = card.Normalize()
	if err := card.Validate(time.Now().UTC()); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	sub.Status = domain.SubmissionAuthorizing
	sub.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("mark submission authorizing: %w", err)
	}

	raw := s.gateway.Authorize(ctx, gateway.AuthorizeInput{
		OrderNumber:    sub.OrderNumber,
		Amount:         sub.Total(),
		Currency:       sub.Currency,
		Card:           card,
		BillingAddress: sub.BillingAddress,
	})

	result := gateway.Classify(raw, s.gateway.Live())

	switch result.Outcome {
	case gateway.OutcomeAuthorized:
		return s.completeAuthorized(ctx, sub, result, card)

	case gateway.OutcomeRefused:
		s.revertToAwaitingCard(ctx, sub)
		s.logger.InfoContext(ctx, "payment refused",
			slog.String("order_number", sub.OrderNumber),
			slog.String("decline_code", result.DeclineCode),
			slog.Bool("test_card_in_live_mode", result.TestCardInLiveMode),
		)
		if err := s.producer.PublishPaymentDeclined(ctx, sub.OrderNumber, result.DeclineCode, sub.Total(), sub.Currency); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment.declined event",
				slog.String("order_number", sub.OrderNumber),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.PaymentFailed(result.UserMessage())

	case gateway.OutcomePendingAdditionalAuth:
		s.revertToAwaitingCard(ctx, sub)
		s.logger.InfoContext(ctx, "payment requires additional authorization",
			slog.String("order_number", sub.OrderNumber),
		)
		return nil, apperrors.PaymentFailed(result.UserMessage())

	case gateway.OutcomeNetworkError:
		s.revertToAwaitingCard(ctx, sub)
		s.logger.ErrorContext(ctx, "payment gateway unreachable",
			slog.String("order_number", sub.OrderNumber),
			slog.String("error", errString(result.Err)),
		)
		return nil, apperrors.BadGateway("GATEWAY_UNREACHABLE", result.UserMessage())

	default:
		s.revertToAwaitingCard(ctx, sub)
		s.logger.ErrorContext(ctx, "unintelligible payment gateway response",
			slog.String("order_number", sub.OrderNumber),
			slog.Int("status_code", rawStatus(raw)),
		)
		return nil, apperrors.BadGateway("GATEWAY_PROTOCOL_ERROR", result.UserMessage())
	}
}

// completeAuthorized places the order and records the ledger entries after a
// successful authorization. The charge has already happened, so every failure
// path here must leave a reconciliation trail.
func (s *CheckoutService) completeAuthorized(ctx context.Context, sub *domain.Submission, result gateway.Result, card domain.Card) (*Confirmation, error) {
	order, err := s.materializer.Materialize(ctx, sub)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// The order number is taken: this submission was already placed.
			// Clear it so the session cannot charge twice.
			s.clearSubmission(ctx, sub.SessionID)
			return nil, apperrors.Conflict(fmt.Sprintf("order %s has already been placed", sub.OrderNumber))
		}
		s.logger.ErrorContext(ctx, "order placement failed for authorized payment, needs reconciliation",
			slog.String("order_number", sub.OrderNumber),
			slog.String("payment_id", result.PaymentID),
			slog.Int64("amount", sub.Total()),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Internal(err)
	}

	source, err := s.recorder.RecordAuthorization(ctx, order, result, card)
	if err != nil {
		// The order stands and the charge went through; the ledger write is
		// what failed. RecordAuthorization already logged for reconciliation.
		return nil, err
	}

	s.clearSubmission(ctx, sub.SessionID)

	if err := s.producer.PublishCheckoutCompleted(ctx, order, result.PaymentID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.completed event",
			slog.String("order_number", order.Number),
			slog.String("error", err.Error()),
		)
	}
	if err := s.producer.PublishPaymentAuthorized(ctx, source); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment.authorized event",
			slog.String("order_number", order.Number),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_number", order.Number),
		slog.String("payment_id", result.PaymentID),
		slog.Int64("total_amount", order.TotalAmount),
		slog.String("placed_via", order.PlacedVia),
	)

	return &Confirmation{
		OrderNumber: order.Number,
		PaymentID:   result.PaymentID,
		AuthCode:    result.AuthCode,
		CardLabel:   source.Label,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}, nil
}

// revertToAwaitingCard puts the submission back into the awaiting-card state
// so the customer can retry with another card. Save failures are logged but
// not surfaced; the payment outcome is what the caller needs.
func (s *CheckoutService) revertToAwaitingCard(ctx context.Context, sub *domain.Submission) {
	sub.Status = domain.SubmissionAwaitingCardDetails
	sub.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, sub); err != nil {
		s.logger.ErrorContext(ctx, "failed to revert submission state",
			slog.String("session_id", sub.SessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CheckoutService) clearSubmission(ctx context.Context, sessionID string) {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear submission",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// GetOrder retrieves an order by its number.
func (s *CheckoutService) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns a page of orders, newest first, plus the overall count.
func (s *CheckoutService) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, int, error) {
	orders, total, err := s.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus moves an order to the given fulfilment status. Used by
// back-office tooling; payment-driven transitions (paid, refunded) happen
// through the checkout and refund flows.
func (s *CheckoutService) UpdateOrderStatus(ctx context.Context, number, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status %q", status))
	}

	order, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = status
	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_number", number),
		slog.String("status", status),
	)
	return order, nil
}

// RefundPayment refunds part or all of a previously captured payment. The
// gateway call happens before the ledger write; a ledger failure after a
// successful gateway refund is logged for reconciliation.
func (s *CheckoutService) RefundPayment(ctx context.Context, paymentID string, amount int64) (*domain.Transaction, error) {
	if paymentID == "" {
		return nil, apperrors.InvalidInput("payment id is required")
	}
	if amount <= 0 {
		return nil, apperrors.InvalidInput("refund amount must be greater than 0")
	}

	source, err := s.ledger.GetSourceByReference(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment source: %w", err)
	}

	remaining := source.AmountDebited - source.AmountRefunded
	if amount > remaining {
		return nil, apperrors.InvalidInput(fmt.Sprintf("refund amount exceeds refundable balance of %d", remaining))
	}

	refundID, err := s.gateway.Refund(ctx, gateway.RefundInput{
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  source.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway refund: %w", err)
	}

	txn := &domain.Transaction{
		ID:        uuid.New().String(),
		SourceID:  source.ID,
		Type:      domain.TxnTypeRefund,
		Status:    domain.TxnStatusComplete,
		Amount:    amount,
		Reference: refundID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.ledger.RecordRefund(ctx, source.ID, txn); err != nil {
		s.logger.ErrorContext(ctx, "ledger write failed for completed refund, needs reconciliation",
			slog.String("payment_id", paymentID),
			slog.String("refund_id", refundID),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		return nil, &apperrors.AppError{
			Code:    "LEDGER_INCONSISTENT",
			Message: "refund was issued but could not be recorded; our team has been notified",
			Status:  http.StatusInternalServerError,
			Err:     err,
		}
	}

	if amount == remaining {
		if err := s.orders.UpdateStatus(ctx, source.OrderID, domain.OrderStatusRefunded); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark order refunded",
				slog.String("order_number", source.OrderNumber),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishPaymentRefunded(ctx, source, refundID, amount); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment.refunded event",
			slog.String("payment_id", paymentID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "payment refunded",
		slog.String("payment_id", paymentID),
		slog.String("refund_id", refundID),
		slog.Int64("amount", amount),
	)

	return txn, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func rawStatus(raw *gateway.RawResponse) int {
	if raw == nil {
		return 0
	}
	return raw.StatusCode
}
