package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
	"github.com/blueworldgit/epc-parts-store/internal/gateway"
	"github.com/blueworldgit/epc-parts-store/internal/repository"
)

// PaymentRecorder writes the payment ledger rows for an authorized charge:
// one source and one authorisation transaction, both referencing the gateway
// payment ID. It runs only after the order row exists.
type PaymentRecorder struct {
	ledger repository.LedgerRepository
	logger *slog.Logger
}

// NewPaymentRecorder creates a payment recorder.
func NewPaymentRecorder(ledger repository.LedgerRepository, logger *slog.Logger) *PaymentRecorder {
	return &PaymentRecorder{
		ledger: ledger,
		logger: logger,
	}
}

// RecordAuthorization writes the source and authorisation rows. A failure
// here means the gateway holds money the ledger does not know about; the
// error is flagged for reconciliation and must never trigger a retry of the
// charge.
func (r *PaymentRecorder) RecordAuthorization(
	ctx context.Context,
	order *domain.Order,
	result gateway.Result,
	card domain.Card,
) (*domain.Source, error) {
	label := card.MaskedLabel()
	if result.Last4 != "" {
		label = "****" + result.Last4
	}

	now := time.Now().UTC()

	source := &domain.Source{
		ID:              uuid.New().String(),
		OrderID:         order.ID,
		OrderNumber:     order.Number,
		Label:           label,
		Currency:        order.Currency,
		AmountAllocated: order.TotalAmount,
		AmountDebited:   order.TotalAmount,
		Reference:       result.PaymentID,
		CardBrand:       result.CardBrand,
		CreatedAt:       now,
	}

	txn := &domain.Transaction{
		ID:        uuid.New().String(),
		SourceID:  source.ID,
		Type:      domain.TxnTypeAuthorisation,
		Status:    domain.TxnStatusComplete,
		Amount:    order.TotalAmount,
		Reference: result.PaymentID,
		AuthCode:  result.AuthCode,
		CreatedAt: now,
	}

	if err := r.ledger.CreateAuthorization(ctx, source, txn); err != nil {
		r.logger.ErrorContext(ctx, "ledger write failed for authorized payment, needs reconciliation",
			slog.String("order_number", order.Number),
			slog.String("payment_id", result.PaymentID),
			slog.Int64("amount", order.TotalAmount),
			slog.String("error", err.Error()),
		)
		return nil, &apperrors.AppError{
			Code:    "LEDGER_INCONSISTENT",
			Message: "payment was taken but could not be recorded; our team has been notified",
			Status:  http.StatusInternalServerError,
			Err:     err,
		}
	}

	return source, nil
}
