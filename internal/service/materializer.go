package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/pkg/slug"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
	"github.com/blueworldgit/epc-parts-store/internal/repository"
)

// OrderStrategy is one way of turning an authorized submission into an order
// row. Strategies are tried in priority order; a later strategy trades
// fidelity for robustness so a charged customer always ends up with an order.
type OrderStrategy interface {
	Name() string
	Place(ctx context.Context, sub *domain.Submission) (*domain.Order, error)
}

// OrderMaterializer places an order for an authorized payment by walking its
// strategy list. A duplicate order number aborts immediately: that means an
// order for this submission already exists, and falling through to another
// strategy would double-place it.
type OrderMaterializer struct {
	strategies []OrderStrategy
	logger     *slog.Logger
}

// NewOrderMaterializer creates a materializer with the default strategy order:
// full placement first, minimal placement as the safety net.
func NewOrderMaterializer(repo repository.OrderRepository, logger *slog.Logger) *OrderMaterializer {
	return &OrderMaterializer{
		strategies: []OrderStrategy{
			&fullPlacement{repo: repo},
			&minimalPlacement{repo: repo},
		},
		logger: logger,
	}
}

// NewOrderMaterializerWithStrategies creates a materializer with an explicit
// strategy list, mainly for tests.
func NewOrderMaterializerWithStrategies(logger *slog.Logger, strategies ...OrderStrategy) *OrderMaterializer {
	return &OrderMaterializer{
		strategies: strategies,
		logger:     logger,
	}
}

// Materialize places exactly one order for the submission.
func (m *OrderMaterializer) Materialize(ctx context.Context, sub *domain.Submission) (*domain.Order, error) {
	var lastErr error

	for _, strategy := range m.strategies {
		order, err := strategy.Place(ctx, sub)
		if err == nil {
			m.logger.InfoContext(ctx, "order placed",
				slog.String("order_number", sub.OrderNumber),
				slog.String("strategy", strategy.Name()),
			)
			return order, nil
		}

		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}

		m.logger.WarnContext(ctx, "order placement strategy failed",
			slog.String("order_number", sub.OrderNumber),
			slog.String("strategy", strategy.Name()),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}

	return nil, fmt.Errorf("all placement strategies failed for order %s: %w", sub.OrderNumber, lastErr)
}

// fullPlacement creates the order with complete fidelity: address snapshots,
// shipping method and charge, and product slugs on every line.
type fullPlacement struct {
	repo repository.OrderRepository
}

func (s *fullPlacement) Name() string { return "full" }

func (s *fullPlacement) Place(ctx context.Context, sub *domain.Submission) (*domain.Order, error) {
	now := time.Now().UTC()

	order := &domain.Order{
		ID:              uuid.New().String(),
		Number:          sub.OrderNumber,
		UserID:          sub.UserID,
		Status:          domain.OrderStatusPending,
		Currency:        sub.Currency,
		SubtotalAmount:  sub.Basket.Subtotal(),
		ShippingAmount:  sub.ShippingAmount,
		TotalAmount:     sub.Total(),
		ShippingMethod:  sub.ShippingMethod,
		ShippingAddress: sub.ShippingAddress,
		BillingAddress:  sub.BillingAddress,
		PlacedVia:       s.Name(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	order.Lines = make([]domain.OrderLine, len(sub.Basket.Lines))
	for i, line := range sub.Basket.Lines {
		order.Lines[i] = domain.OrderLine{
			ID:          uuid.New().String(),
			ProductID:   line.ProductID,
			ProductSlug: slug.Generate(line.Title),
			SKU:         line.SKU,
			Title:       line.Title,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.UnitPrice * int64(line.Quantity),
		}
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// minimalPlacement is the last-resort strategy: a bare pending order carrying
// the charged total and the purchased lines, without address snapshots or
// shipping details. Support backfills the rest from the session record.
type minimalPlacement struct {
	repo repository.OrderRepository
}

func (s *minimalPlacement) Name() string { return "minimal" }

func (s *minimalPlacement) Place(ctx context.Context, sub *domain.Submission) (*domain.Order, error) {
	now := time.Now().UTC()

	order := &domain.Order{
		ID:             uuid.New().String(),
		Number:         sub.OrderNumber,
		UserID:         sub.UserID,
		Status:         domain.OrderStatusPending,
		Currency:       sub.Currency,
		SubtotalAmount: sub.Basket.Subtotal(),
		TotalAmount:    sub.Total(),
		PlacedVia:      s.Name(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	order.Lines = make([]domain.OrderLine, len(sub.Basket.Lines))
	for i, line := range sub.Basket.Lines {
		order.Lines[i] = domain.OrderLine{
			ID:        uuid.New().String(),
			ProductID: line.ProductID,
			SKU:       line.SKU,
			Title:     line.Title,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.UnitPrice * int64(line.Quantity),
		}
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}
