package repository

import (
	"context"

	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Create inserts an order and its lines atomically. Inserting a second
	// order with the same number fails with apperrors.ErrAlreadyExists;
	// callers must treat that as a hard stop, never as something to retry.
	Create(ctx context.Context, order *domain.Order) error

	// GetByNumber retrieves an order with its lines by order number.
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)

	// List returns a page of orders (newest first) and the total count.
	List(ctx context.Context, limit, offset int) ([]domain.Order, int, error)

	// UpdateStatus sets the status of an order.
	UpdateStatus(ctx context.Context, orderID, status string) error
}

// LedgerRepository defines the interface for the payment ledger: sources and
// their append-only transactions.
type LedgerRepository interface {
	// CreateAuthorization inserts the source and its authorisation
	// transaction in a single database transaction.
	CreateAuthorization(ctx context.Context, source *domain.Source, txn *domain.Transaction) error

	// GetSourceByReference retrieves a source by its gateway payment ID.
	GetSourceByReference(ctx context.Context, reference string) (*domain.Source, error)

	// RecordRefund appends a refund transaction and bumps the source's
	// refunded amount in a single database transaction.
	RecordRefund(ctx context.Context, sourceID string, txn *domain.Transaction) error
}
