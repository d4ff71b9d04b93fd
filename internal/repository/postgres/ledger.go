package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/blueworldgit/epc-parts-store/pkg/database"
	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

// LedgerRepository implements repository.LedgerRepository using PostgreSQL.
type LedgerRepository struct {
	db database.DBTX
}

// NewLedgerRepository creates a new PostgreSQL-backed payment ledger repository.
func NewLedgerRepository(db database.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateAuthorization inserts the payment source and its authorisation
// transaction atomically. Called exactly once per authorized payment, after
// the order row exists.
func (r *LedgerRepository) CreateAuthorization(ctx context.Context, source *domain.Source, txn *domain.Transaction) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateAuthorization", "INSERT INTO payment_sources")
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_sources (
			id, order_id, order_number, label, currency,
			amount_allocated, amount_debited, amount_refunded,
			reference, card_brand, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		source.ID,
		source.OrderID,
		source.OrderNumber,
		source.Label,
		source.Currency,
		source.AmountAllocated,
		source.AmountDebited,
		source.AmountRefunded,
		source.Reference,
		nullableString(source.CardBrand),
		source.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment source: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_transactions (
			id, source_id, txn_type, status, amount, reference, auth_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		txn.ID,
		source.ID,
		txn.Type,
		txn.Status,
		txn.Amount,
		txn.Reference,
		nullableString(txn.AuthCode),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert authorisation transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}

	return nil
}

// GetSourceByReference retrieves a source by its gateway payment ID.
func (r *LedgerRepository) GetSourceByReference(ctx context.Context, reference string) (_ *domain.Source, err error) {
	ctx, end := database.TraceQuery(ctx, "GetSourceByReference", "SELECT FROM payment_sources WHERE reference")
	defer func() { end(err) }()

	query := `
		SELECT id, order_id, order_number, label, currency,
			amount_allocated, amount_debited, amount_refunded,
			reference, card_brand, created_at
		FROM payment_sources
		WHERE reference = $1`

	var (
		source    domain.Source
		cardBrand *string
	)
	err = r.db.QueryRow(ctx, query, reference).Scan(
		&source.ID,
		&source.OrderID,
		&source.OrderNumber,
		&source.Label,
		&source.Currency,
		&source.AmountAllocated,
		&source.AmountDebited,
		&source.AmountRefunded,
		&source.Reference,
		&cardBrand,
		&source.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("payment_source", reference)
		}
		return nil, fmt.Errorf("scan payment source: %w", err)
	}

	if cardBrand != nil {
		source.CardBrand = *cardBrand
	}

	return &source, nil
}

// RecordRefund appends the refund transaction and bumps amount_refunded on the
// source in one database transaction.
func (r *LedgerRepository) RecordRefund(ctx context.Context, sourceID string, txn *domain.Transaction) (err error) {
	ctx, end := database.TraceQuery(ctx, "RecordRefund", "INSERT INTO payment_transactions")
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin refund tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_transactions (
			id, source_id, txn_type, status, amount, reference, auth_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		txn.ID,
		sourceID,
		txn.Type,
		txn.Status,
		txn.Amount,
		txn.Reference,
		nullableString(txn.AuthCode),
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refund transaction: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE payment_sources
		SET amount_refunded = amount_refunded + $1
		WHERE id = $2`,
		txn.Amount, sourceID,
	)
	if err != nil {
		return fmt.Errorf("update refunded amount: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("payment_source", sourceID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit refund tx: %w", err)
	}

	return nil
}
