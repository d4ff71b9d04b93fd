package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blueworldgit/epc-parts-store/pkg/database"
	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order and its lines in one transaction. The unique index
// on orders.number is the final arbiter against double placement: a violation
// maps to ErrAlreadyExists and must never be retried by the caller.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", "INSERT INTO orders")
	defer func() { end(err) }()

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	billingJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return fmt.Errorf("marshal billing address: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO orders (
			id, number, user_id, status, currency,
			subtotal_amount, shipping_amount, total_amount,
			shipping_method, shipping_address, billing_address,
			placed_via, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13, $14
		)`

	_, err = tx.Exec(ctx, query,
		order.ID,
		order.Number,
		nullableString(order.UserID),
		order.Status,
		order.Currency,
		order.SubtotalAmount,
		order.ShippingAmount,
		order.TotalAmount,
		nullableString(order.ShippingMethod),
		shippingJSON,
		billingJSON,
		nullableString(order.PlacedVia),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.AlreadyExists("order", "number", order.Number)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (
			id, order_id, product_id, product_slug, sku, title,
			unit_price, quantity, line_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, line := range order.Lines {
		_, err = tx.Exec(ctx, lineQuery,
			line.ID,
			order.ID,
			line.ProductID,
			nullableString(line.ProductSlug),
			line.SKU,
			line.Title,
			line.UnitPrice,
			line.Quantity,
			line.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert order line %s: %w", line.SKU, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order tx: %w", err)
	}

	return nil
}

// GetByNumber retrieves an order with its lines by order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrderByNumber", "SELECT FROM orders WHERE number")
	defer func() { end(err) }()

	query := `
		SELECT id, number, user_id, status, currency,
			subtotal_amount, shipping_amount, total_amount,
			shipping_method, shipping_address, billing_address,
			placed_via, created_at, updated_at
		FROM orders
		WHERE number = $1`

	order, err := r.scanOrder(r.db.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return order, nil
}

// List returns a page of orders (without lines) ordered newest first,
// along with the total count for pagination.
func (r *OrderRepository) List(ctx context.Context, limit, offset int) (_ []domain.Order, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrders", "SELECT FROM orders ORDER BY created_at")
	defer func() { end(err) }()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `
		SELECT id, number, user_id, status, currency,
			subtotal_amount, shipping_amount, total_amount,
			shipping_method, shipping_address, billing_address,
			placed_via, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, total, nil
}

// UpdateStatus sets the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, status string) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", "UPDATE orders SET status")
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID)
	}
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder scans one order row (without lines).
func (r *OrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order          domain.Order
		userID         *string
		shippingMethod *string
		placedVia      *string
		shippingJSON   []byte
		billingJSON    []byte
	)

	err := row.Scan(
		&order.ID,
		&order.Number,
		&userID,
		&order.Status,
		&order.Currency,
		&order.SubtotalAmount,
		&order.ShippingAmount,
		&order.TotalAmount,
		&shippingMethod,
		&shippingJSON,
		&billingJSON,
		&placedVia,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if userID != nil {
		order.UserID = *userID
	}
	if shippingMethod != nil {
		order.ShippingMethod = *shippingMethod
	}
	if placedVia != nil {
		order.PlacedVia = *placedVia
	}

	if shippingJSON != nil && string(shippingJSON) != "null" {
		var addr domain.Address
		if err := json.Unmarshal(shippingJSON, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
		order.ShippingAddress = &addr
	}
	if billingJSON != nil && string(billingJSON) != "null" {
		var addr domain.Address
		if err := json.Unmarshal(billingJSON, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal billing address: %w", err)
		}
		order.BillingAddress = &addr
	}

	return &order, nil
}

// loadLines fetches all lines for an order.
func (r *OrderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	query := `
		SELECT id, product_id, product_slug, sku, title,
			unit_price, quantity, line_total
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			line domain.OrderLine
			slug *string
		)
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&slug,
			&line.SKU,
			&line.Title,
			&line.UnitPrice,
			&line.Quantity,
			&line.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if slug != nil {
			line.ProductSlug = *slug
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order line rows: %w", err)
	}

	if lines == nil {
		lines = []domain.OrderLine{}
	}

	return lines, nil
}

// nullableString returns nil if the string is empty, otherwise a pointer to the string.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
