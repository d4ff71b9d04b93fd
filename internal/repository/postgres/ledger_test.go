package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueworldgit/epc-parts-store/pkg/database"
	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

func newTestLedgerRepo(t *testing.T) (*LedgerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewLedgerRepository(mock)
	return repo, mock
}

func sampleSource() *domain.Source {
	return &domain.Source{
		ID:              "src-001",
		OrderID:         "order-001",
		OrderNumber:     "1000023",
		Label:           "****1111",
		Currency:        "GBP",
		AmountAllocated: 4848,
		AmountDebited:   4848,
		Reference:       "pay_123",
		CardBrand:       "visa",
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func sampleAuthorisation() *domain.Transaction {
	return &domain.Transaction{
		ID:        "txn-001",
		SourceID:  "src-001",
		Type:      domain.TxnTypeAuthorisation,
		Status:    domain.TxnStatusComplete,
		Amount:    4848,
		Reference: "pay_123",
		AuthCode:  "0042",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestLedgerCreateAuthorization(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	source := sampleSource()
	txn := sampleAuthorisation()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payment_sources").
		WithArgs(
			source.ID, source.OrderID, source.OrderNumber, source.Label, source.Currency,
			source.AmountAllocated, source.AmountDebited, source.AmountRefunded,
			source.Reference, pgxmock.AnyArg(), source.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO payment_transactions").
		WithArgs(
			txn.ID, source.ID, txn.Type, txn.Status, txn.Amount,
			txn.Reference, pgxmock.AnyArg(), txn.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.CreateAuthorization(context.Background(), source, txn)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerCreateAuthorizationTransactionFailureRollsBack(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payment_sources").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO payment_transactions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.CreateAuthorization(context.Background(), sampleSource(), sampleAuthorisation())

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerGetSourceByReference(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	source := sampleSource()

	mock.ExpectQuery("SELECT (.+) FROM payment_sources").
		WithArgs("pay_123").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "order_id", "order_number", "label", "currency",
			"amount_allocated", "amount_debited", "amount_refunded",
			"reference", "card_brand", "created_at",
		}).AddRow(
			source.ID, source.OrderID, source.OrderNumber, source.Label, source.Currency,
			source.AmountAllocated, source.AmountDebited, source.AmountRefunded,
			source.Reference, &source.CardBrand, source.CreatedAt,
		))

	got, err := repo.GetSourceByReference(context.Background(), "pay_123")

	require.NoError(t, err)
	assert.Equal(t, "src-001", got.ID)
	assert.Equal(t, "1000023", got.OrderNumber)
	assert.Equal(t, "visa", got.CardBrand)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerGetSourceByReferenceNotFound(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM payment_sources").
		WithArgs("pay_missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetSourceByReference(context.Background(), "pay_missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRecordRefund(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	refund := &domain.Transaction{
		ID:        "txn-002",
		SourceID:  "src-001",
		Type:      domain.TxnTypeRefund,
		Status:    domain.TxnStatusComplete,
		Amount:    4848,
		Reference: "ref_987",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payment_transactions").
		WithArgs(
			refund.ID, "src-001", refund.Type, refund.Status, refund.Amount,
			refund.Reference, pgxmock.AnyArg(), refund.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE payment_sources").
		WithArgs(refund.Amount, "src-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.RecordRefund(context.Background(), "src-001", refund)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRecordRefundUnknownSource(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	refund := &domain.Transaction{
		ID:     "txn-002",
		Type:   domain.TxnTypeRefund,
		Status: domain.TxnStatusComplete,
		Amount: 100,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payment_transactions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE payment_sources").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.RecordRefund(context.Background(), "src-missing", refund)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
