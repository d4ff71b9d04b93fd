package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/blueworldgit/epc-parts-store/internal/domain"
	"github.com/blueworldgit/epc-parts-store/internal/gateway"
	"github.com/blueworldgit/epc-parts-store/internal/session"
	apperrors "github.com/blueworldgit/epc-parts-store/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Authorize(ctx context.Context, input gateway.AuthorizeInput) *gateway.RawResponse {
	args := m.Called(ctx, input)
	return args.Get(0).(*gateway.RawResponse)
}

func (m *mockGateway) Refund(ctx context.Context, input gateway.RefundInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) Live() bool {
	args := m.Called()
	return args.Bool(0)
}

type mockMaterializer struct {
	mock.Mock
}

func (m *mockMaterializer) Materialize(ctx context.Context, sub *domain.Submission) (*domain.Order, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordAuthorization(ctx context.Context, order *domain.Order, result gateway.Result, card domain.Card) (*domain.Source, error) {
	args := m.Called(ctx, order, result, card)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Source), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, limit, offset int) ([]domain.Order, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, number, status string) error {
	args := m.Called(ctx, number, status)
	return args.Error(0)
}

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) CreateAuthorization(ctx context.Context, source *domain.Source, txn *domain.Transaction) error {
	args := m.Called(ctx, source, txn)
	return args.Error(0)
}

func (m *mockLedgerRepo) GetSourceByReference(ctx context.Context, reference string) (*domain.Source, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Source), args.Error(1)
}

func (m *mockLedgerRepo) RecordRefund(ctx context.Context, sourceID string, txn *domain.Transaction) error {
	args := m.Called(ctx, sourceID, txn)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCheckoutCompleted(ctx context.Context, order *domain.Order, paymentID string) error {
	args := m.Called(ctx, order, paymentID)
	return args.Error(0)
}

func (m *mockPublisher) PublishPaymentAuthorized(ctx context.Context, source *domain.Source) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *mockPublisher) PublishPaymentDeclined(ctx context.Context, orderNumber, declineCode string, amount int64, currency string) error {
	args := m.Called(ctx, orderNumber, declineCode, amount, currency)
	return args.Error(0)
}

func (m *mockPublisher) PublishPaymentRefunded(ctx context.Context, source *domain.Source, refundID string, amount int64) error {
	args := m.Called(ctx, source, refundID, amount)
	return args.Error(0)
}

type checkoutFixture struct {
	store        *session.MemoryStore
	sequence     *session.MemorySequence
	gateway      *mockGateway
	materializer *mockMaterializer
	recorder     *mockRecorder
	orders       *mockOrderRepo
	ledger       *mockLedgerRepo
	producer     *mockPublisher
	svc          *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		store:        session.NewMemoryStore(),
		sequence:     session.NewMemorySequence(1000000),
		gateway:      &mockGateway{},
		materializer: &mockMaterializer{},
		recorder:     &mockRecorder{},
		orders:       &mockOrderRepo{},
		ledger:       &mockLedgerRepo{},
		producer:     &mockPublisher{},
	}
	f.svc = NewCheckoutService(
		f.store, f.sequence, f.gateway, f.materializer, f.recorder,
		f.orders, f.ledger, f.producer, newTestLogger(),
	)
	return f
}

func validBeginInput() *BeginCheckoutInput {
	return &BeginCheckoutInput{
		UserID: "user-1",
		Basket: domain.Basket{
			Lines: []domain.BasketLine{
				{ProductID: "prod-1", SKU: "BRK-PAD-22", Title: "Front Brake Pad Set", UnitPrice: 4599, Quantity: 2},
				{ProductID: "prod-2", SKU: "OIL-FLT-8", Title: "Oil Filter", UnitPrice: 899, Quantity: 1},
			},
		},
		ShippingAddress: &domain.Address{
			FullName:    "Dana Smith",
			AddressLine: "12 Garage Lane",
			City:        "Leeds",
			PostalCode:  "LS1 4AB",
			Country:     "GB",
		},
		BillingAddress: &domain.Address{
			FullName:    "Dana Smith",
			AddressLine: "12 Garage Lane",
			City:        "Leeds",
			PostalCode:  "LS1 4AB",
			Country:     "GB",
		},
		ShippingMethod: "standard",
		ShippingAmount: 495,
		Currency:       "gbp",
	}
}

func validTestCard() domain.Card {
	return domain.Card{
		Number:       "4444 3333 2222 1111",
		HolderName:   "Dana Smith",
		ExpiryMonth:  12,
		ExpiryYear:   2030,
		SecurityCode: "123",
	}
}

func authorizedResponse(paymentID string) *gateway.RawResponse {
	return &gateway.RawResponse{
		StatusCode: 201,
		Body: []byte(`{
			"outcome": "authorized",
			"paymentId": "` + paymentID + `",
			"issuer": {"authorizationCode": "A12345"},
			"paymentInstrument": {"card": {"brand": "visa", "number": {"last4Digits": "1111"}}}
		}`),
	}
}

func refusedResponse(code, description string) *gateway.RawResponse {
	return &gateway.RawResponse{
		StatusCode: 201,
		Body: []byte(`{
			"outcome": "refused",
			"code": "` + code + `",
			"description": "` + description + `"
		}`),
	}
}

func TestBeginCheckout(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	sub, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	assert.Equal(t, "1000001", sub.OrderNumber)
	assert.Equal(t, domain.SubmissionAwaitingCardDetails, sub.Status)
	assert.Equal(t, "GBP", sub.Currency)
	assert.Equal(t, int64(4599*2+899+495), sub.Total())

	stored, err := f.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sub.OrderNumber, stored.OrderNumber)
}

func TestBeginCheckoutReplacesExistingSubmission(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	first, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	second, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)

	stored, err := f.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, second.OrderNumber, stored.OrderNumber)
}

func TestBeginCheckoutValidation(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	tests := []struct {
		name   string
		mutate func(*BeginCheckoutInput)
	}{
		{"empty basket", func(in *BeginCheckoutInput) { in.Basket.Lines = nil }},
		{"bad currency", func(in *BeginCheckoutInput) { in.Currency = "POUNDS" }},
		{"zero unit price", func(in *BeginCheckoutInput) { in.Basket.Lines[0].UnitPrice = 0 }},
		{"zero quantity", func(in *BeginCheckoutInput) { in.Basket.Lines[0].Quantity = 0 }},
		{"negative shipping", func(in *BeginCheckoutInput) { in.ShippingAmount = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validBeginInput()
			tt.mutate(input)
			_, err := f.svc.BeginCheckout(ctx, "sess-1", input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestSubmitCardAuthorized(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	sub, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	order := &domain.Order{
		ID:          "order-id-1",
		Number:      sub.OrderNumber,
		Status:      domain.OrderStatusPaid,
		Currency:    "GBP",
		TotalAmount: sub.Total(),
		PlacedVia:   "full",
	}
	source := &domain.Source{
		ID:          "src-1",
		OrderNumber: sub.OrderNumber,
		Label:       "****1111",
		Reference:   "pay_123",
	}

	f.gateway.On("Authorize", ctx, mock.MatchedBy(func(in gateway.AuthorizeInput) bool {
		return in.OrderNumber == sub.OrderNumber &&
			in.Amount == sub.Total() &&
			in.Currency == "GBP" &&
			in.Card.Number == "4444333322221111"
	})).Return(authorizedResponse("pay_123"))
	f.gateway.On("Live").Return(false)
	f.materializer.On("Materialize", ctx, mock.Anything).Return(order, nil)
	f.recorder.On("RecordAuthorization", ctx, order, mock.MatchedBy(func(r gateway.Result) bool {
		return r.PaymentID == "pay_123" && r.AuthCode == "A12345"
	}), mock.Anything).Return(source, nil)
	f.producer.On("PublishCheckoutCompleted", ctx, order, "pay_123").Return(nil)
	f.producer.On("PublishPaymentAuthorized", ctx, source).Return(nil)

	conf, err := f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.NoError(t, err)

	assert.Equal(t, sub.OrderNumber, conf.OrderNumber)
	assert.Equal(t, "pay_123", conf.PaymentID)
	assert.Equal(t, "A12345", conf.AuthCode)
	assert.Equal(t, "****1111", conf.CardLabel)

	// Submission is consumed on success.
	_, err = f.store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.gateway.AssertExpectations(t)
	f.materializer.AssertExpectations(t)
	f.recorder.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestSubmitCardNoSubmission(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.SubmitCard(ctx, "unknown-session", validTestCard())
	assert.ErrorIs(t, err, apperrors.ErrGone)
	f.gateway.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)
}

func TestSubmitCardInvalidCard(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	card := validTestCard()
	card.Number = "4444333322221112" // fails checksum

	_, err = f.svc.SubmitCard(ctx, "sess-1", card)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.gateway.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)

	// Submission survives so the customer can fix the card.
	_, err = f.store.Load(ctx, "sess-1")
	assert.NoError(t, err)
}

func TestSubmitCardRefused(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	sub, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	f.gateway.On("Authorize", ctx, mock.Anything).Return(refusedResponse("05", "Do not honour"))
	f.gateway.On("Live").Return(true)
	f.producer.On("PublishPaymentDeclined", ctx, sub.OrderNumber, "05", sub.Total(), "GBP").Return(nil)

	_, err = f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "05")
	assert.Contains(t, appErr.Message, "Do not honour")

	// No order, no ledger entry.
	f.materializer.AssertNotCalled(t, "Materialize", mock.Anything, mock.Anything)
	f.recorder.AssertNotCalled(t, "RecordAuthorization", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Submission is preserved for another attempt.
	stored, err := f.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAwaitingCardDetails, stored.Status)
}

func TestSubmitCardTestCardInLiveMode(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	sub, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	f.gateway.On("Authorize", ctx, mock.Anything).Return(refusedResponse("13", "Invalid card number"))
	f.gateway.On("Live").Return(true)
	f.producer.On("PublishPaymentDeclined", ctx, sub.OrderNumber, "13", sub.Total(), "GBP").Return(nil)

	_, err = f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, gateway.TestCardMessage, appErr.Message)
}

func TestSubmitCardNetworkError(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	f.gateway.On("Authorize", ctx, mock.Anything).Return(&gateway.RawResponse{
		Err: errors.New("dial tcp: connection refused"),
	})
	f.gateway.On("Live").Return(false)

	_, err = f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GATEWAY_UNREACHABLE", appErr.Code)

	// Charge state is unknown: no order may be placed.
	f.materializer.AssertNotCalled(t, "Materialize", mock.Anything, mock.Anything)

	stored, err := f.store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAwaitingCardDetails, stored.Status)
}

func TestSubmitCardProtocolError(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	f.gateway.On("Authorize", ctx, mock.Anything).Return(&gateway.RawResponse{
		StatusCode: 200,
		Body:       []byte("<html>Bad Gateway</html>"),
	})
	f.gateway.On("Live").Return(false)

	_, err = f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GATEWAY_PROTOCOL_ERROR", appErr.Code)
	f.materializer.AssertNotCalled(t, "Materialize", mock.Anything, mock.Anything)
}

func TestSubmitCardDuplicatePlacement(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	f.gateway.On("Authorize", ctx, mock.Anything).Return(authorizedResponse("pay_dup"))
	f.gateway.On("Live").Return(false)
	f.materializer.On("Materialize", ctx, mock.Anything).
		Return(nil, apperrors.AlreadyExists("order", "number", "1000001"))

	_, err = f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// The submission must not remain chargeable.
	_, err = f.store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.recorder.AssertNotCalled(t, "RecordAuthorization", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitCardLedgerFailure(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	sub, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	order := &domain.Order{Number: sub.OrderNumber, TotalAmount: sub.Total(), Currency: "GBP"}
	ledgerErr := &apperrors.AppError{
		Code:    "LEDGER_INCONSISTENT",
		Message: "payment was taken but could not be recorded; our team has been notified",
		Status:  500,
		Err:     errors.New("insert payment source: connection reset"),
	}

	f.gateway.On("Authorize", ctx, mock.Anything).Return(authorizedResponse("pay_123"))
	f.gateway.On("Live").Return(false)
	f.materializer.On("Materialize", ctx, mock.Anything).Return(order, nil)
	f.recorder.On("RecordAuthorization", ctx, order, mock.Anything, mock.Anything).Return(nil, ledgerErr)

	_, err = f.svc.SubmitCard(ctx, "sess-1", validTestCard())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LEDGER_INCONSISTENT", appErr.Code)
}

func TestCancelCheckout(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.BeginCheckout(ctx, "sess-1", validBeginInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelCheckout(ctx, "sess-1"))

	_, err = f.store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Idempotent.
	assert.NoError(t, f.svc.CancelCheckout(ctx, "sess-1"))
}

func TestRefundPayment(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	source := &domain.Source{
		ID:             "src-1",
		OrderNumber:    "1000001",
		Currency:       "GBP",
		AmountDebited:  10093,
		AmountRefunded: 0,
		Reference:      "pay_123",
	}

	f.ledger.On("GetSourceByReference", ctx, "pay_123").Return(source, nil)
	f.gateway.On("Refund", ctx, gateway.RefundInput{
		PaymentID: "pay_123",
		Amount:    5000,
		Currency:  "GBP",
	}).Return("refund_1", nil)
	f.ledger.On("RecordRefund", ctx, "src-1", mock.MatchedBy(func(txn *domain.Transaction) bool {
		// The ledger inserts txn.ID verbatim into a UUID primary key, so the
		// service has to supply one.
		return uuid.Validate(txn.ID) == nil &&
			txn.Type == domain.TxnTypeRefund && txn.Amount == 5000 && txn.Reference == "refund_1"
	})).Return(nil)
	f.producer.On("PublishPaymentRefunded", ctx, source, "refund_1", int64(5000)).Return(nil)

	txn, err := f.svc.RefundPayment(ctx, "pay_123", 5000)
	require.NoError(t, err)
	assert.Equal(t, domain.TxnStatusComplete, txn.Status)

	// Partial refund does not touch the order status.
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundPaymentFullMarksOrderRefunded(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	source := &domain.Source{
		ID:            "src-1",
		OrderID:       "order-1",
		OrderNumber:   "1000001",
		Currency:      "GBP",
		AmountDebited: 10093,
		Reference:     "pay_123",
	}

	f.ledger.On("GetSourceByReference", ctx, "pay_123").Return(source, nil)
	f.gateway.On("Refund", ctx, mock.Anything).Return("refund_1", nil)
	f.ledger.On("RecordRefund", ctx, "src-1", mock.Anything).Return(nil)
	// Order rows are keyed by id, not order number.
	f.orders.On("UpdateStatus", ctx, "order-1", domain.OrderStatusRefunded).Return(nil)
	f.producer.On("PublishPaymentRefunded", ctx, source, "refund_1", int64(10093)).Return(nil)

	_, err := f.svc.RefundPayment(ctx, "pay_123", 10093)
	require.NoError(t, err)
	f.orders.AssertExpectations(t)
}

func TestRefundPaymentExceedsBalance(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	source := &domain.Source{
		ID:             "src-1",
		AmountDebited:  10093,
		AmountRefunded: 9000,
		Reference:      "pay_123",
		Currency:       "GBP",
	}

	f.ledger.On("GetSourceByReference", ctx, "pay_123").Return(source, nil)

	_, err := f.svc.RefundPayment(ctx, "pay_123", 2000)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestRefundPaymentGatewayFailure(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	source := &domain.Source{
		ID:            "src-1",
		AmountDebited: 10093,
		Reference:     "pay_123",
		Currency:      "GBP",
	}

	f.ledger.On("GetSourceByReference", ctx, "pay_123").Return(source, nil)
	f.gateway.On("Refund", ctx, mock.Anything).Return("", errors.New("refund request failed with status 502"))

	_, err := f.svc.RefundPayment(ctx, "pay_123", 1000)
	require.Error(t, err)
	f.ledger.AssertNotCalled(t, "RecordRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	order := &domain.Order{Number: "1000001", Status: domain.OrderStatusPaid}
	f.orders.On("GetByNumber", ctx, "1000001").Return(order, nil)

	got, err := f.svc.GetOrder(ctx, "1000001")
	require.NoError(t, err)
	assert.Equal(t, "1000001", got.Number)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	order := &domain.Order{ID: "order-1", Number: "1000001", Status: domain.OrderStatusPaid}
	f.orders.On("GetByNumber", ctx, "1000001").Return(order, nil)
	f.orders.On("UpdateStatus", ctx, "order-1", domain.OrderStatusShipped).Return(nil)

	got, err := f.svc.UpdateOrderStatus(ctx, "1000001", domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)
}

func TestUpdateOrderStatusInvalidStatus(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	_, err := f.svc.UpdateOrderStatus(ctx, "1000001", "teleported")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatusUnknownOrder(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	f.orders.On("GetByNumber", ctx, "9999999").Return(nil, apperrors.NotFound("order", "9999999"))

	_, err := f.svc.UpdateOrderStatus(ctx, "9999999", domain.OrderStatusShipped)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture()

	orders := []domain.Order{{Number: "1000002"}, {Number: "1000001"}}
	f.orders.On("List", ctx, 20, 0).Return(orders, 2, nil)

	got, total, err := f.svc.ListOrders(ctx, 20, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, total)
}
