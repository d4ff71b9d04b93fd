package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blueworldgit/epc-parts-store/internal/domain"
	"github.com/blueworldgit/epc-parts-store/internal/service"
	"github.com/blueworldgit/epc-parts-store/pkg/httputil"
	"github.com/blueworldgit/epc-parts-store/pkg/pagination"
	"github.com/blueworldgit/epc-parts-store/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout and payment endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// BeginCheckoutRequest is the JSON request body for starting a checkout.
type BeginCheckoutRequest struct {
	Lines           []BasketLineRequest `json:"lines" validate:"required,min=1,dive"`
	ShippingAddress *AddressRequest     `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressRequest     `json:"billing_address"`
	ShippingMethod  string              `json:"shipping_method" validate:"required"`
	ShippingAmount  string              `json:"shipping_amount" validate:"required"`
	Currency        string              `json:"currency" validate:"required,len=3"`
}

// BasketLineRequest is a single basket line in the begin checkout request.
// Prices are decimal strings ("45.99") and converted to minor units on entry.
type BasketLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	SKU       string `json:"sku" validate:"required"`
	Title     string `json:"title" validate:"required"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// AddressRequest is an address in checkout requests.
type AddressRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Phone       string `json:"phone"`
}

// SubmitPaymentRequest is the JSON request body for submitting card details.
// The number and security code are forwarded to the gateway and never stored.
type SubmitPaymentRequest struct {
	CardNumber   string `json:"card_number" validate:"required,luhn"`
	HolderName   string `json:"holder_name" validate:"required"`
	ExpiryMonth  int    `json:"expiry_month" validate:"required,min=1,max=12"`
	ExpiryYear   int    `json:"expiry_year" validate:"required,min=2000"`
	SecurityCode string `json:"security_code" validate:"required,min=3,max=4"`
}

// RefundRequest is the JSON request body for refunding a payment.
type RefundRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// UpdateOrderStatusRequest is the body for PATCH /orders/{number}/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// --- Handlers ---

// BeginCheckout handles POST /api/v1/checkout
// @Summary Begin a checkout
// @Description Snapshots the basket and addresses into a pending submission for the session. Requires X-Session-ID header.
// @Tags checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session identifier"
// @Param request body BeginCheckoutRequest true "Basket and delivery details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req BeginCheckoutRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shippingAmount, err := domain.ParseAmount(req.ShippingAmount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "shipping_amount: " + err.Error()},
		})
		return
	}

	lines := make([]domain.BasketLine, len(req.Lines))
	for i, line := range req.Lines {
		unitPrice, err := domain.ParseAmount(line.UnitPrice)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unit_price: " + err.Error()},
			})
			return
		}
		lines[i] = domain.BasketLine{
			ProductID: line.ProductID,
			SKU:       line.SKU,
			Title:     line.Title,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
		}
	}

	input := &service.BeginCheckoutInput{
		UserID:          r.Header.Get("X-User-ID"),
		Basket:          domain.Basket{Lines: lines},
		ShippingAddress: toDomainAddress(req.ShippingAddress),
		BillingAddress:  toDomainAddress(req.BillingAddress),
		ShippingMethod:  req.ShippingMethod,
		ShippingAmount:  shippingAmount,
		Currency:        req.Currency,
	}

	sub, err := h.service.BeginCheckout(r.Context(), sessionID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: sub})
}

// GetCheckout handles GET /api/v1/checkout
// @Summary Get the in-progress checkout
// @Description Returns the pending submission for the session, if any.
// @Tags checkout
// @Produce json
// @Param X-Session-ID header string true "Session identifier"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/checkout [get]
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	sub, err := h.service.GetSubmission(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sub})
}

// SubmitPayment handles POST /api/v1/checkout/payment
// @Summary Submit card details
// @Description Charges the card for the session's submission and, on approval, places the order.
// @Tags checkout
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Session identifier"
// @Param request body SubmitPaymentRequest true "Card details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/checkout/payment [post]
func (h *CheckoutHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SubmitPaymentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	card := domain.Card{
		Number:       req.CardNumber,
		HolderName:   req.HolderName,
		ExpiryMonth:  req.ExpiryMonth,
		ExpiryYear:   req.ExpiryYear,
		SecurityCode: req.SecurityCode,
	}

	conf, err := h.service.SubmitCard(r.Context(), sessionID, card)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: conf})
}

// CancelCheckout handles DELETE /api/v1/checkout
// @Summary Cancel the in-progress checkout
// @Description Discards the session's pending submission. Safe to call when none exists.
// @Tags checkout
// @Produce json
// @Param X-Session-ID header string true "Session identifier"
// @Success 204
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/checkout [delete]
func (h *CheckoutHandler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelCheckout(r.Context(), sessionID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetOrder handles GET /api/v1/orders/{number}
// @Summary Get an order
// @Description Returns an order by its order number.
// @Tags orders
// @Produce json
// @Param number path string true "Order number"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/orders/{number} [get]
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "order number is required"},
		})
		return
	}

	order, err := h.service.GetOrder(r.Context(), number)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// ListOrders handles GET /api/v1/orders
// @Summary List orders
// @Description Returns a paginated list of orders, newest first.
// @Tags orders
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page (max 100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/orders [get]
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	orders, total, err := h.service.ListOrders(r.Context(), params.PerPage, params.Offset)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(orders, total, params))
}

// UpdateOrderStatus handles PATCH /api/v1/orders/{number}/status
// @Summary Update order status
// @Description Moves an order to a new fulfilment status.
// @Tags orders
// @Accept json
// @Produce json
// @Param number path string true "Order number"
// @Param request body UpdateOrderStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/orders/{number}/status [patch]
func (h *CheckoutHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "order number is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req UpdateOrderStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), number, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// RefundPayment handles POST /api/v1/payments/{paymentID}/refunds
// @Summary Refund a payment
// @Description Refunds part or all of a captured payment through the gateway and records it in the ledger.
// @Tags payments
// @Accept json
// @Produce json
// @Param paymentID path string true "Gateway payment ID"
// @Param request body RefundRequest true "Refund amount"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/payments/{paymentID}/refunds [post]
func (h *CheckoutHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "payment id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RefundRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "amount: " + err.Error()},
		})
		return
	}

	txn, err := h.service.RefundPayment(r.Context(), paymentID, amount)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: txn})
}

// --- Helpers ---

// requireSessionID extracts the X-Session-ID header, writing a 400 if absent.
func requireSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Session-ID header is required"},
		})
		return "", false
	}
	return sessionID, true
}

func toDomainAddress(a *AddressRequest) *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		FullName:    a.FullName,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		PostalCode:  a.PostalCode,
		Country:     a.Country,
		Phone:       a.Phone,
	}
}
