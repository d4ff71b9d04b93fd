package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/blueworldgit/epc-parts-store/internal/domain"
)

const (
	contentTypePaymentsV6 = "application/vnd.worldpay.payments-v6+json"

	// maxResponseBody bounds how much of a gateway response is read.
	maxResponseBody = 1 << 20
)

// Mode selects the gateway environment.
const (
	ModeTest = "test"
	ModeLive = "live"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds gateway connection settings.
type Config struct {
	Mode     string
	TestURL  string
	LiveURL  string
	Username string
	Password string
	Entity   string
	Timeout  time.Duration
}

// BaseURL returns the payments endpoint for the configured mode.
func (c Config) BaseURL() string {
	if c.Mode == ModeLive {
		return c.LiveURL
	}
	return c.TestURL
}

// Live reports whether the gateway is configured for real money movement.
func (c Config) Live() bool {
	return c.Mode == ModeLive
}

// Client submits card authorizations and refunds to the payment gateway.
// Authorize is deliberately single-shot: the HTTP client underneath must not
// retry, because a timed-out authorization may still have charged the card.
type Client struct {
	http   HTTPDoer
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a gateway client.
func NewClient(httpClient HTTPDoer, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		http:   httpClient,
		cfg:    cfg,
		logger: logger,
	}
}

// Live reports whether this client talks to the live gateway.
func (c *Client) Live() bool {
	return c.cfg.Live()
}

// AuthorizeInput holds everything needed for a one-shot authorization.
type AuthorizeInput struct {
	OrderNumber    string
	Amount         int64
	Currency       string
	Card           domain.Card
	BillingAddress *domain.Address
}

// RawResponse is the undigested gateway reply handed to the classifier.
// Err is set only for transport-level failures where no HTTP response exists.
type RawResponse struct {
	StatusCode int
	Body       []byte
	Err        error
}

// wire types for the v6 payments payload

type authorizePayload struct {
	TransactionReference string          `json:"transactionReference"`
	Merchant             merchant        `json:"merchant"`
	Instruction          instruction     `json:"instruction"`
	BillingAddress       *billingAddress `json:"billingAddress,omitempty"`
}

type merchant struct {
	Entity string `json:"entity"`
}

type instruction struct {
	Value             value             `json:"value"`
	Narrative         narrative         `json:"narrative"`
	PaymentInstrument paymentInstrument `json:"paymentInstrument"`
}

type value struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

type narrative struct {
	Line1 string `json:"line1"`
}

type paymentInstrument struct {
	Type             string     `json:"type"`
	CardNumber       string     `json:"cardNumber"`
	CardExpiryDate   expiryDate `json:"cardExpiryDate"`
	CardHolderName   string     `json:"cardHolderName"`
	CardSecurityCode string     `json:"cardSecurityCode,omitempty"`
}

type expiryDate struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type billingAddress struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

// TransactionReference builds the reference sent with an authorization:
// the order number plus a random suffix so retried checkouts never collide
// at the gateway.
func TransactionReference(orderNumber string) string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("ORDER-%s-%s", orderNumber, hex.EncodeToString(buf[:]))
}

// Authorize submits a single authorization attempt. The returned RawResponse
// always carries either a body or a transport error; interpreting it is the
// classifier's job. Authorize never retries.
func (c *Client) Authorize(ctx context.Context, in AuthorizeInput) *RawResponse {
	payload := authorizePayload{
		TransactionReference: TransactionReference(in.OrderNumber),
		Merchant:             merchant{Entity: c.cfg.Entity},
		Instruction: instruction{
			Value:     value{Currency: in.Currency, Amount: in.Amount},
			Narrative: narrative{Line1: "Order " + in.OrderNumber},
			PaymentInstrument: paymentInstrument{
				Type:             "card/plain",
				CardNumber:       in.Card.Number,
				CardExpiryDate:   expiryDate{Month: in.Card.ExpiryMonth, Year: in.Card.ExpiryYear},
				CardHolderName:   in.Card.HolderName,
				CardSecurityCode: in.Card.SecurityCode,
			},
		},
	}

	if addr := in.BillingAddress; addr != nil {
		payload.BillingAddress = &billingAddress{
			Address1:    addr.AddressLine,
			City:        addr.City,
			State:       addr.State,
			PostalCode:  addr.PostalCode,
			CountryCode: addr.Country,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &RawResponse{Err: fmt.Errorf("marshal authorization payload: %w", err)}
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL(), bytes.NewReader(body))
	if err != nil {
		return &RawResponse{Err: fmt.Errorf("create authorization request: %w", err)}
	}
	req.Header.Set("Content-Type", contentTypePaymentsV6)
	req.Header.Set("Accept", contentTypePaymentsV6)
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	c.logger.InfoContext(ctx, "submitting card authorization",
		slog.String("order_number", in.OrderNumber),
		slog.Int64("amount", in.Amount),
		slog.String("currency", in.Currency),
		slog.String("card", domain.MaskCardNumber(in.Card.Number)),
		slog.Bool("live", c.cfg.Live()),
	)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "gateway unreachable during authorization",
			slog.String("order_number", in.OrderNumber),
			slog.String("error", err.Error()),
		)
		return &RawResponse{Err: fmt.Errorf("call payment gateway: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &RawResponse{Err: fmt.Errorf("read gateway response: %w", err)}
	}

	return &RawResponse{StatusCode: resp.StatusCode, Body: respBody}
}

// RefundInput holds the parameters for a partial or full refund of a
// previously authorized payment.
type RefundInput struct {
	PaymentID string
	Amount    int64
	Currency  string
}

type refundPayload struct {
	Reference string    `json:"reference"`
	Value     value     `json:"value"`
	Narrative narrative `json:"narrative"`
}

type refundResponse struct {
	RefundID string `json:"refundId"`
	Outcome  string `json:"outcome"`
}

// Refund requests a refund against an existing gateway payment. Unlike
// Authorize, the caller may retry a failed refund because refund references
// are idempotent at the gateway.
func (c *Client) Refund(ctx context.Context, in RefundInput) (string, error) {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	payload := refundPayload{
		Reference: "REFUND-" + hex.EncodeToString(buf[:]),
		Value:     value{Currency: in.Currency, Amount: in.Amount},
		Narrative: narrative{Line1: "Refund"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal refund payload: %w", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	url := c.cfg.BaseURL() + "/" + in.PaymentID + "/refunds"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create refund request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypePaymentsV6)
	req.Header.Set("Accept", contentTypePaymentsV6)
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call payment gateway for refund: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read refund response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway refund failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var refund refundResponse
	if err := json.Unmarshal(respBody, &refund); err != nil {
		return "", fmt.Errorf("decode refund response: %w", err)
	}
	if refund.RefundID == "" {
		return "", fmt.Errorf("gateway refund response missing refundId")
	}

	c.logger.InfoContext(ctx, "refund accepted by gateway",
		slog.String("payment_id", in.PaymentID),
		slog.String("refund_id", refund.RefundID),
		slog.Int64("amount", in.Amount),
	)

	return refund.RefundID, nil
}
