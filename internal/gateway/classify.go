package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the closed set of authorization outcomes. Every gateway reply
// maps to exactly one of these; callers switch on the outcome and never
// inspect raw gateway fields.
type Outcome string

const (
	// OutcomeAuthorized means the charge went through.
	OutcomeAuthorized Outcome = "authorized"
	// OutcomeRefused means the issuer declined the charge.
	OutcomeRefused Outcome = "refused"
	// OutcomePendingAdditionalAuth means the gateway wants an additional
	// authentication step this integration does not perform.
	OutcomePendingAdditionalAuth Outcome = "pending_additional_auth"
	// OutcomeNetworkError means no usable HTTP response arrived. The charge
	// state is unknown; never auto-retry.
	OutcomeNetworkError Outcome = "network_error"
	// OutcomeProtocolError means the gateway answered with something this
	// integration cannot interpret. Treated as failure, never as success.
	OutcomeProtocolError Outcome = "protocol_error"
)

// Result is the classified authorization outcome.
type Result struct {
	Outcome Outcome

	// Populated on OutcomeAuthorized.
	PaymentID string
	AuthCode  string
	CardBrand string
	Last4     string

	// Populated on OutcomeRefused.
	DeclineCode    string
	DeclineMessage string

	// TestCardInLiveMode flags a refusal or protocol error whose decline
	// details indicate a test card hit the live gateway. It changes the
	// customer-facing message only; the underlying failure stands.
	TestCardInLiveMode bool

	// Err carries the transport error on OutcomeNetworkError and the decode
	// detail on OutcomeProtocolError.
	Err error
}

// UserMessage returns the customer-facing failure message, substituting the
// fixed test-card notice when a test card was used against the live gateway.
func (r Result) UserMessage() string {
	if r.TestCardInLiveMode {
		return TestCardMessage
	}
	switch r.Outcome {
	case OutcomeRefused:
		if r.DeclineCode != "" && r.DeclineMessage != "" {
			return fmt.Sprintf("%s %s", r.DeclineCode, r.DeclineMessage)
		}
		if r.DeclineMessage != "" {
			return r.DeclineMessage
		}
		return "Your card was declined."
	case OutcomePendingAdditionalAuth:
		return "Your card requires additional authentication which is not supported. Please use a different card."
	case OutcomeNetworkError:
		return "We could not reach the payment provider. Your card may or may not have been charged; please do not retry until you have checked with us."
	default:
		return "Payment could not be processed. Please try again or use a different card."
	}
}

// TestCardMessage is shown in place of the raw decline when a test card is
// detected against the live gateway.
const TestCardMessage = "Test cards cannot be used for real purchases. Please use a valid payment card."

// Decline indicators that mean a test card or test-environment credential hit
// the live gateway. Matched case-insensitively against decline descriptions.
var testCardDescriptions = []string{
	"test card",
	"invalid card number",
	"card not permitted",
	"transaction not permitted",
	"invalid merchant",
	"issuer not available",
}

// Error codes that carry the same signal.
var testCardErrorCodes = []string{
	"TKN_NOT_FOUND",
	"INVALID_CARD",
	"CARD_NOT_PERMITTED",
}

// authorizedBody is the success response shape.
type authorizedBody struct {
	Outcome   string `json:"outcome"`
	PaymentID string `json:"paymentId"`
	Issuer    struct {
		AuthorizationCode string `json:"authorizationCode"`
	} `json:"issuer"`
	PaymentInstrument struct {
		Card struct {
			Number struct {
				Last4Digits string `json:"last4Digits"`
			} `json:"number"`
			Brand string `json:"brand"`
		} `json:"card"`
	} `json:"paymentInstrument"`
}

// declineBody is the refusal / error response shape.
type declineBody struct {
	Outcome     string `json:"outcome"`
	Code        string `json:"code"`
	Description string `json:"description"`
	ErrorName   string `json:"errorName"`
	Message     string `json:"message"`
}

// Classify turns a raw gateway reply into exactly one Outcome. liveMode
// gates the test-card detection: test-card declines are only flagged when the
// request actually went to the live gateway.
func Classify(raw *RawResponse, liveMode bool) Result {
	if raw.Err != nil {
		return Result{Outcome: OutcomeNetworkError, Err: raw.Err}
	}

	if raw.StatusCode >= 200 && raw.StatusCode < 300 {
		return classifySuccess(raw, liveMode)
	}

	return classifyFailure(raw, liveMode)
}

// classifySuccess handles 2xx bodies. The decoder fails closed: a 2xx status
// with an undecodable or unknown-outcome body is a protocol error, not a
// success.
func classifySuccess(raw *RawResponse, liveMode bool) Result {
	var probe struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(raw.Body, &probe); err != nil {
		return Result{
			Outcome: OutcomeProtocolError,
			Err:     fmt.Errorf("undecodable gateway success body: %w", err),
		}
	}

	switch probe.Outcome {
	case "authorized":
		var body authorizedBody
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Result{
				Outcome: OutcomeProtocolError,
				Err:     fmt.Errorf("undecodable authorized body: %w", err),
			}
		}
		if body.PaymentID == "" {
			return Result{
				Outcome: OutcomeProtocolError,
				Err:     fmt.Errorf("authorized response missing paymentId"),
			}
		}
		return Result{
			Outcome:   OutcomeAuthorized,
			PaymentID: body.PaymentID,
			AuthCode:  body.Issuer.AuthorizationCode,
			CardBrand: body.PaymentInstrument.Card.Brand,
			Last4:     body.PaymentInstrument.Card.Number.Last4Digits,
		}

	case "refused":
		var body declineBody
		if err := json.Unmarshal(raw.Body, &body); err != nil {
			return Result{
				Outcome: OutcomeProtocolError,
				Err:     fmt.Errorf("undecodable refused body: %w", err),
			}
		}
		return Result{
			Outcome:            OutcomeRefused,
			DeclineCode:        body.Code,
			DeclineMessage:     body.Description,
			TestCardInLiveMode: liveMode && isTestCardSignal(body.Code, body.Description),
		}

	case "sentForAuthorization":
		return Result{Outcome: OutcomePendingAdditionalAuth}

	default:
		return Result{
			Outcome: OutcomeProtocolError,
			Err:     fmt.Errorf("unknown gateway outcome %q", probe.Outcome),
		}
	}
}

// classifyFailure handles non-2xx statuses. Structured error bodies still get
// test-card detection; everything else is a protocol error with the status
// preserved for operators.
func classifyFailure(raw *RawResponse, liveMode bool) Result {
	var body declineBody
	if err := json.Unmarshal(raw.Body, &body); err == nil {
		code := body.Code
		if code == "" {
			code = body.ErrorName
		}
		msg := body.Description
		if msg == "" {
			msg = body.Message
		}
		if code != "" || msg != "" {
			return Result{
				Outcome:            OutcomeProtocolError,
				DeclineCode:        code,
				DeclineMessage:     msg,
				TestCardInLiveMode: liveMode && isTestCardSignal(code, msg),
				Err:                fmt.Errorf("gateway error %d: %s %s", raw.StatusCode, code, msg),
			}
		}
	}

	return Result{
		Outcome: OutcomeProtocolError,
		Err:     fmt.Errorf("gateway error %d: %s", raw.StatusCode, truncate(string(raw.Body), 200)),
	}
}

// isTestCardSignal checks decline details against the known test-card
// indicators.
func isTestCardSignal(code, description string) bool {
	for _, c := range testCardErrorCodes {
		if strings.EqualFold(code, c) {
			return true
		}
	}
	desc := strings.ToLower(description)
	for _, s := range testCardDescriptions {
		if strings.Contains(desc, s) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
