package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/blueworldgit/epc-parts-store/pkg/validator"
)

// Card holds the card details captured from the payment form. The full number
// and security code are forwarded to the gateway once and never persisted or
// logged; only the masked label survives in the ledger.
type Card struct {
	Number       string `json:"-"`
	HolderName   string `json:"holder_name"`
	ExpiryMonth  int    `json:"expiry_month"`
	ExpiryYear   int    `json:"expiry_year"`
	SecurityCode string `json:"-"`
}

// Normalize returns a copy with spaces and dashes stripped from the card
// number.
func (c Card) Normalize() Card {
	c.Number = strings.NewReplacer(" ", "", "-", "").Replace(c.Number)
	return c
}

// Validate checks the card locally before any gateway call: number length and
// Luhn checksum, security code length, and that the expiry is not in the past.
func (c Card) Validate(now time.Time) error {
	if len(c.Number) < 13 || len(c.Number) > 19 {
		return fmt.Errorf("card number must be between 13 and 19 digits")
	}
	if !validator.Luhn(c.Number) {
		return fmt.Errorf("card number failed checksum validation")
	}
	if c.HolderName == "" {
		return fmt.Errorf("cardholder name is required")
	}
	if len(c.SecurityCode) < 3 || len(c.SecurityCode) > 4 {
		return fmt.Errorf("security code must be 3 or 4 digits")
	}
	for i := 0; i < len(c.SecurityCode); i++ {
		if c.SecurityCode[i] < '0' || c.SecurityCode[i] > '9' {
			return fmt.Errorf("security code must contain only digits")
		}
	}
	if c.ExpiryMonth < 1 || c.ExpiryMonth > 12 {
		return fmt.Errorf("expiry month must be between 1 and 12")
	}
	if c.ExpiryYear < now.Year() ||
		(c.ExpiryYear == now.Year() && time.Month(c.ExpiryMonth) < now.Month()) {
		return fmt.Errorf("card has expired")
	}
	return nil
}

// Last4 returns the last four digits of the card number.
func (c Card) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// MaskedLabel returns the display label stored in the payment ledger,
// e.g. "****4242".
func (c Card) MaskedLabel() string {
	return "****" + c.Last4()
}

// MaskCardNumber masks an arbitrary card number for display, keeping only the
// last four digits.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
