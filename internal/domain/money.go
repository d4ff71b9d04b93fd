package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor units (pence, cents) with an ISO 4217 currency.
// All arithmetic in the service happens on minor units; decimal strings exist
// only at the edges (request parsing, display, gateway narrative).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ParseAmount converts a decimal amount string such as "19.99" to minor units.
// At most two fractional digits are accepted; anything finer is rejected rather
// than rounded.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty string")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if units < 0 {
		return 0, fmt.Errorf("parse amount %q: negative amounts not allowed", s)
	}

	var minor int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("parse amount %q: at most two fractional digits allowed", s)
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("parse amount %q: invalid fractional part", s)
		}
		if len(frac) == 1 {
			f *= 10
		}
		minor = f
	}

	return units*100 + minor, nil
}

// FormatAmount renders minor units as a decimal string with two fractional
// digits, e.g. 1999 -> "19.99".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func (m Money) String() string {
	return FormatAmount(m.Amount) + " " + m.Currency
}
