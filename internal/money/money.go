// Package money parses user-supplied monetary amounts into exact decimals.
//
// Back-office amounts arrive from forms and spreadsheets with ASCII or
// Arabic thousands separators and sometimes Persian or Arabic-Indic digits.
// Parsing normalizes all of that; anything left over is an error, never a
// silent zero.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// normalizeRune folds separator and digit variants into ASCII.
// Returns -1 for characters that must be dropped entirely.
func normalizeRune(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r
	case r >= '۰' && r <= '۹': // Persian digits
		return '0' + (r - '۰')
	case r >= '٠' && r <= '٩': // Arabic-Indic digits
		return '0' + (r - '٠')
	}
	switch r {
	case ',', '٬', '،', ' ', ' ', '‏', '‎':
		// thousands separators, Arabic comma, spaces, directional marks
		return -1
	case '٫': // Arabic decimal separator
		return '.'
	case '.', '-', '+':
		return r
	}
	return r
}

// Normalize strips separators and folds digit variants, returning the
// cleaned ASCII representation of the amount.
func Normalize(s string) string {
	return strings.Map(normalizeRune, strings.TrimSpace(s))
}

// Parse converts a raw amount string to a decimal.
// Non-numeric input is an error; empty input is an error.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := Normalize(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// ParsePositive parses an amount and requires it to be strictly positive.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}
	return d, nil
}
