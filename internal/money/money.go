// Package money implements the fixed-point currency helpers used by the sale
// ledger and the report extractor. Every value is a decimal.Decimal rounded to
// two places, half away from zero.
package money

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept for every amount.
const Places = 2

// ErrMontoInvalido is returned by ParseStrict when the input is not a number.
var ErrMontoInvalido = errors.New("monto invalido")

// Parse converts raw into a rounded amount. Empty or non-numeric input becomes
// zero; callers that must reject typos use ParseStrict instead.
func Parse(raw any) decimal.Decimal {
	d, err := parseExacto(raw)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(Places)
}

// ParseStrict is Parse without the silent zero: unparseable input returns
// ErrMontoInvalido. Input with more than two decimal places is rejected too,
// so "1.500" or 10.005 never turn into a different amount unnoticed.
func ParseStrict(raw any) (decimal.Decimal, error) {
	d, err := parseExacto(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.Exponent() < -Places {
		return decimal.Zero, ErrMontoInvalido
	}
	return d.Round(Places), nil
}

// parseExacto returns raw as a decimal without rounding. Its exponent keeps
// the number of decimal places the input was written with.
func parseExacto(raw any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, ErrMontoInvalido
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, ErrMontoInvalido
		}
		d = *v
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	case uint:
		d = decimal.NewFromUint64(uint64(v))
	case uint64:
		d = decimal.NewFromUint64(v)
	case float32:
		return parseExacto(float64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, ErrMontoInvalido
		}
		// NewFromFloat keeps the shortest decimal representation, so 1.005
		// stays 1.005 instead of 1.00499999...
		d = decimal.NewFromFloat(v)
	case json.Number:
		return parseExacto(string(v))
	case string:
		s, ok := normalizar(v)
		if !ok {
			return decimal.Zero, ErrMontoInvalido
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, ErrMontoInvalido
		}
		d = parsed
	default:
		return decimal.Zero, ErrMontoInvalido
	}
	return d, nil
}

// Add sums every operand after parsing it.
func Add(amounts ...any) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(Parse(a))
	}
	return total.Round(Places)
}

// Subtract returns a - b after parsing both.
func Subtract(a, b any) decimal.Decimal {
	return Parse(a).Sub(Parse(b)).Round(Places)
}

// Format renders amount with exactly two decimals.
func Format(amount any) string {
	return Parse(amount).StringFixed(Places)
}

// normalizar strips currency symbols and thousands separators and leaves a
// dot as the decimal separator. "1.234,50", "1,234.50" and "$ 1234,5" are
// all accepted. A lone comma followed by exactly three digits groups
// thousands: "1,500" is 1500, while "0,500" stays a fraction.
func normalizar(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return "", false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || milesConComa(s, lastComma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}
	if strings.Count(s, ".") > 1 {
		return "", false
	}
	return s, true
}

func milesConComa(s string, coma int) bool {
	entero := strings.TrimPrefix(s[:coma], "-")
	return len(s)-coma-1 == 3 && entero != "" && entero[0] != '0'
}
