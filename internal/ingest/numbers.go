package ingest

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// cleanNumeric strips grouping commas, currency prefixes, and surrounding
// whitespace from an uploaded numeric cell.
func cleanNumeric(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, ",", "")
	value = strings.TrimPrefix(value, "Rs.")
	value = strings.TrimPrefix(value, "Rs")
	return strings.TrimSpace(value)
}

// CoerceDecimal converts an uploaded money/quantity cell to a decimal.
// Empty strings, "N/A", "null", and non-numeric garbage coerce to zero;
// coercion never fails.
func CoerceDecimal(value string) decimal.Decimal {
	cleaned := cleanNumeric(value)
	switch strings.ToLower(cleaned) {
	case "", "n/a", "na", "null", "nil", "-":
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceNullDecimal is CoerceDecimal for nullable columns: unparseable or
// empty input yields an invalid (NULL) decimal instead of zero.
func CoerceNullDecimal(value string) decimal.NullDecimal {
	cleaned := cleanNumeric(value)
	switch strings.ToLower(cleaned) {
	case "", "n/a", "na", "null", "nil", "-":
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// CoerceInt64Ptr converts an integer cell to a pointer, nil when absent or
// malformed.
func CoerceInt64Ptr(value string) *int64 {
	cleaned := cleanNumeric(value)
	if cleaned == "" {
		return nil
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
