// Package core holds the ledger's record model, amount normalization and
// the aggregation queries that feed the dashboard views.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountCents converts a decimal string from the entry form to cents
// with half-up rounding on the third decimal place. It accepts both dot
// (12.34) and comma (12,34) separators and only non-negative values; the
// sign of a transaction lives in its Direction, never in the amount.
//
// Examples:
//
//	ParseAmountCents("12.34") -> 1234, nil
//	ParseAmountCents("12,34") -> 1234, nil
//	ParseAmountCents("12.346") -> 1235, nil (rounds up)
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// NormalizeAmount coerces a raw stored cell of unknown shape into Money.
// Unparseable input (non-numeric text, empty) becomes exactly zero; a
// parseable negative is kept as-is rather than clamped, matching how rows
// already in the store are treated.
func NormalizeAmount(raw string) Money {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Money{}
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Money{}
	}
	return Money{Cents: roundCents(f)}
}

// NormalizeAmounts cleans a whole amount column. It runs once, right after
// the collection is read from the store and before any aggregation; the
// output has the same length as the input.
func NormalizeAmounts(raw []string) []Money {
	out := make([]Money, len(raw))
	for i, v := range raw {
		out[i] = NormalizeAmount(v)
	}
	return out
}

func roundCents(f float64) int64 {
	if f < 0 {
		return -int64((-f * 100.0) + 0.5)
	}
	return int64((f * 100.0) + 0.5)
}
