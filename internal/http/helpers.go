package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
)

// parseRefDate extracts the reference date from the "date" query
// parameter, defaulting to today when missing or invalid.
func parseRefDate(r *http.Request) core.Date {
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			return d
		}
	}
	now := time.Now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

// formatAmount formats cents as a decimal amount string (e.g., "4900.00").
func formatAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(units, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-" + s
	}
	return s
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
