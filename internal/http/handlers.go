package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
)

// handleHealth performs basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.startedAt).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ledger == nil {
		checks["ledger"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if _, degraded := s.readLedger(r.Context()); degraded {
		checks["ledger"] = "degraded: store unreachable"
	} else {
		checks["ledger"] = "ok"
	}

	checks["cache"] = map[string]interface{}{
		"entries": s.ledgerCache.Size(),
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients":  s.rateLimiter.activeClients(),
		"rate_limit_hits": atomic.LoadInt64(&s.metrics.rateLimitHits),
		"status":          "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleIndex renders the dashboard page with the record form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	cats, accounts := s.ledger.Suggestions(r.Context())
	data := struct {
		Today      string
		Categories []string
		Accounts   []string
	}{
		Today:      core.NewDate(now.Year(), int(now.Month()), now.Day()).String(),
		Categories: cats,
		Accounts:   accounts,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", applog.FieldError, err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleCreateTransaction saves one record submitted from the form.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error",
			applog.FieldError, err, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	dateStr := sanitizeInput(r.Form.Get("date"))
	date, err := core.ParseDate(dateStr)
	if err != nil {
		UnprocessableEntityError("Invalid date").Write(w)
		return
	}

	direction := core.Direction(sanitizeInput(r.Form.Get("direction")))
	category := sanitizeInput(r.Form.Get("category"))
	account := sanitizeInput(r.Form.Get("account"))
	amountStr := sanitizeInput(r.Form.Get("amount"))

	cents, err := core.ParseAmountCents(amountStr)
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	tx := core.Transaction{
		Date:      date,
		Direction: direction,
		Category:  category,
		Amount:    core.Money{Cents: cents},
		Account:   account,
	}
	if err := tx.Validate(); err != nil {
		UnprocessableEntityError("Invalid record: " + err.Error()).Write(w)
		return
	}

	ref, err := s.ledger.AppendTransaction(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transaction append error",
			applog.FieldError, err,
			applog.FieldCategory, tx.Category,
			applog.FieldAmountCents, tx.Amount.Cents)
		InternalServerError("Failed to save record").Write(w)
		return
	}

	s.invalidateLedger()

	NewHTMXResponse().
		TriggerTransactionCreated(tx.Date.String()).
		TriggerFormReset().
		TriggerSuccessNotification("Record saved").
		BodyHTML(`<div class="success">Saved #` + template.HTMLEscapeString(ref) + `: ` +
			template.HTMLEscapeString(string(tx.Direction)) + ` ` +
			template.HTMLEscapeString(formatAmount(tx.Amount.Cents)) + ` (` +
			template.HTMLEscapeString(tx.Category) + ` / ` +
			template.HTMLEscapeString(tx.Account) + `)</div>`).
		Write(w)
}

// handleBalances renders the per-account balance partial.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	txs, degraded := s.readLedger(r.Context())
	balances := core.AccountBalances(txs)

	type row struct {
		Account  string
		Balance  string
		Negative bool
	}
	data := struct {
		Degraded bool
		Rows     []row
	}{Degraded: degraded}
	for _, b := range balances {
		data.Rows = append(data.Rows, row{
			Account:  b.Account,
			Balance:  formatAmount(b.Balance.Cents),
			Negative: b.Balance.Cents < 0,
		})
	}

	s.renderPartial(w, r, "balances.html", data)
}

// handleDailyExpenses renders the spending list for the reference date.
func (s *Server) handleDailyExpenses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	ref := parseRefDate(r)
	txs, degraded := s.readLedger(r.Context())
	day := core.DailyExpenses(txs, ref)

	type item struct {
		Category string
		Account  string
		Amount   string
	}
	data := struct {
		Date     string
		Degraded bool
		Total    string
		Items    []item
	}{Date: ref.String(), Degraded: degraded, Total: formatAmount(day.Total.Cents)}
	for _, t := range day.Items {
		data.Items = append(data.Items, item{
			Category: t.Category,
			Account:  t.Account,
			Amount:   formatAmount(t.Amount.Cents),
		})
	}

	s.renderPartial(w, r, "daily.html", data)
}

// handleMonthBreakdown renders the per-category expense breakdown for the
// reference date's calendar month.
func (s *Server) handleMonthBreakdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	ref := parseRefDate(r)
	txs, degraded := s.readLedger(r.Context())
	byCategory := core.MonthlyByCategory(txs, ref)

	// Max category drives the progress bar scaling.
	var maxCents int64
	for _, c := range byCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}

	type row struct {
		Name   string
		Amount string
		Width  int
	}
	var total int64
	data := struct {
		Year     int
		Month    int
		Degraded bool
		Total    string
		Rows     []row
	}{Year: ref.Year, Month: ref.Month, Degraded: degraded}
	for _, c := range byCategory {
		width := 0
		if maxCents > 0 && c.Amount.Cents > 0 {
			width = int((c.Amount.Cents*100 + maxCents/2) / maxCents) // rounded percent
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		total += c.Amount.Cents
		data.Rows = append(data.Rows, row{Name: c.Name, Amount: formatAmount(c.Amount.Cents), Width: width})
	}
	data.Total = formatAmount(total)

	s.renderPartial(w, r, "month_breakdown.html", data)
}

// handleHistory renders the full record list, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	txs, degraded := s.readLedger(r.Context())

	type item struct {
		Date      string
		Direction string
		Category  string
		Account   string
		Amount    string
		IsExpense bool
	}
	data := struct {
		Degraded bool
		Items    []item
	}{Degraded: degraded}
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		data.Items = append(data.Items, item{
			Date:      t.Date.String(),
			Direction: string(t.Direction),
			Category:  t.Category,
			Account:   t.Account,
			Amount:    formatAmount(t.Amount.Cents),
			IsExpense: t.Direction == core.Expense,
		})
	}

	s.renderPartial(w, r, "history.html", data)
}

// renderPartial executes a template, falling back to an inline error
// placeholder so the dashboard never breaks a swap.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">templates not loaded</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", applog.FieldError, err, "template", name)
		_, _ = w.Write([]byte(`<div class="placeholder">Failed rendering view</div>`))
	}
}
