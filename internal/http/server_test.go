package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger/memory"
	"kakeibo/internal/services"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New(nil, nil)
	s := NewServer(":0", services.NewLedgerService(store, nil))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func recordForm(date, direction, category, amount, account string) url.Values {
	return url.Values{
		"date":      {date},
		"direction": {direction},
		"category":  {category},
		"amount":    {amount},
		"account":   {account},
	}
}

func TestCreateTransaction(t *testing.T) {
	s, store := newTestServer(t)

	rec := postForm(s, "/transactions", recordForm("2024-05-01", "expense", "dining", "12.50", "cash"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rec.Code, rec.Body.String())
	}
	if trigger := rec.Header().Get("HX-Trigger"); !strings.Contains(trigger, "transaction:created") {
		t.Fatalf("missing transaction:created trigger, got %q", trigger)
	}

	txs, err := store.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount.Cents != 1250 {
		t.Fatalf("record not stored: %v", txs)
	}
}

func TestCreateTransactionRejectsBadAmount(t *testing.T) {
	s, _ := newTestServer(t)

	for _, amount := range []string{"", "abc", "-5", "1.2.3"} {
		rec := postForm(s, "/transactions", recordForm("2024-05-01", "expense", "dining", amount, "cash"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("amount %q: status = %d, want 422", amount, rec.Code)
		}
	}
}

func TestCreateTransactionRejectsBadDate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := postForm(s, "/transactions", recordForm("05/01/2024", "expense", "dining", "10", "cash"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestCreateTransactionMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(s, "/transactions")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "POST" {
		t.Fatalf("Allow = %q, want POST", allow)
	}
}

func TestBalancesPartial(t *testing.T) {
	s, _ := newTestServer(t)

	postForm(s, "/transactions", recordForm("2024-05-01", "income", "salary", "100", "cash"))
	postForm(s, "/transactions", recordForm("2024-05-02", "expense", "dining", "25", "cash"))

	rec := get(s, "/ui/balances")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "cash") || !strings.Contains(body, "75.00") {
		t.Fatalf("expected cash balance 75.00 in body:\n%s", body)
	}
}

func TestBalancesReflectNewRecords(t *testing.T) {
	s, _ := newTestServer(t)

	// Warm the cache, then append; the create handler must invalidate it.
	get(s, "/ui/balances")
	postForm(s, "/transactions", recordForm("2024-05-01", "income", "salary", "100", "bank card"))

	body := get(s, "/ui/balances").Body.String()
	if !strings.Contains(body, "bank card") {
		t.Fatalf("stale cache after create:\n%s", body)
	}
}

func TestDailyPartialFiltersByDate(t *testing.T) {
	s, _ := newTestServer(t)

	postForm(s, "/transactions", recordForm("2024-05-01", "expense", "dining", "10", "cash"))
	postForm(s, "/transactions", recordForm("2024-05-02", "expense", "transport", "5", "cash"))
	postForm(s, "/transactions", recordForm("2024-05-01", "income", "salary", "100", "cash"))

	body := get(s, "/ui/daily?date=2024-05-01").Body.String()
	if !strings.Contains(body, "dining") {
		t.Fatalf("expected dining in daily view:\n%s", body)
	}
	if strings.Contains(body, "transport") || strings.Contains(body, "salary") {
		t.Fatalf("daily view must only show that day's expenses:\n%s", body)
	}
	if !strings.Contains(body, "Total: 10.00") {
		t.Fatalf("expected total 10.00:\n%s", body)
	}
}

func TestMonthPartialGroupsByCategory(t *testing.T) {
	s, _ := newTestServer(t)

	postForm(s, "/transactions", recordForm("2024-05-01", "expense", "dining", "10", "cash"))
	postForm(s, "/transactions", recordForm("2024-05-20", "expense", "dining", "15", "cash"))
	postForm(s, "/transactions", recordForm("2024-06-01", "expense", "dining", "99", "cash"))

	body := get(s, "/ui/month?date=2024-05-15").Body.String()
	if !strings.Contains(body, "25.00") {
		t.Fatalf("expected May dining total 25.00:\n%s", body)
	}
	if strings.Contains(body, "99.00") {
		t.Fatalf("June record leaked into May breakdown:\n%s", body)
	}
}

func TestHistoryPartialNewestFirst(t *testing.T) {
	s, _ := newTestServer(t)

	postForm(s, "/transactions", recordForm("2024-05-01", "expense", "first", "1", "cash"))
	postForm(s, "/transactions", recordForm("2024-05-02", "expense", "second", "2", "cash"))

	body := get(s, "/ui/history").Body.String()
	if strings.Index(body, "second") > strings.Index(body, "first") {
		t.Fatalf("history should list newest first:\n%s", body)
	}
}

type failingLedger struct{}

func (failingLedger) ReadLedger(context.Context) ([]core.Transaction, bool) { return nil, true }
func (failingLedger) AppendTransaction(context.Context, core.Transaction) (string, error) {
	return "", errors.New("connection refused")
}
func (failingLedger) Suggestions(context.Context) ([]string, []string) { return nil, nil }

func TestDegradedReadShowsWarning(t *testing.T) {
	s := NewServer(":0", failingLedger{})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	body := get(s, "/ui/balances").Body.String()
	if !strings.Contains(body, "Ledger unavailable") {
		t.Fatalf("expected degraded warning:\n%s", body)
	}
}

func TestWriteFailureSurfaces(t *testing.T) {
	s := NewServer(":0", failingLedger{})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	rec := postForm(s, "/transactions", recordForm("2024-05-01", "expense", "dining", "10", "cash"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestIndexRendersForm(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="date"`, `name="direction"`, `name="category"`, `name="amount"`, `name="account"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("index missing %s:\n%s", want, body)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if rec := get(s, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(s, "/")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing frame options header")
	}
}
