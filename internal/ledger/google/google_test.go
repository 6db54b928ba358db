package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"kakeibo/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	oldID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	defer os.Setenv("GOOGLE_SPREADSHEET_ID", oldID)
	os.Unsetenv("GOOGLE_SPREADSHEET_ID")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAppendValidatesBeforeNetwork(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Ledger"} // svc nil, any network call would fail

	_, err := c.Append(context.Background(), core.Transaction{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got: %v", err)
	}
}

func TestAppendRequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Ledger"}

	tx := core.Transaction{
		Date:      core.NewDate(2024, 5, 1),
		Direction: core.Expense,
		Category:  "dining",
		Amount:    core.Money{Cents: 1234},
		Account:   "cash",
	}
	if _, err := c.Append(context.Background(), tx); err == nil {
		t.Fatal("expected error with uninitialized service")
	}
}

// fakeSheet serves the three Values endpoints Append touches and records
// what gets written back.
type fakeSheet struct {
	rows    [][]any
	cleared bool
	written [][]any
}

func (f *fakeSheet) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
			f.cleared = true
			_ = json.NewEncoder(w).Encode(map[string]any{})
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
		case r.Method == http.MethodPut:
			var vr gsheet.ValueRange
			if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
				t.Errorf("decode update body: %v", err)
			}
			f.written = vr.Values
			_ = json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newFakeClient(t *testing.T, sheet *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(sheet.handler(t))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithoutAuthentication(),
		goption.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return &Client{svc: svc, spreadsheetID: "sheet-id", sheetName: "Ledger"}
}

func TestAppendMirrorsWholeTable(t *testing.T) {
	sheet := &fakeSheet{rows: [][]any{
		{"date", "type", "category", "amount", "account"},
		{"2024-05-01", "expense", "dining", "12.34", "cash"},
	}}
	c := newFakeClient(t, sheet)

	ref, err := c.Append(context.Background(), core.Transaction{
		Date:      core.NewDate(2024, 5, 2),
		Direction: core.Income,
		Category:  "salary",
		Amount:    core.Money{Cents: 100000},
		Account:   "bank card",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "row:2" {
		t.Errorf("ref = %q, want row:2", ref)
	}
	if !sheet.cleared {
		t.Errorf("append must clear before rewriting")
	}
	// Header plus both data rows must be written back.
	if len(sheet.written) != 3 {
		t.Fatalf("written rows = %d, want 3 (header + 2 records)", len(sheet.written))
	}
	last := sheet.written[2]
	if len(last) != 5 || last[0] != "2024-05-02" || last[2] != "salary" {
		t.Errorf("appended row not written back: %v", last)
	}
	existing := sheet.written[1]
	if len(existing) != 5 || existing[2] != "dining" {
		t.Errorf("existing row lost in rewrite: %v", existing)
	}
}
