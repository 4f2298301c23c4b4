package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"myduid/internal/core"
	"myduid/internal/export"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu       sync.Mutex
	existing []string
	calls    []string
	updates  map[string][][]interface{}
	added    []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet-id")
	f.calls = append(f.calls, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && path == "":
		var sheets []map[string]any
		for _, title := range f.existing {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && path == ":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
			}
		}
		_, _ = io.WriteString(w, "{}")
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := strings.TrimPrefix(path, "/values/")
		f.updates[rng] = vr.Values
		_, _ = io.WriteString(w, "{}")
	default:
		_, _ = io.WriteString(w, "{}")
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, "sheet-id")
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+string(os.PathSeparator)+"missing.json")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestQuoteTitle(t *testing.T) {
	tests := map[string]string{
		"Goals u1":     "'Goals u1'",
		"Bob's things": "'Bob''s things'",
	}
	for in, want := range tests {
		if got := quoteTitle(in); got != want {
			t.Errorf("quoteTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteSnapshot_CreatesMissingTabsAndWritesRows(t *testing.T) {
	fake := &fakeSheets{
		existing: []string{"Goals u1"},
		updates:  make(map[string][][]interface{}),
	}
	c := newTestClient(t, fake)

	snap := export.Snapshot{
		UserID: "u1",
		Transactions: []core.Transaction{{
			ID:       "t1",
			Amount:   decimal.RequireFromString("12.5"),
			Category: "Food",
			Type:     core.Expense,
			Date:     time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		}},
		Goals: []core.Goal{},
	}
	if err := c.WriteSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	if len(fake.added) != 1 || fake.added[0] != "Transactions u1" {
		t.Errorf("added tabs = %v, want [Transactions u1]", fake.added)
	}

	txRows := fake.updates["'Transactions u1'!A1"]
	if len(txRows) != 2 {
		t.Fatalf("transactions rows = %v", txRows)
	}
	if txRows[0][0] != "Date" || txRows[1][1] != "EXPENSE" || txRows[1][3] != "12.50" {
		t.Errorf("unexpected transaction rows: %v", txRows)
	}
	goalRows := fake.updates["'Goals u1'!A1"]
	if len(goalRows) != 1 || goalRows[0][0] != "Name" {
		t.Errorf("goal rows = %v, want header only", goalRows)
	}

	var clears int
	for _, call := range fake.calls {
		if strings.HasSuffix(call, ":clear") {
			clears++
		}
	}
	if clears != 2 {
		t.Errorf("expected 2 clears, got %d (%v)", clears, fake.calls)
	}
}

func TestWriteSnapshot_SkipsMissingSections(t *testing.T) {
	fake := &fakeSheets{updates: make(map[string][][]interface{})}
	c := newTestClient(t, fake)

	if err := c.WriteSnapshot(context.Background(), export.Snapshot{UserID: "u1"}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("expected no API calls, got %v", fake.calls)
	}
}

func TestWriteSnapshot_Errors(t *testing.T) {
	if err := (&Client{}).WriteSnapshot(context.Background(), export.Snapshot{UserID: "u1"}); err == nil {
		t.Error("expected error for uninitialized service")
	}

	fake := &fakeSheets{updates: make(map[string][][]interface{})}
	c := newTestClient(t, fake)
	if err := c.WriteSnapshot(context.Background(), export.Snapshot{}); err == nil {
		t.Error("expected error for snapshot without user")
	}
}
