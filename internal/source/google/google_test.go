package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"hoteldash/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu       sync.Mutex
	values   [][]interface{}
	appended [][]interface{}
	paths    []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"range": "Daily!A1:Z10", "values": f.values})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		json.Unmarshal(body, &vr)
		f.appended = append(f.appended, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-id",
			"updates":       map[string]any{"updatedRange": "Sync!A2:J3", "updatedRows": len(vr.Values)},
		})
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return newClient(svc, Config{SpreadsheetID: "sheet-id"})
}

func TestClientListMetrics(t *testing.T) {
	fake := &fakeSheets{values: [][]interface{}{
		{"date", "dimension", "category", "revenue", "rooms_sold"},
		{"2025-01-01", "room_type", "Suite", 900.0, 3.0},
		{"2025-01-01", "booking_channel", "Direct", 100.0, 1.0},
	}}
	c := newFakeClient(t, fake)

	rows, err := c.ListMetrics(context.Background(), core.Query{Dimension: core.RoomType})
	if err != nil {
		t.Fatalf("ListMetrics: %v", err)
	}
	if len(rows) != 1 || rows[0].Category != "Suite" || rows[0].Revenue != 900 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if len(fake.paths) != 1 || !strings.Contains(fake.paths[0], "/v4/spreadsheets/sheet-id/values/") {
		t.Errorf("unexpected request paths: %v", fake.paths)
	}
}

func TestClientAppendMetrics(t *testing.T) {
	fake := &fakeSheets{}
	c := newFakeClient(t, fake)

	rows := []core.DailyMetric{
		{ID: 7, Date: core.NewDate(2025, 1, 1), Dimension: core.RoomType, Category: "Suite", Revenue: 900, RoomsSold: 3},
		{ID: 8, Date: core.NewDate(2025, 1, 1), Dimension: core.RoomType, Category: "Double", Revenue: 400, RoomsSold: 4},
	}
	ref, err := c.AppendMetrics(context.Background(), rows)
	if err != nil {
		t.Fatalf("AppendMetrics: %v", err)
	}
	if ref != "Sync!A2:J3" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.appended) != 2 {
		t.Fatalf("appended %d rows, want 2", len(fake.appended))
	}
	first := fake.appended[0]
	if first[0] != "7" || first[1] != "2025-01-01" || first[3] != "Suite" || first[9] != 300.0 {
		t.Errorf("unexpected sync row: %v", first)
	}

	if ref, err := c.AppendMetrics(context.Background(), nil); err != nil || ref != "" {
		t.Errorf("empty append: ref=%q err=%v", ref, err)
	}
}

func TestClientAppendRejectsInvalidRows(t *testing.T) {
	c := &Client{svc: &gsheet.Service{}, spreadsheetID: "x", syncSheet: "Sync"}
	_, err := c.AppendMetrics(context.Background(), []core.DailyMetric{{ID: 1, Dimension: core.RoomType, Category: "Suite"}})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestClientNotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	if _, err := c.ListMetrics(context.Background(), core.Query{Dimension: core.RoomType}); err == nil {
		t.Error("expected error from ListMetrics without service")
	}
	if _, err := c.AppendMetrics(context.Background(), []core.DailyMetric{{}}); err == nil {
		t.Error("expected error from AppendMetrics without service")
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultSheetNames(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: " id "})
	if c.dailySheet != "Daily" || c.syncSheet != "Sync" || c.spreadsheetID != "id" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
