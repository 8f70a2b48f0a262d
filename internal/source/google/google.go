package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"hoteldash/internal/core"
	"hoteldash/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	dailySheet    string
	syncSheet     string
}

// Ensure interface conformance
var (
	_ source.MetricsReader = (*Client)(nil)
	_ source.MetricsSyncer = (*Client)(nil)
)

// Config selects the spreadsheet, tabs and credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	SyncSheetName   string
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Daily"), GOOGLE_SYNC_SHEET_NAME (default "Sync").
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	return New(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		SyncSheetName:   os.Getenv("GOOGLE_SYNC_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: file,
	})
}

// New creates a Sheets client authenticated with a service account.
// Extra options are passed to the Sheets service after the credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	daily := strings.TrimSpace(cfg.SheetName)
	if daily == "" {
		daily = "Daily"
	}
	sync := strings.TrimSpace(cfg.SyncSheetName)
	if sync == "" {
		sync = "Sync"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		dailySheet:    daily,
		syncSheet:     sync,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)

	slog.InfoContext(ctx, "Checking Service Account configuration",
		"has_json", serviceAccountJSON != "",
		"file_path", serviceAccountFile)

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	service, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// ListMetrics reads the daily tab and returns the rows matching the query.
// The first row must be a header naming the columns.
func (c *Client) ListMetrics(ctx context.Context, q core.Query) ([]core.DailyMetric, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:Z", c.dailySheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	rows, skipped, err := parseDailyValues(resp.Values, q)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped invalid sheet rows", "sheet", c.dailySheet, "skipped", skipped)
	}
	return rows, nil
}

// AppendMetrics appends the rows to the sync tab and returns the updated range.
func (c *Client) AppendMetrics(ctx context.Context, rows []core.DailyMetric) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(rows) == 0 {
		return "", nil
	}

	values := make([][]any, 0, len(rows))
	for _, m := range rows {
		if err := m.Validate(); err != nil {
			return "", fmt.Errorf("validation failed for row %d: %w", m.ID, err)
		}
		values = append(values, syncRow(m))
	}

	rng := fmt.Sprintf("%s!A:J", c.syncSheet)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.syncSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// syncRow lays out a row as id, date, dimension, category, code, revenue,
// rooms sold, previous revenue, previous rooms sold, ADR.
func syncRow(m core.DailyMetric) []any {
	return []any{
		strconv.FormatInt(m.ID, 10),
		m.Date.String(),
		m.Dimension.String(),
		m.Category,
		m.Code,
		m.Revenue,
		m.RoomsSold,
		m.PreviousRevenue,
		m.PreviousRoomsSold,
		m.ADR(),
	}
}
