package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"myduid/internal/export"
	"myduid/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	transactionsTab = "Transactions"
	goalsTab        = "Goals"
)

// Client mirrors ledger snapshots into one spreadsheet, two tabs per user.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ sheets.SnapshotWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS; otherwise an OAuth client
// (GOOGLE_OAUTH_CLIENT_JSON/_FILE) with a saved user token
// (GOOGLE_OAUTH_TOKEN_JSON/_FILE).
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// New wraps an existing service. Tests point it at a local endpoint.
func New(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	case hasOAuthClientEnv():
		slog.DebugContext(ctx, "Using OAuth user credentials")
		return newOAuthService(ctx)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or an OAuth client and token)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// TabName is the sheet title holding one section of a user's ledger.
func TabName(section, userID string) string {
	return section + " " + userID
}

// WriteSnapshot replaces the user's tabs with the snapshot contents.
// Sections absent from the snapshot are left untouched.
func (c *Client) WriteSnapshot(ctx context.Context, snap export.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(snap.UserID) == "" {
		return errors.New("snapshot has no user")
	}

	var tabs []tabContent
	if snap.Transactions != nil {
		tabs = append(tabs, tabContent{
			title: TabName(transactionsTab, snap.UserID),
			rows:  export.TransactionRows(snap.Transactions),
		})
	}
	if snap.Goals != nil {
		tabs = append(tabs, tabContent{
			title: TabName(goalsTab, snap.UserID),
			rows:  export.GoalRows(snap.Goals),
		})
	}
	if len(tabs) == 0 {
		return nil
	}

	titles := make([]string, len(tabs))
	for i, t := range tabs {
		titles[i] = t.title
	}
	if err := c.ensureTabs(ctx, titles); err != nil {
		return err
	}

	for _, t := range tabs {
		if err := c.replaceValues(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

type tabContent struct {
	title string
	rows  [][]string
}

// ensureTabs adds any missing sheets in a single batch update.
func (c *Client) ensureTabs(ctx context.Context, titles []string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets get spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, title := range titles {
		if existing[title] {
			continue
		}
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		})
	}
	if len(reqs) == 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets add tabs: %w", err)
	}
	return nil
}

func (c *Client) replaceValues(ctx context.Context, t tabContent) error {
	whole := quoteTitle(t.title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, whole, &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("sheets clear %s: %w", t.title, err)
	}

	vr := &gsheet.ValueRange{Values: toValues(t.rows)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, whole+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("sheets update %s: %w", t.title, err)
	}
	return nil
}

// quoteTitle wraps a sheet title for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
