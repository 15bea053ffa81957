package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"drinktracker/internal/core"
	"drinktracker/internal/ports"
)

const DefaultSummarySheet = "Summaries"

// Config selects the spreadsheet and the service account used to write it.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client mirrors monthly summaries into one sheet, one row per
// user/year/month.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ports.SummaryExporter = (*Client)(nil)

// NewClient creates a Sheets client authenticated with a service account.
// Extra options are appended after the credentials.
func NewClient(ctx context.Context, cfg Config, extra ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSummarySheet
	}

	var opts []goption.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Using service account credentials file", "path", cfg.CredentialsFile)
		opts = append(opts, goption.WithCredentialsFile(cfg.CredentialsFile))
	case len(extra) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))
	opts = append(opts, extra...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheet)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// ExportSummary writes s to its row, replacing the row when the
// user/year/month is already present. Returns the A1 range written.
func (c *Client) ExportSummary(ctx context.Context, s core.MonthlySummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if s.UserID == "" {
		return "", core.ErrEmptyUser
	}

	keys := columnsRange(c.sheet, "A:C")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, keys).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", keys, err)
	}

	if len(resp.Values) == 0 {
		if err := c.writeRow(ctx, 1, summaryHeader); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		resp.Values = [][]any{summaryHeader}
	}

	row := findSummaryRow(resp.Values, s.UserID, s.Year, s.Month)
	if row > 0 {
		if err := c.writeRow(ctx, row, summaryRow(s)); err != nil {
			return "", err
		}
		ref := rowRange(c.sheet, row)
		slog.DebugContext(ctx, "Summary row updated", "ref", ref, "user_id", s.UserID)
		return ref, nil
	}

	return c.appendRow(ctx, summaryRow(s), len(resp.Values)+1)
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := rowRange(c.sheet, row)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// appendRow adds values after the last row. fallbackRow is reported when
// the API response carries no range.
func (c *Client) appendRow(ctx context.Context, values []any, fallbackRow int) (string, error) {
	rng := columnsRange(c.sheet, "A:"+lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", rng, err)
	}

	row := fallbackRow
	if resp.Updates != nil {
		if n, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			row = n
		}
	}
	ref := rowRange(c.sheet, row)
	slog.DebugContext(ctx, "Summary row appended", "ref", ref)
	return ref, nil
}
