package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Table is the slice of the Sheets API the live feed and ledger need.
type Table interface {
	Values(ctx context.Context, tab string) ([][]string, error)
	Append(ctx context.Context, tab string, row []string) error
	EnsureTab(ctx context.Context, tab string, header []string) error
}

type Client struct {
	service       *gsheets.Service
	spreadsheetID string
	limiter       *rateLimiter
}

// New authenticates with a service account credentials file.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Client, error) {
	return NewWithOptions(ctx, spreadsheetID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope))
}

func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		limiter:       newRateLimiter(requestsPerSecond, burstSize),
	}, nil
}

// Values returns every populated row of a tab as strings.
func (c *Client) Values(ctx context.Context, tab string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		c.noteError(err)
		return nil, wrapError("read "+tab, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Append adds one row after the last populated row of a tab.
func (c *Client) Append(ctx context.Context, tab string, row []string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, tab, &gsheets.ValueRange{
		Values: [][]interface{}{toCells(row)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		c.noteError(err)
		return wrapError("append "+tab, err)
	}

	return nil
}

// EnsureTab creates the tab when missing and writes the header when its
// first row is empty. Existing data is left untouched.
func (c *Client) EnsureTab(ctx context.Context, tab string, header []string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		c.noteError(err)
		return wrapError("get spreadsheet", err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}

	if !slices.Contains(titles, tab) {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheets.Request{{
				AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: tab}},
			}},
		}).Context(ctx).Do()
		if err != nil {
			c.noteError(err)
			return wrapError("add tab "+tab, err)
		}
		slog.Info("Worksheet created", "tab", tab)
	}

	rows, err := c.Values(ctx, tab+"!1:1")
	if err != nil {
		return err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = c.service.Spreadsheets.Values.Update(c.spreadsheetID, tab+"!A1", &gsheets.ValueRange{
		Values: [][]interface{}{toCells(header)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		c.noteError(err)
		return wrapError("write header "+tab, err)
	}

	return nil
}

func (c *Client) noteError(err error) {
	if IsRateLimited(err) {
		c.limiter.backoff(0)
	}
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
