package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pfm/internal/core"
	"pfm/internal/store"
)

const (
	defaultSheetName = "Transactions"
	locateAttempts   = 3
)

// Ensure interface conformance
var _ store.Replica = (*Client)(nil)

// Options configures the spreadsheet client. One of CredentialsJSON or
// CredentialsFile must be set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client stores transactions as rows of one sheet with the columns
// id, date, type, category, amount, notes.
//
// Deletes address rows by index, so every write holds mu from the read
// that finds the row until the write that uses it.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu sync.Mutex
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already built service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = defaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

// newSheetsService authenticates with service account credentials,
// inline JSON first, then the file.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// unavailable marks a failed Sheets API call as a store outage.
func unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, what, err)
}

func (c *Client) dataRange() string {
	return fmt.Sprintf("%s!A:F", c.sheet)
}

func (c *Client) values(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, unavailable("read "+c.dataRange(), err)
	}
	return resp.Values, nil
}

func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	vals, err := c.values(ctx)
	if err != nil {
		return nil, err
	}
	return parseRows(vals)
}

func (c *Client) Insert(ctx context.Context, n core.NewTransaction) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	t := n.WithID(uuid.NewString())

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.append(ctx, [][]any{toRow(t)}); err != nil {
		return "", err
	}
	return t.ID, nil
}

// InsertBulk sends every row in a single append call.
func (c *Client) InsertBulk(ctx context.Context, ns []core.NewTransaction) error {
	if len(ns) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(ns))
	for i, n := range ns {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, toRow(n.WithID(uuid.NewString())))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.append(ctx, rows)
}

// append must be called with mu held.
func (c *Client) append(ctx context.Context, rows [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.dataRange(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return unavailable(fmt.Sprintf("append %d rows to %s", len(rows), c.sheet), err)
	}
	return nil
}

// locate returns the zero-based row holding id, or -1. The row found in
// the full read is confirmed with a single-cell read; another process
// deleting a row above it shifts it, and the lookup starts over.
// Must be called with mu held.
func (c *Client) locate(ctx context.Context, id string) (int, error) {
	for range locateAttempts {
		vals, err := c.values(ctx)
		if err != nil {
			return -1, err
		}
		idx := rowIndexOf(vals, id)
		if idx < 0 {
			return -1, nil
		}
		got, err := c.idAt(ctx, idx)
		if err != nil {
			return -1, err
		}
		if got == id {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("%w: row of %s kept moving in %s", core.ErrStoreUnavailable, id, c.sheet)
}

func (c *Client) idAt(ctx context.Context, idx int) (string, error) {
	rng := fmt.Sprintf("%s!A%d", c.sheet, idx+1)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", unavailable("read "+rng, err)
	}
	if len(resp.Values) == 0 {
		return "", nil
	}
	return cell(resp.Values[0], colID), nil
}

// DeleteByID removes the whole sheet row so later rows shift up.
func (c *Client) DeleteByID(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.locate(ctx, id)
	if err != nil {
		return err
	}
	if idx < 0 {
		return &core.NotFoundError{ID: id}
	}
	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return unavailable(fmt.Sprintf("delete row %d of %s", idx+1, c.sheet), err)
	}
	return nil
}

// Put overwrites the row holding t.ID, or appends one.
func (c *Client) Put(ctx context.Context, t core.Transaction) error {
	if t.ID == "" {
		return &core.ValidationError{Field: "id", Err: errors.New("id is required")}
	}
	if err := t.Payload().Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.locate(ctx, t.ID)
	if err != nil {
		return err
	}
	if idx < 0 {
		return c.append(ctx, [][]any{toRow(t)})
	}
	rng := fmt.Sprintf("%s!A%d:F%d", c.sheet, idx+1, idx+1)
	vr := &gsheet.ValueRange{Values: [][]any{toRow(t)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return unavailable("update "+rng, err)
	}
	return nil
}

// EnsureHeader writes the column header into an empty sheet.
func (c *Client) EnsureHeader(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	vals, err := c.values(ctx)
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		return nil
	}
	return c.append(ctx, [][]any{header})
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, unavailable("read spreadsheet properties", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheet {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheet)
}
