// Package sheets is the round log: an append-only Google Sheet with one row
// per logged round, keyed by round ID in column B. The store enforces no
// uniqueness itself; dedup lives in the submit service.
package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Row is the persisted representation of one logged round. Field order
// matches the sheet's fixed column layout A..M.
type Row struct {
	Timestamp      time.Time
	RoundID        string
	Email          string
	Uni            string
	FirstName      string
	LastName       string
	Category       string
	NumQuestions   int
	Score          int
	AccuracyPct    float64
	AvgTimeSeconds float64
	AppVersion     string
	Notes          string
}

func (r Row) values() []interface{} {
	return []interface{}{
		r.Timestamp.UTC().Format(time.RFC3339), // A: timestamp_iso
		r.RoundID,                              // B: round_id
		r.Email,                                // C: email
		r.Uni,                                  // D: uni
		r.FirstName,                            // E: first_name
		r.LastName,                             // F: last_name
		r.Category,                             // G: category
		r.NumQuestions,                         // H: num_questions
		r.Score,                                // I: score
		r.AccuracyPct,                          // J: accuracy_pct
		r.AvgTimeSeconds,                       // K: avg_time_s
		r.AppVersion,                           // L: app_version
		r.Notes,                                // M: notes
	}
}

type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// NewClient authenticates with a service-account key and targets one
// spreadsheet tab.
func NewClient(ctx context.Context, credentialsJSON []byte, spreadsheetID, tab string) (*Client, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, tab: tab}, nil
}

// Exists reports whether a row with this round ID is already logged.
// The sheet has no secondary index, so this reads the whole ID column.
func (c *Client) Exists(ctx context.Context, roundID string) (bool, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.tab+"!B:B").
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("failed to read round-id column: %w", err)
	}

	if len(resp.Values) == 0 {
		return false, nil
	}
	for _, v := range resp.Values[0] {
		if s, ok := v.(string); ok && s == roundID {
			return true, nil
		}
	}
	return false, nil
}

// Append adds one row. No uniqueness check happens here: two appends for
// the same round ID produce two rows.
func (c *Client) Append(ctx context.Context, row Row) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row.values()}}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.tab+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append round row: %w", err)
	}
	return nil
}
