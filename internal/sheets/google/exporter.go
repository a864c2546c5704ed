// Package google exports the ledger to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
)

var _ ports.LedgerExporter = (*Exporter)(nil)

var header = []any{"Date", "Type", "Amount", "Note", "ID"}

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Exporter replaces the content of one sheet with the transaction list.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// NewExporter authenticates with a service account. Extra client options
// are appended after the credentials.
func NewExporter(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.DebugContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)

	return newExporter(svc, cfg, logger), nil
}

func newExporter(svc *gsheet.Service, cfg Config, logger *log.Logger) *Exporter {
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Transactions"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		logger:        logger,
	}
}

// serviceAccountJSON picks inline JSON, then the configured file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountJSON(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.ServiceAccountJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.ServiceAccountFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// Export clears the sheet and writes a header plus one row per transaction.
// It returns the A1 range written.
func (e *Exporter) Export(ctx context.Context, txs []core.Transaction) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := quoteSheetName(e.sheetName)
	_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, sheet+"!A:E", &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	rows := toRows(txs)
	ref := fmt.Sprintf("%s!A1:E%d", sheet, len(rows))
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, ref, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(txs),
		"range", ref)
	return ref, nil
}

func toRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, header)
	for _, tx := range txs {
		rows = append(rows, []any{
			string(tx.Date),
			tx.Type.Label(),
			tx.Amount.Fixed(),
			literal(tx.Note),
			literal(string(tx.ID)),
		})
	}
	return rows
}

// literal keeps USER_ENTERED from evaluating free text as a formula.
func literal(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\'':
		return "'" + s
	}
	return s
}

// quoteSheetName quotes names that A1 notation cannot take bare.
func quoteSheetName(name string) string {
	bare := name != ""
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			bare = false
			break
		}
	}
	if bare {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
