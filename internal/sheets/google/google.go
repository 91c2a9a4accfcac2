// Package google mirrors yearly reports to a Google Spreadsheet. Each year
// gets its own sheet named "<prefix> <year>"; every mirror run rewrites the
// whole sheet, so the spreadsheet always shows the latest derived state.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"buchhaltung/internal/core"
	ports "buchhaltung/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
}

var _ ports.SummaryWriter = (*Client)(nil)

// NewClient creates a Sheets client with service account credentials taken
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewClient(ctx context.Context, spreadsheetID, sheetPrefix string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if sheetPrefix == "" {
		sheetPrefix = "EÜR"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetPrefix:   sheetPrefix,
	}, nil
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
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteYearSummary rewrites the year's sheet with the current report.
func (c *Client) WriteYearSummary(ctx context.Context, summary *core.YearSummary) error {
	sheetName := c.sheetName(summary.Year)

	if err := c.ensureSheet(ctx, sheetName); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("'%s'!A:D", sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	rows := summaryRows(summary)
	writeRange := fmt.Sprintf("'%s'!A1", sheetName)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Mirrored year summary to spreadsheet",
		"sheet", sheetName,
		"year", summary.Year,
		"rows", len(rows))
	return nil
}

func (c *Client) sheetName(year int) string {
	return fmt.Sprintf("%s %d", c.sheetPrefix, year)
}

// ensureSheet creates the sheet tab if it does not exist yet.
func (c *Client) ensureSheet(ctx context.Context, sheetName string) error {
	spreadsheet, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetName, err)
	}
	return nil
}

// summaryRows flattens a year summary into spreadsheet rows.
func summaryRows(s *core.YearSummary) [][]interface{} {
	rows := [][]interface{}{
		{fmt.Sprintf("EÜR %d", s.Year)},
		{},
		{"Einnahmen (brutto)", s.TotalIncome.StringFixed(2)},
		{"Ausgaben (brutto)", s.TotalExpenses.StringFixed(2)},
		{"Gewinn (brutto)", s.Profit.StringFixed(2)},
		{"Einnahmen (netto)", s.TotalIncomeNet.StringFixed(2)},
		{"Ausgaben (netto)", s.TotalExpensesNet.StringFixed(2)},
		{"Gewinn (netto)", s.ProfitNet.StringFixed(2)},
		{"USt vereinnahmt", s.VATCollected.StringFixed(2)},
		{"Vorsteuer gezahlt", s.VATPaid.StringFixed(2)},
		{"USt-Zahllast", s.VATPayable.StringFixed(2)},
		{"Buchungen", s.TransactionCount},
		{},
		{"Monat", "Einnahmen", "Ausgaben", "Gewinn"},
	}

	for m := 1; m <= 12; m++ {
		month := s.Monthly[m]
		rows = append(rows, []interface{}{
			m,
			month.Income.StringFixed(2),
			month.Expenses.StringFixed(2),
			month.Profit.StringFixed(2),
		})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Einnahmen nach Kategorie", "Brutto", "Netto", "USt"})
	rows = append(rows, categoryRows(s.IncomeByCategory)...)
	rows = append(rows, []interface{}{}, []interface{}{"Ausgaben nach Kategorie", "Brutto", "Netto", "USt"})
	rows = append(rows, categoryRows(s.ExpenseByCategory)...)

	rows = append(rows, []interface{}{}, []interface{}{"Konto", "Saldo"})
	for _, b := range s.AccountBalances {
		rows = append(rows, []interface{}{b.Name, b.Balance.StringFixed(2)})
	}
	return rows
}

func categoryRows(byCategory map[string]*core.CategorySummary) [][]interface{} {
	labels := make([]string, 0, len(byCategory))
	for label := range byCategory {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([][]interface{}, 0, len(labels))
	for _, label := range labels {
		entry := byCategory[label]
		rows = append(rows, []interface{}{
			label,
			entry.Gross.StringFixed(2),
			entry.Net.StringFixed(2),
			entry.Tax.StringFixed(2),
		})
	}
	return rows
}
