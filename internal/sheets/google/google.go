package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"dompet/internal/report"
	"dompet/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Columns of the report sheet: one header row then one row per month.
var reportHeader = []any{
	"Bulan", "Pemasukan", "Pengeluaran", "Saldo", "Transaksi",
	"Rata-rata Pemasukan", "Rata-rata Pengeluaran", "Kategori Teratas",
}

const reportLastCol = "H"

// Client writes month and year reports into a "<year> <base>" sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportBase    string
}

var _ sheets.ReportPublisher = (*Client)(nil)

// NewFromEnv creates a Sheets client from the environment.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials.
// Optional: GOOGLE_REPORT_SHEET_NAME (default "Report").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(os.Getenv("GOOGLE_REPORT_SHEET_NAME"))
	if base == "" {
		base = "Report"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, reportBase: base}, nil
}

// newSheetsService authenticates with a service account taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

func serviceAccountCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// PublishMonth overwrites the month's row and makes sure the header exists.
func (c *Client) PublishMonth(ctx context.Context, r sheets.MonthReport) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if r.Month < time.January || r.Month > time.December {
		return fmt.Errorf("invalid month: %d", r.Month)
	}
	sheet := yearPrefixedName(c.reportBase, r.Year)
	row := int(r.Month) + 1

	data := []*gsheet.ValueRange{
		{Range: fmt.Sprintf("%s!A1:%s1", sheet, reportLastCol), Values: [][]any{reportHeader}},
		{Range: fmt.Sprintf("%s!A%d:%s%d", sheet, row, reportLastCol, row), Values: [][]any{monthRow(r)}},
	}
	if err := c.batchUpdate(ctx, data); err != nil {
		return fmt.Errorf("publish %s %d: %w", r.Month, r.Year, err)
	}

	slog.InfoContext(ctx, "Month report published",
		"sheet", sheet,
		"row", row,
		"balance_cents", r.Summary.Balance.Cents)
	return nil
}

// PublishYear rewrites the whole sheet: header, twelve months and a total row.
func (c *Client) PublishYear(ctx context.Context, r sheets.YearReport) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.reportBase, r.Year)
	values := yearValues(r)
	data := []*gsheet.ValueRange{{
		Range:  fmt.Sprintf("%s!A1:%s%d", sheet, reportLastCol, len(values)),
		Values: values,
	}}
	if err := c.batchUpdate(ctx, data); err != nil {
		return fmt.Errorf("publish year %d: %w", r.Year, err)
	}
	slog.InfoContext(ctx, "Year report published", "sheet", sheet, "rows", len(values))
	return nil
}

func (c *Client) batchUpdate(ctx context.Context, data []*gsheet.ValueRange) error {
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	return err
}

func monthRow(r sheets.MonthReport) []any {
	return summaryRow(monthName(r.Month), r.Summary, topLabel(r.TopExpenses))
}

func yearValues(r sheets.YearReport) [][]any {
	values := [][]any{reportHeader}
	byMonth := map[time.Month]report.MonthBucket{}
	for _, m := range r.Months {
		byMonth[m.Month] = m
	}
	for m := time.January; m <= time.December; m++ {
		b := byMonth[m]
		values = append(values, summaryRow(monthName(m), report.Summarize(b.Transactions), ""))
	}
	return append(values, summaryRow("Total", r.Total, ""))
}

func summaryRow(label string, s report.Summary, top string) []any {
	return []any{
		label,
		centsToDecimal(s.Income.Cents),
		centsToDecimal(s.Expense.Cents),
		centsToDecimal(s.Balance.Cents),
		s.TotalCount,
		centsToDecimal(s.AverageIncome.Cents),
		centsToDecimal(s.AverageExpense.Cents),
		top,
	}
}

// topLabel renders "Makan 60%, Lainnya 30%".
func topLabel(entries []report.CategoryBreakdownEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s %.0f%%", e.CategoryName, e.PercentageOfKindTotal))
	}
	return strings.Join(parts, ", ")
}

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func monthName(m time.Month) string {
	if m < time.January || m > time.December {
		return strconv.Itoa(int(m))
	}
	return monthNames[m-1]
}

func centsToDecimal(cents int64) float64 {
	return float64(cents) / 100.0
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
