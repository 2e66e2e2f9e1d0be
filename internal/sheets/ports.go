// Package sheets declares the outbound port for publishing derived reports
// to a spreadsheet.
package sheets

import (
	"context"
	"time"

	"dompet/internal/report"
)

type (
	// MonthReport is the published view of one calendar month.
	MonthReport struct {
		Year        int
		Month       time.Month
		Summary     report.Summary
		TopExpenses []report.CategoryBreakdownEntry
		TopIncome   []report.CategoryBreakdownEntry
	}

	// YearReport holds all twelve month rows of a year.
	YearReport struct {
		Year   int
		Months []report.MonthBucket
		Total  report.Summary
	}

	ReportPublisher interface {
		PublishMonth(ctx context.Context, r MonthReport) error
		PublishYear(ctx context.Context, r YearReport) error
	}
)
