package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Excel layout: a Summary sheet with one row per student, then one detail
// sheet per student with their per-day records.

var summaryHeader = []any{"StudentID", "Name", "Days Present", "Total Time"}
var detailHeader = []any{"Date", "First Entry", "Last Exit", "Minutes", "Status"}

// WriteExcel renders the report as an .xlsx workbook at path.
func WriteExcel(r Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summary); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(summary, "A1", &[]any{r.Title()}); err != nil {
		return fmt.Errorf("report: write title: %w", err)
	}
	if err := f.SetSheetRow(summary, "A2", &summaryHeader); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	if r.Empty() {
		if err := f.SetSheetRow(summary, "A3", &[]any{"no records for this month"}); err != nil {
			return fmt.Errorf("report: write empty note: %w", err)
		}
		return save(f, path)
	}

	for i, row := range r.Rows {
		cell := fmt.Sprintf("A%d", i+3)
		values := []any{row.StudentID, row.Name, row.DaysPresent, FormatDuration(row.TotalDuration)}
		if err := f.SetSheetRow(summary, cell, &values); err != nil {
			return fmt.Errorf("report: write summary row: %w", err)
		}
		if err := writeDetailSheet(f, row); err != nil {
			return err
		}
	}
	return save(f, path)
}

func writeDetailSheet(f *excelize.File, row Row) error {
	sheet := row.StudentID
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("report: create sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{row.Name, row.StudentID}); err != nil {
		return fmt.Errorf("report: write sheet heading: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &detailHeader); err != nil {
		return fmt.Errorf("report: write detail header: %w", err)
	}
	for i, day := range row.Days {
		cell := fmt.Sprintf("A%d", i+3)
		if err := f.SetSheetRow(sheet, cell, detailValues(day)); err != nil {
			return fmt.Errorf("report: write detail row: %w", err)
		}
	}
	return nil
}

func detailValues(day DaySummary) *[]any {
	entry, exit := "", ""
	if !day.FirstEntry.IsZero() {
		entry = day.FirstEntry.Format("15:04")
	}
	if !day.LastExit.IsZero() {
		exit = day.LastExit.Format("15:04")
	}
	status := "complete"
	if day.Incomplete {
		status = "incomplete"
	}
	values := []any{
		day.Date.Format("2006-01-02"),
		entry,
		exit,
		int(day.Duration.Round(time.Minute) / time.Minute),
		status,
	}
	return &values
}

func save(f *excelize.File, path string) error {
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
