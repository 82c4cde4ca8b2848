package report

import (
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDFOptions controls paginated rendering. FontPath points at a TTF with the
// glyphs the roster needs; without it the built-in Helvetica is used, which
// cannot draw CJK names.
type PDFOptions struct {
	FontPath string
}

const pdfFontFamily = "report"

// WritePDF renders the report as a paginated A4 document at path. The data
// is exactly what WriteExcel emits; only the presentation differs.
func WritePDF(r Report, path string, opts PDFOptions) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	if opts.FontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", opts.FontPath)
		family = pdfFontFamily
	}

	pdf.SetTitle(r.Title(), true)
	pdf.AddPage()
	pdf.SetFont(family, "", 16)
	pdf.CellFormat(0, 10, r.Title(), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if r.Empty() {
		pdf.SetFont(family, "", 11)
		pdf.CellFormat(0, 8, "no records for this month", "", 1, "L", false, 0, "")
		return savePDF(pdf, path)
	}

	// Summary table.
	pdf.SetFont(family, "", 11)
	summaryWidths := []float64{35, 60, 35, 35}
	summaryCells := []string{"StudentID", "Name", "Days Present", "Total Time"}
	for i, label := range summaryCells {
		pdf.CellFormat(summaryWidths[i], 8, label, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	for _, row := range r.Rows {
		cells := []string{row.StudentID, row.Name, fmt.Sprintf("%d", row.DaysPresent), FormatDuration(row.TotalDuration)}
		for i, value := range cells {
			pdf.CellFormat(summaryWidths[i], 8, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Per-student detail, one section per student.
	detailWidths := []float64{30, 30, 30, 30, 35}
	detailCells := []string{"Date", "First Entry", "Last Exit", "Minutes", "Status"}
	for _, row := range r.Rows {
		pdf.AddPage()
		pdf.SetFont(family, "", 13)
		pdf.CellFormat(0, 9, fmt.Sprintf("%s (%s)", row.Name, row.StudentID), "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", 10)
		for i, label := range detailCells {
			pdf.CellFormat(detailWidths[i], 7, label, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		for _, day := range row.Days {
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
			cells := []string{
				day.Date.Format("2006-01-02"),
				entry,
				exit,
				fmt.Sprintf("%d", int(day.Duration.Round(time.Minute)/time.Minute)),
				status,
			}
			for i, value := range cells {
				pdf.CellFormat(detailWidths[i], 7, value, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	return savePDF(pdf, path)
}

func savePDF(pdf *fpdf.Fpdf, path string) error {
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
