package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hosakajuku/kiroku/internal/attendance"
	"github.com/hosakajuku/kiroku/internal/logbook"
	"github.com/hosakajuku/kiroku/internal/roster"
)

// Format selects the output document type. Both formats carry identical data.
type Format string

const (
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// Generator reads the stores and writes report documents to the output
// directory.
type Generator struct {
	log      *attendance.Log
	roster   *roster.Store
	outDir   string
	fontPath string
	book     *logbook.Logbook
}

// NewGenerator wires the report path together. fontPath may be empty.
func NewGenerator(log *attendance.Log, r *roster.Store, outDir, fontPath string, book *logbook.Logbook) *Generator {
	return &Generator{log: log, roster: r, outDir: outDir, fontPath: fontPath, book: book}
}

// FilePath returns the output location for a month and format.
func (g *Generator) FilePath(year int, month time.Month, format Format) string {
	ext := "xlsx"
	if format == FormatPDF {
		ext = "pdf"
	}
	name := fmt.Sprintf("attendance_%04d-%02d.%s", year, int(month), ext)
	return filepath.Join(g.outDir, name)
}

// Generate builds the month's report and writes one file per requested
// format, returning the written paths. A month without records still produces
// documents (stating so), never an error.
func (g *Generator) Generate(year int, month time.Month, formats ...Format) ([]string, error) {
	records, err := g.log.Month(year, month)
	if err != nil {
		g.book.Error("report %04d-%02d: %v", year, int(month), err)
		return nil, err
	}
	rep := Build(records, g.roster.All(), year, month)
	if rep.Empty() {
		g.book.Info("report %04d-%02d: no records", year, int(month))
	}

	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create output dir: %w", err)
	}

	var paths []string
	for _, format := range formats {
		path := g.FilePath(year, month, format)
		switch format {
		case FormatPDF:
			err = WritePDF(rep, path, PDFOptions{FontPath: g.fontPath})
		default:
			err = WriteExcel(rep, path)
		}
		if err != nil {
			g.book.Error("report %04d-%02d: %v", year, int(month), err)
			return paths, err
		}
		g.book.Info("report written: %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}
