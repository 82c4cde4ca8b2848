// internal/label/label.go
//
// Label jobs: the QR payload is the bare student identifier, rendered to a
// PNG in the QR folder, plus a single-row merge CSV the label template pulls
// its fields from. Printing itself is behind the Printer interface so the
// external editor can be faked in tests.

package label

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/hosakajuku/kiroku/internal/logbook"
	"github.com/hosakajuku/kiroku/internal/roster"
)

// ErrPrinterUnavailable is returned when the external label editor is not
// configured or cannot be found. Reported, never retried.
var ErrPrinterUnavailable = errors.New("label: printer integration unavailable")

const qrImageSize = 256

// Job is one request to render and print a label for a student.
type Job struct {
	ID      uuid.UUID
	Student roster.Student

	// QRPath is the rendered QR PNG.
	QRPath string

	// DataPath is the merge CSV handed to the label editor.
	DataPath string
}

// Builder prepares label jobs.
type Builder struct {
	qrDir string
	book  *logbook.Logbook
}

// NewBuilder returns a Builder writing QR images into qrDir.
func NewBuilder(qrDir string, book *logbook.Logbook) *Builder {
	return &Builder{qrDir: qrDir, book: book}
}

// Build encodes the student's identifier as a QR image and writes the merge
// CSV. It does not print; pass the Job to a Printer for that.
func (b *Builder) Build(st roster.Student) (Job, error) {
	if err := os.MkdirAll(b.qrDir, 0o755); err != nil {
		return Job{}, fmt.Errorf("label: create qr dir: %w", err)
	}

	job := Job{
		ID:      uuid.New(),
		Student: st,
		QRPath:  filepath.Join(b.qrDir, st.ID+".png"),
	}
	job.DataPath = filepath.Join(b.qrDir, fmt.Sprintf("label_%s.csv", job.ID))

	if err := qrcode.WriteFile(st.ID, qrcode.Medium, qrImageSize, job.QRPath); err != nil {
		return Job{}, fmt.Errorf("label: render qr for %s: %w", st.ID, err)
	}
	if err := writeMergeCSV(job.DataPath, st); err != nil {
		return Job{}, err
	}

	b.book.Info("label job %s prepared for %s (%s)", job.ID, st.Name, st.ID)
	return job, nil
}

func writeMergeCSV(path string, st roster.Student) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("label: create merge csv: %w", err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	rows := [][]string{
		{"StudentID", "StudentName"},
		{st.ID, st.Name},
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("label: write merge csv: %w", err)
	}
	return nil
}

// Cleanup removes the per-job merge file. The QR image is kept for reuse.
func (j Job) Cleanup() {
	if j.DataPath != "" {
		_ = os.Remove(j.DataPath)
	}
}
