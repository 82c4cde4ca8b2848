package label

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/hosakajuku/kiroku/internal/logbook"
)

// Printer is the capability the interface layer depends on.
type Printer interface {
	Print(ctx context.Context, job Job) error
}

// printTimeout bounds the external editor invocation; the original tooling
// used the same 30 second ceiling.
const printTimeout = 30 * time.Second

// Default install locations for the Brother P-touch Editor, probed when no
// executable is configured.
var probePaths = map[string][]string{
	"windows": {
		`C:\Program Files (x86)\Brother\Ptedit54\ptedit54.exe`,
		`C:\Program Files\Brother\Ptedit54\ptedit54.exe`,
		`C:\Program Files (x86)\Brother\P-touch Editor 5.4\ptedit54.exe`,
		`C:\Program Files\Brother\P-touch Editor 5.4\ptedit54.exe`,
		`C:\Program Files (x86)\Brother\P-touch Editor\ptedit54.exe`,
		`C:\Program Files\Brother\P-touch Editor\ptedit54.exe`,
	},
	"darwin": {
		"/Applications/Brother P-touch Editor.app/Contents/MacOS/P-touch Editor",
		"/Applications/P-touch Editor.app/Contents/MacOS/P-touch Editor",
	},
	"linux": {
		"/usr/bin/ptouch-editor",
		"/usr/local/bin/ptouch-editor",
		"/opt/brother/ptouch/ptedit",
	},
}

// FindExecutable probes the usual install locations for the current platform
// and returns the first that exists, or "".
func FindExecutable() string {
	for _, path := range probePaths[runtime.GOOS] {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// PTouch drives the Brother P-touch Editor as an external process.
type PTouch struct {
	Executable string
	Template   string
	book       *logbook.Logbook
}

// NewPTouch returns the external-editor printer.
func NewPTouch(executable, template string, book *logbook.Logbook) *PTouch {
	return &PTouch{Executable: executable, Template: template, book: book}
}

// Print invokes the editor for the given job. Fire and forget from the
// caller's perspective: success means the process ran, not that paper came
// out.
func (p *PTouch) Print(ctx context.Context, job Job) error {
	if err := p.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, printTimeout)
	defer cancel()

	cmd := p.command(ctx, job)
	p.book.Info("print command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		p.book.Error("print for %s failed: %v (%s)", job.Student.ID, err, output)
		return fmt.Errorf("label: print %s: %w", job.Student.ID, err)
	}
	p.book.Info("label printed for %s (%s)", job.Student.Name, job.Student.ID)
	return nil
}

func (p *PTouch) validate() error {
	if p.Executable == "" {
		return fmt.Errorf("%w: no printer executable configured", ErrPrinterUnavailable)
	}
	if _, err := os.Stat(p.Executable); err != nil {
		return fmt.Errorf("%w: executable %s not found", ErrPrinterUnavailable, p.Executable)
	}
	if p.Template == "" {
		return fmt.Errorf("%w: no label template configured", ErrPrinterUnavailable)
	}
	if _, err := os.Stat(p.Template); err != nil {
		return fmt.Errorf("%w: template %s not found", ErrPrinterUnavailable, p.Template)
	}
	return nil
}

// command builds the platform-specific invocation. The Windows shape is the
// editor's documented merge-print argument set; other platforms fall back to
// opening the template or passing the label text directly.
func (p *PTouch) command(ctx context.Context, job Job) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		return exec.CommandContext(ctx, p.Executable,
			p.Template,
			fmt.Sprintf("/D:%s", job.DataPath),
			"/R:1",
			"/FIT",
			"/S",
			"/P",
		)
	case "darwin":
		return exec.CommandContext(ctx, "open", "-a", p.Executable, p.Template)
	default:
		return exec.CommandContext(ctx, p.Executable,
			"--text", fmt.Sprintf("%s\n%s", job.Student.Name, job.Student.ID))
	}
}
