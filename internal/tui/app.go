// internal/tui/app.go
//
// The interactive front end, built on bubbletea's Elm architecture:
// Model (App) -> Update (messages mutate state) -> View (render to string).
// One user action is processed at a time; every store operation runs as a
// tea.Cmd and reports back through a message.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hosakajuku/kiroku/internal/attendance"
	"github.com/hosakajuku/kiroku/internal/config"
	"github.com/hosakajuku/kiroku/internal/label"
	"github.com/hosakajuku/kiroku/internal/logbook"
	"github.com/hosakajuku/kiroku/internal/report"
	"github.com/hosakajuku/kiroku/internal/roster"
)

// appState represents which screen is active.
type appState int

const (
	stateMainMenu appState = iota
	stateScan
	statePrint
	stateReport
	stateRegister
	stateSettings
)

const activityLines = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithPrinter overrides the label printer (tests use a fake).
func WithPrinter(p label.Printer) AppOption {
	return func(a *App) {
		if p != nil {
			a.printer = p
		}
	}
}

// WithClock overrides the scan clock.
func WithClock(now attendance.Clock) AppOption {
	return func(a *App) {
		if now != nil {
			a.clock = now
		}
	}
}

// App is the main application model holding all state.
type App struct {
	state appState

	cfg     *config.Config
	book    *logbook.Logbook
	roster  *roster.Store
	log     *attendance.Log
	intake  *attendance.Intake
	labels  *label.Builder
	printer label.Printer
	reports *report.Generator
	clock   attendance.Clock

	// UI components
	mainMenu    list.Model
	studentMenu list.Model
	scanInput   textinput.Model
	nameInput   textinput.Model

	reportYear  int
	reportMonth time.Month

	statusMsg string
	errMsg    string
	busy      bool

	width  int
	height int
}

// menuItem implements list.Item for the main menu.
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// studentItem implements list.Item for the label print picker.
type studentItem struct {
	student roster.Student
}

func (i studentItem) Title() string       { return i.student.Name }
func (i studentItem) Description() string { return i.student.ID }
func (i studentItem) FilterValue() string { return i.student.ID + " " + i.student.Name }

type scanDoneMsg struct {
	rec     attendance.Record
	student roster.Student
	err     error
}

type printDoneMsg struct {
	student roster.Student
	err     error
}

type reportDoneMsg struct {
	paths []string
	err   error
}

type registerDoneMsg struct {
	student roster.Student
	err     error
}

// NewApp opens the stores under cfg's data directory and builds the model.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	book, err := logbook.New(cfg.LogPath(), logbook.ParseLevel(cfg.Settings.LogLevel))
	if err != nil {
		return nil, err
	}
	students, err := roster.Open(cfg.RosterPath())
	if err != nil {
		return nil, err
	}
	scanLog, err := attendance.OpenLog(cfg.AttendancePath())
	if err != nil {
		return nil, err
	}

	executable := cfg.Settings.PrinterExecutable
	if executable == "" {
		executable = label.FindExecutable()
	}

	now := time.Now().Local()
	app := &App{
		state:       stateMainMenu,
		cfg:         cfg,
		book:        book,
		roster:      students,
		log:         scanLog,
		labels:      label.NewBuilder(cfg.QRCodeDir(), book),
		printer:     label.NewPTouch(executable, cfg.Settings.LabelTemplate, book),
		clock:       time.Now,
		reportYear:  now.Year(),
		reportMonth: now.Month(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.intake = attendance.NewIntake(students, scanLog, book, attendance.WithClock(app.clock))
	app.reports = report.NewGenerator(scanLog, students, cfg.ReportDir(), cfg.Settings.ReportFont, book)

	app.mainMenu = newMenu("kiroku · "+cfg.Settings.StationName, buildMainMenu())
	app.studentMenu = newMenu("Print a label", nil)
	app.studentMenu.SetFilteringEnabled(true)

	app.scanInput = textinput.New()
	app.scanInput.Placeholder = "scan or type a student ID"
	app.scanInput.CharLimit = 32

	app.nameInput = textinput.New()
	app.nameInput.Placeholder = "new student name"
	app.nameInput.CharLimit = 64

	book.Info("session opened · %d students on roster", students.Len())
	return app, nil
}

func newMenu(title string, items []list.Item) list.Model {
	m := list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.Title = title
	m.SetShowStatusBar(false)
	m.SetFilteringEnabled(false)
	return m
}

func buildMainMenu() []list.Item {
	return []list.Item{
		menuItem{title: "Scan", desc: "Record an entry or exit"},
		menuItem{title: "Print Label", desc: "Print a QR-code label for a student"},
		menuItem{title: "Monthly Report", desc: "Generate Excel/PDF attendance reports"},
		menuItem{title: "Register Student", desc: "Add a student to the roster"},
		menuItem{title: "Settings", desc: "View station configuration"},
		menuItem{title: "Exit", desc: "Quit kiroku"},
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called for every incoming message.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.studentMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		return a, nil

	case scanDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.errMsg = userMessage(msg.err)
			return a, nil
		}
		a.errMsg = ""
		verb := "Welcome"
		if msg.rec.Direction == attendance.Exit {
			verb = "Goodbye"
		}
		a.statusMsg = fmt.Sprintf("%s, %s — %s at %s",
			verb, msg.student.Name, msg.rec.Direction, msg.rec.Timestamp.Format("15:04:05"))
		return a, nil

	case printDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.errMsg = userMessage(msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("Label sent to printer for %s", msg.student.Name)
		return a, nil

	case reportDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.errMsg = userMessage(msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = "Report written: " + strings.Join(msg.paths, ", ")
		return a, nil

	case registerDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.errMsg = userMessage(msg.err)
			return a, nil
		}
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("Registered %s as %s", msg.student.Name, msg.student.ID)
		a.refreshStudentMenu()
		return a, nil

	case tea.KeyMsg:
		if model, cmd, handled := a.handleKey(msg); handled {
			return model, cmd
		}
	}

	return a.updateActiveComponent(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return a, tea.Quit, true
	case "q":
		// Text inputs need the literal character.
		if a.state == stateMainMenu {
			return a, tea.Quit, true
		}
		if a.state == statePrint || a.state == stateReport || a.state == stateSettings {
			return a.returnToMainMenu()
		}
	case "esc":
		if a.state != stateMainMenu {
			return a.returnToMainMenu()
		}
	case "enter":
		switch a.state {
		case stateMainMenu:
			return a.handleMainMenuSelection()
		case stateScan:
			return a.submitScan()
		case statePrint:
			return a.submitPrint()
		case stateRegister:
			return a.submitRegister()
		case stateReport:
			return a.submitReport(report.FormatExcel, report.FormatPDF)
		}
	}

	if a.state == stateReport {
		switch key {
		case "left", "h":
			a.shiftReportMonth(-1)
			return a, nil, true
		case "right", "l":
			a.shiftReportMonth(1)
			return a, nil, true
		case "x":
			return a.submitReport(report.FormatExcel)
		case "p":
			return a.submitReport(report.FormatPDF)
		}
	}
	return a, nil, false
}

func (a *App) updateActiveComponent(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.state {
	case stateMainMenu:
		a.mainMenu, cmd = a.mainMenu.Update(msg)
	case statePrint:
		a.studentMenu, cmd = a.studentMenu.Update(msg)
	case stateScan:
		a.scanInput, cmd = a.scanInput.Update(msg)
	case stateRegister:
		a.nameInput, cmd = a.nameInput.Update(msg)
	}
	return a, cmd
}

func (a *App) returnToMainMenu() (tea.Model, tea.Cmd, bool) {
	a.state = stateMainMenu
	a.scanInput.Blur()
	a.nameInput.Blur()
	return a, nil, true
}

func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd, bool) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil, true
	}
	a.statusMsg = ""
	a.errMsg = ""
	switch item.title {
	case "Scan":
		a.state = stateScan
		a.scanInput.SetValue("")
		return a, a.scanInput.Focus(), true
	case "Print Label":
		a.state = statePrint
		a.refreshStudentMenu()
		return a, nil, true
	case "Monthly Report":
		a.state = stateReport
		return a, nil, true
	case "Register Student":
		a.state = stateRegister
		a.nameInput.SetValue("")
		return a, a.nameInput.Focus(), true
	case "Settings":
		a.state = stateSettings
		return a, nil, true
	case "Exit":
		return a, tea.Quit, true
	}
	return a, nil, true
}

func (a *App) refreshStudentMenu() {
	students := a.roster.All()
	items := make([]list.Item, len(students))
	for i, st := range students {
		items[i] = studentItem{student: st}
	}
	a.studentMenu.SetItems(items)
}

func (a *App) submitScan() (tea.Model, tea.Cmd, bool) {
	id := strings.TrimSpace(a.scanInput.Value())
	a.scanInput.SetValue("")
	if id == "" || a.busy {
		return a, nil, true
	}
	a.busy = true
	return a, a.performScan(id), true
}

func (a *App) performScan(id string) tea.Cmd {
	return func() tea.Msg {
		rec, err := a.intake.RecordScan(id)
		if err != nil {
			return scanDoneMsg{err: err}
		}
		student, _ := a.roster.Lookup(rec.StudentID)
		return scanDoneMsg{rec: rec, student: student}
	}
}

func (a *App) submitPrint() (tea.Model, tea.Cmd, bool) {
	item, ok := a.studentMenu.SelectedItem().(studentItem)
	if !ok || a.busy {
		return a, nil, true
	}
	a.busy = true
	return a, a.performPrint(item.student), true
}

func (a *App) performPrint(st roster.Student) tea.Cmd {
	return func() tea.Msg {
		job, err := a.labels.Build(st)
		if err != nil {
			return printDoneMsg{student: st, err: err}
		}
		defer job.Cleanup()
		if err := a.printer.Print(context.Background(), job); err != nil {
			return printDoneMsg{student: st, err: err}
		}
		return printDoneMsg{student: st}
	}
}

func (a *App) submitReport(formats ...report.Format) (tea.Model, tea.Cmd, bool) {
	if a.busy {
		return a, nil, true
	}
	a.busy = true
	year, month := a.reportYear, a.reportMonth
	return a, func() tea.Msg {
		paths, err := a.reports.Generate(year, month, formats...)
		return reportDoneMsg{paths: paths, err: err}
	}, true
}

func (a *App) submitRegister() (tea.Model, tea.Cmd, bool) {
	name := strings.TrimSpace(a.nameInput.Value())
	if name == "" || a.busy {
		return a, nil, true
	}
	a.nameInput.SetValue("")
	a.busy = true
	return a, func() tea.Msg {
		st, err := a.roster.Register(name)
		return registerDoneMsg{student: st, err: err}
	}, true
}

func (a *App) shiftReportMonth(delta int) {
	shifted := time.Date(a.reportYear, a.reportMonth, 1, 0, 0, 0, 0, time.Local).AddDate(0, delta, 0)
	a.reportYear = shifted.Year()
	a.reportMonth = shifted.Month()
}

// userMessage turns store errors into the short messages the spec surfaces.
func userMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, roster.ErrUnknownStudent):
		return "Unknown student — ID is not on the roster"
	case errors.Is(err, label.ErrPrinterUnavailable):
		return "Label printer unavailable — check printer settings"
	case errors.Is(err, roster.ErrStoreUnavailable), errors.Is(err, attendance.ErrStoreUnavailable):
		return "Store unavailable — " + err.Error()
	default:
		return err.Error()
	}
}

// View renders the current screen.
func (a *App) View() string {
	var body string
	switch a.state {
	case stateMainMenu:
		body = a.mainMenu.View()
	case stateScan:
		body = a.viewScan()
	case statePrint:
		body = a.studentMenu.View() + "\n" + helpStyle.Render("enter: print · esc: back")
	case stateReport:
		body = a.viewReport()
	case stateRegister:
		body = a.viewRegister()
	case stateSettings:
		body = a.viewSettings()
	}

	sections := []string{body}
	if a.statusMsg != "" {
		sections = append(sections, statusStyle.Render(a.statusMsg))
	}
	if a.errMsg != "" {
		sections = append(sections, errorStyle.Render(a.errMsg))
	}
	sections = append(sections, a.viewActivity())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) viewScan() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Scan"),
		paneStyle.Render(a.scanInput.View()),
		helpStyle.Render("enter: record · esc: back"),
	)
}

func (a *App) viewReport() string {
	monthLine := fmt.Sprintf("◀ %04d-%02d ▶", a.reportYear, int(a.reportMonth))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Monthly Report"),
		paneStyle.Render(monthLine),
		helpStyle.Render("←/→: month · x: Excel · p: PDF · enter: both · esc: back"),
	)
}

func (a *App) viewRegister() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Register Student"),
		paneStyle.Render(a.nameInput.View()),
		helpStyle.Render("enter: register · esc: back"),
	)
}

func (a *App) viewSettings() string {
	s := a.cfg.Settings
	lines := []string{
		"station:  " + s.StationName,
		"data:     " + a.cfg.DataDir,
		"qr:       " + a.cfg.QRCodeDir(),
		"reports:  " + a.cfg.ReportDir(),
		"printer:  " + orUnset(s.PrinterExecutable),
		"template: " + orUnset(s.LabelTemplate),
		"log:      " + s.LogLevel,
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Settings"),
		paneStyle.Render(strings.Join(lines, "\n")),
		helpStyle.Render("edit config.yaml or KIROKU_* environment · esc: back"),
	)
}

func (a *App) viewActivity() string {
	lines, _ := a.book.Tail(activityLines)
	if len(lines) == 0 {
		return ""
	}
	return faintStyle.Render(strings.Join(lines, "\n"))
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
