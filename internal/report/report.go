// internal/report/report.go
//
// Monthly aggregation over the attendance log. The reduction is pure: the
// same records always produce the same Report, so regenerating a month is
// idempotent. Writers in excel.go and pdf.go render the identical data.
//
// Days with an unmatched ENTRY or EXIT count as present but contribute zero
// duration; they carry the Incomplete flag so staff can chase the missing
// scan.

package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/hosakajuku/kiroku/internal/attendance"
	"github.com/hosakajuku/kiroku/internal/roster"
)

// unknownName is shown for log rows whose student left the roster.
const unknownName = "Unknown"

// DaySummary reduces one student's scans on one day to a first-entry /
// last-exit pair.
type DaySummary struct {
	Date       time.Time
	FirstEntry time.Time
	LastExit   time.Time
	Duration   time.Duration
	Incomplete bool
}

// Row is the per-student aggregate for the month.
type Row struct {
	StudentID     string
	Name          string
	Days          []DaySummary
	DaysPresent   int
	TotalDuration time.Duration
}

// Report is the derived monthly document. Never persisted; rebuilt on demand.
type Report struct {
	Year  int
	Month time.Month
	Rows  []Row
}

// Empty reports whether the month had no attendance at all.
func (r Report) Empty() bool {
	return len(r.Rows) == 0
}

// Title renders the report heading, e.g. "Attendance 2025-06".
func (r Report) Title() string {
	return fmt.Sprintf("Attendance %04d-%02d", r.Year, int(r.Month))
}

// Build aggregates the given records into a monthly report. Records outside
// the month are ignored, so callers may pass the whole log. An empty month
// yields an empty report, not an error.
func Build(records []attendance.Record, students []roster.Student, year int, month time.Month) Report {
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.Name
	}

	// student -> day of month -> scans
	byStudent := map[string]map[int][]attendance.Record{}
	for _, rec := range records {
		if rec.Timestamp.Year() != year || rec.Timestamp.Month() != month {
			continue
		}
		days := byStudent[rec.StudentID]
		if days == nil {
			days = map[int][]attendance.Record{}
			byStudent[rec.StudentID] = days
		}
		days[rec.Timestamp.Day()] = append(days[rec.Timestamp.Day()], rec)
	}

	rows := make([]Row, 0, len(byStudent))
	for id, days := range byStudent {
		row := Row{StudentID: id, Name: names[id]}
		if row.Name == "" {
			row.Name = unknownName
		}
		for _, scans := range days {
			row.Days = append(row.Days, reduceDay(scans))
		}
		sort.Slice(row.Days, func(i, j int) bool { return row.Days[i].Date.Before(row.Days[j].Date) })
		row.DaysPresent = len(row.Days)
		for _, day := range row.Days {
			row.TotalDuration += day.Duration
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })

	return Report{Year: year, Month: month, Rows: rows}
}

// reduceDay collapses one day's scans to (first ENTRY, last EXIT). A day with
// no ENTRY, no EXIT, or an EXIT preceding the first ENTRY is incomplete.
func reduceDay(scans []attendance.Record) DaySummary {
	sort.Slice(scans, func(i, j int) bool { return scans[i].Timestamp.Before(scans[j].Timestamp) })

	summary := DaySummary{Date: dayOf(scans[0].Timestamp)}
	for _, rec := range scans {
		switch rec.Direction {
		case attendance.Entry:
			if summary.FirstEntry.IsZero() {
				summary.FirstEntry = rec.Timestamp
			}
		case attendance.Exit:
			summary.LastExit = rec.Timestamp
		}
	}

	if summary.FirstEntry.IsZero() || summary.LastExit.IsZero() || summary.LastExit.Before(summary.FirstEntry) {
		summary.Incomplete = true
		return summary
	}
	summary.Duration = summary.LastExit.Sub(summary.FirstEntry)
	return summary
}

func dayOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// FormatDuration renders a duration as hours and minutes ("9h00m").
func FormatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
