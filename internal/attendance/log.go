// internal/attendance/log.go
//
// The attendance log is an append-only CSV, one row per scan event. Rows are
// never mutated or deleted; the entry/exit pairing seen in reports is derived
// at read time.

package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrStoreUnavailable wraps attendance file read/write failures.
var ErrStoreUnavailable = errors.New("attendance: store unavailable")

// Direction marks a scan as an arrival or a departure.
type Direction string

const (
	Entry Direction = "ENTRY"
	Exit  Direction = "EXIT"
)

// TimeLayout is the on-disk timestamp format, kept from the historical data
// files so old logs stay readable.
const TimeLayout = "2006/01/02 15:04:05"

var header = []string{"StudentID", "Timestamp", "Direction"}

// Record is one scan event.
type Record struct {
	StudentID string
	Timestamp time.Time
	Direction Direction
}

// Log is the file-backed scan store. A single mutex serializes every
// read-modify-write so the toggle decision and its append cannot interleave.
type Log struct {
	path string
	mu   sync.Mutex
}

// OpenLog prepares the attendance log at path, creating it with a header row
// on first run.
func OpenLog(path string) (*Log, error) {
	l := &Log{path: path}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureFileLocked(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) ensureFileLocked() error {
	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", ErrStoreUnavailable, l.path, err)
	}
	file, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStoreUnavailable, l.path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrStoreUnavailable, err)
	}
	w.Flush()
	return w.Error()
}

// Append writes one record to the end of the log.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(rec)
}

func (l *Log) appendLocked(rec Record) error {
	if err := l.ensureFileLocked(); err != nil {
		return err
	}
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, l.path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	row := []string{rec.StudentID, rec.Timestamp.Format(TimeLayout), string(rec.Direction)}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("%w: append row: %v", ErrStoreUnavailable, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// All returns every record in file order.
func (l *Log) All() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *Log) readLocked() ([]Record, error) {
	file, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, l.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrStoreUnavailable, l.path, err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			continue
		}
		id := strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))
		if i == 0 && strings.EqualFold(id, header[0]) {
			continue
		}
		ts, err := parseTimestamp(strings.TrimSpace(row[1]))
		if err != nil {
			// Malformed rows are skipped, not fatal: a hand-edited line must
			// not take the whole store down.
			continue
		}
		dir := Direction(strings.ToUpper(strings.TrimSpace(row[2])))
		if dir != Entry && dir != Exit {
			continue
		}
		records = append(records, Record{StudentID: id, Timestamp: ts, Direction: dir})
	}
	return records, nil
}

// Historical exports used a handful of timestamp shapes; accept them all.
var timeLayouts = []string{
	TimeLayout,
	"2006/01/02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("attendance: unrecognized timestamp %q", s)
}

// LastForDay returns the most recent record for the student on the given day,
// if any.
func (l *Log) LastForDay(studentID string, day time.Time) (Record, bool, error) {
	records, err := l.All()
	if err != nil {
		return Record{}, false, err
	}
	y, m, d := day.Date()
	var last Record
	found := false
	for _, rec := range records {
		ry, rm, rd := rec.Timestamp.Date()
		if rec.StudentID != studentID || ry != y || rm != m || rd != d {
			continue
		}
		if !found || !rec.Timestamp.Before(last.Timestamp) {
			last = rec
			found = true
		}
	}
	return last, found, nil
}

// Month returns all records whose timestamp falls inside the given month.
func (l *Log) Month(year int, month time.Month) ([]Record, error) {
	records, err := l.All()
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range records {
		if rec.Timestamp.Year() == year && rec.Timestamp.Month() == month {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count reports the number of stored records.
func (l *Log) Count() (int, error) {
	records, err := l.All()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
