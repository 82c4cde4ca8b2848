// internal/attendance/intake.go
//
// Scan intake: a scanned or typed identifier is validated against the roster
// and turned into an ENTRY or EXIT record. The first scan of a day is always
// an ENTRY; scans then alternate.

package attendance

import (
	"time"

	"github.com/hosakajuku/kiroku/internal/logbook"
	"github.com/hosakajuku/kiroku/internal/roster"
)

// Clock supplies the current time. Injectable for tests.
type Clock func() time.Time

// Intake validates scans and appends records.
type Intake struct {
	roster *roster.Store
	log    *Log
	book   *logbook.Logbook
	now    Clock
}

// IntakeOption customizes Intake construction.
type IntakeOption func(*Intake)

// WithClock overrides the wall clock.
func WithClock(now Clock) IntakeOption {
	return func(in *Intake) {
		if now != nil {
			in.now = now
		}
	}
}

// NewIntake wires the scan path together.
func NewIntake(r *roster.Store, l *Log, book *logbook.Logbook, opts ...IntakeOption) *Intake {
	in := &Intake{roster: r, log: l, book: book, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(in)
		}
	}
	return in
}

// RecordScan handles one scan event. An unknown identifier writes nothing and
// returns roster.ErrUnknownStudent.
func (in *Intake) RecordScan(id string) (Record, error) {
	student, err := in.roster.Lookup(id)
	if err != nil {
		in.book.Warn("scan rejected: %v", err)
		return Record{}, err
	}

	rec, err := in.log.toggle(student.ID, in.now())
	if err != nil {
		in.book.Error("scan for %s failed: %v", student.ID, err)
		return Record{}, err
	}
	in.book.Info("%s for %s (%s) at %s",
		rec.Direction, student.Name, student.ID, rec.Timestamp.Format(TimeLayout))
	return rec, nil
}

// toggle decides the direction from the student's last record today and
// appends the new record under a single lock, so two rapid scans cannot both
// observe the same prior state.
func (l *Log) toggle(studentID string, now time.Time) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		return Record{}, err
	}

	direction := Entry
	y, m, d := now.Date()
	for _, rec := range records {
		ry, rm, rd := rec.Timestamp.Date()
		if rec.StudentID != studentID || ry != y || rm != m || rd != d {
			continue
		}
		if rec.Direction == Entry {
			direction = Exit
		} else {
			direction = Entry
		}
	}

	rec := Record{StudentID: studentID, Timestamp: now, Direction: direction}
	if err := l.appendLocked(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
