package attendance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hosakajuku/kiroku/internal/logbook"
	"github.com/hosakajuku/kiroku/internal/roster"
)

func newIntake(t *testing.T, clock Clock) (*Intake, *Log) {
	t.Helper()
	dir := t.TempDir()
	rosterCSV := "StudentID,StudentName\n2025001,山田太郎\n2025002,佐藤花子\n"
	rosterPath := filepath.Join(dir, "roster.csv")
	if err := os.WriteFile(rosterPath, []byte(rosterCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := roster.Open(rosterPath)
	if err != nil {
		t.Fatal(err)
	}
	log, err := OpenLog(filepath.Join(dir, "attendance.csv"))
	if err != nil {
		t.Fatal(err)
	}
	book, err := logbook.New(filepath.Join(dir, "kiroku.log"), logbook.LevelDebug)
	if err != nil {
		t.Fatal(err)
	}
	return NewIntake(store, log, book, WithClock(clock)), log
}

// stepClock returns a clock that advances one minute per call within one day.
func stepClock(t *testing.T, start string) Clock {
	t.Helper()
	current := at(t, start)
	return func() time.Time {
		now := current
		current = current.Add(time.Minute)
		return now
	}
}

func TestScansAlternateDirections(t *testing.T) {
	in, _ := newIntake(t, stepClock(t, "2025/06/02 08:00:00"))
	want := []Direction{Entry, Exit, Entry, Exit}
	for i, dir := range want {
		rec, err := in.RecordScan("2025001")
		if err != nil {
			t.Fatalf("scan %d returned error: %v", i, err)
		}
		if rec.Direction != dir {
			t.Fatalf("scan %d direction = %s, want %s", i, rec.Direction, dir)
		}
	}
}

func TestFirstScanOfNewDayIsEntry(t *testing.T) {
	times := []string{
		"2025/06/02 08:00:00",
		"2025/06/03 08:00:00",
	}
	idx := 0
	clock := func() time.Time {
		ts := times[idx]
		idx++
		return at(t, ts)
	}
	in, _ := newIntake(t, clock)

	rec, err := in.RecordScan("2025001")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Direction != Entry {
		t.Fatalf("day one scan = %s, want ENTRY", rec.Direction)
	}

	// Yesterday ended on ENTRY, but a new day starts fresh.
	rec, err = in.RecordScan("2025001")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Direction != Entry {
		t.Fatalf("new day scan = %s, want ENTRY", rec.Direction)
	}
}

func TestUnknownStudentWritesNothing(t *testing.T) {
	in, log := newIntake(t, stepClock(t, "2025/06/02 08:00:00"))
	before, err := log.Count()
	if err != nil {
		t.Fatal(err)
	}
	_, err = in.RecordScan("9999999")
	if !errors.Is(err, roster.ErrUnknownStudent) {
		t.Fatalf("expected ErrUnknownStudent, got %v", err)
	}
	after, err := log.Count()
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Fatalf("row count changed on rejected scan: %d -> %d", before, after)
	}
}

func TestScansAreIndependentPerStudent(t *testing.T) {
	in, _ := newIntake(t, stepClock(t, "2025/06/02 08:00:00"))
	if rec, _ := in.RecordScan("2025001"); rec.Direction != Entry {
		t.Fatalf("first student first scan = %s", rec.Direction)
	}
	if rec, _ := in.RecordScan("2025002"); rec.Direction != Entry {
		t.Fatalf("second student first scan should be ENTRY, got %s", rec.Direction)
	}
	if rec, _ := in.RecordScan("2025001"); rec.Direction != Exit {
		t.Fatalf("first student second scan should be EXIT, got %s", rec.Direction)
	}
}
