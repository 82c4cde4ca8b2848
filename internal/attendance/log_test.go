package attendance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newLog(t *testing.T) *Log {
	t.Helper()
	l, err := OpenLog(filepath.Join(t.TempDir(), "attendance.csv"))
	if err != nil {
		t.Fatalf("OpenLog returned error: %v", err)
	}
	return l
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation(TimeLayout, value, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestOpenLogWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	if _, err := OpenLog(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "StudentID,Timestamp,Direction") {
		t.Fatalf("missing header, got %q", string(data))
	}
}

func TestAppendAndReadBack(t *testing.T) {
	l := newLog(t)
	rec := Record{StudentID: "2025001", Timestamp: at(t, "2025/06/02 08:00:00"), Direction: Entry}
	if err := l.Append(rec); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	records, err := l.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	got := records[0]
	if got.StudentID != rec.StudentID || got.Direction != Entry || !got.Timestamp.Equal(rec.Timestamp) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestReadSkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	content := strings.Join([]string{
		"StudentID,Timestamp,Direction",
		"2025001,2025/06/02 08:00:00,ENTRY",
		"2025001,not-a-time,EXIT",
		"2025001,2025/06/02 17:00:00,SIDEWAYS",
		"2025001,2025/06/02 17:00,exit",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := OpenLog(path)
	if err != nil {
		t.Fatal(err)
	}
	records, err := l.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (bad rows skipped)", len(records))
	}
	if records[1].Direction != Exit {
		t.Fatalf("lowercase direction should normalize, got %s", records[1].Direction)
	}
}

func TestLastForDayIgnoresOtherDaysAndStudents(t *testing.T) {
	l := newLog(t)
	seed := []Record{
		{"2025001", at(t, "2025/06/01 09:00:00"), Entry},
		{"2025001", at(t, "2025/06/02 08:00:00"), Entry},
		{"2025002", at(t, "2025/06/02 08:30:00"), Entry},
		{"2025001", at(t, "2025/06/02 12:00:00"), Exit},
	}
	for _, rec := range seed {
		if err := l.Append(rec); err != nil {
			t.Fatal(err)
		}
	}
	last, found, err := l.LastForDay("2025001", at(t, "2025/06/02 23:00:00"))
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatalf("expected a record for 2025-06-02")
	}
	if last.Direction != Exit || !last.Timestamp.Equal(at(t, "2025/06/02 12:00:00")) {
		t.Fatalf("wrong last record: %+v", last)
	}
	if _, found, _ := l.LastForDay("2025001", at(t, "2025/06/03 10:00:00")); found {
		t.Fatalf("no record expected for 2025-06-03")
	}
}

func TestMonthFilters(t *testing.T) {
	l := newLog(t)
	seed := []Record{
		{"2025001", at(t, "2025/05/31 09:00:00"), Entry},
		{"2025001", at(t, "2025/06/02 08:00:00"), Entry},
		{"2025001", at(t, "2025/06/02 17:00:00"), Exit},
		{"2025001", at(t, "2025/07/01 09:00:00"), Entry},
	}
	for _, rec := range seed {
		if err := l.Append(rec); err != nil {
			t.Fatal(err)
		}
	}
	june, err := l.Month(2025, time.June)
	if err != nil {
		t.Fatal(err)
	}
	if len(june) != 2 {
		t.Fatalf("len(june) = %d, want 2", len(june))
	}
	empty, err := l.Month(2025, time.December)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no december records, got %d", len(empty))
	}
}
