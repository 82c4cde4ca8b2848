// internal/roster/roster.go
//
// The roster is the authoritative list of known students. It lives in a plain
// CSV file (StudentID,StudentName) that staff may also edit by hand, so the
// store re-reads on demand and tolerates a UTF-8 byte order mark.

package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownStudent is returned when an identifier is not on the roster.
	ErrUnknownStudent = errors.New("roster: unknown student")

	// ErrStoreUnavailable wraps roster file read/write failures.
	ErrStoreUnavailable = errors.New("roster: store unavailable")
)

var header = []string{"StudentID", "StudentName"}

// Student is one roster row. Identifiers are unique, stable keys.
type Student struct {
	ID   string
	Name string
}

// Store is the file-backed roster. All read-modify-write sequences go through
// the mutex so a registration cannot race a reload.
type Store struct {
	path string

	mu       sync.RWMutex
	students []Student
	index    map[string]int
}

// Open loads the roster at path. A missing file is first-run behavior: it is
// created with a header row and the store starts empty.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the roster file, picking up external edits.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.createEmptyLocked(); err != nil {
			return err
		}
		s.students = nil
		s.index = map[string]int{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrStoreUnavailable, s.path, err)
	}

	students := make([]Student, 0, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		id := strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))
		name := strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(id, header[0]) {
			continue
		}
		if id == "" || name == "" {
			continue
		}
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(students)
		students = append(students, Student{ID: id, Name: name})
	}
	s.students = students
	s.index = index
	return nil
}

func (s *Store) createEmptyLocked() error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStoreUnavailable, s.path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: write header: %v", ErrStoreUnavailable, err)
	}
	w.Flush()
	return w.Error()
}

// Lookup returns the student for the given identifier.
func (s *Store) Lookup(id string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return Student{}, fmt.Errorf("%w: %q", ErrUnknownStudent, id)
	}
	return s.students[idx], nil
}

// All returns every student sorted by identifier.
func (s *Store) All() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, len(s.students))
	copy(out, s.students)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of registered students.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

func (s *Store) appendLocked(st Student) error {
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, s.path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.Write([]string{st.ID, st.Name}); err != nil {
		return fmt.Errorf("%w: append row: %v", ErrStoreUnavailable, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrStoreUnavailable, err)
	}
	s.index[st.ID] = len(s.students)
	s.students = append(s.students, st)
	return nil
}
