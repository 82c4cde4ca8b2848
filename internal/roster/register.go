package roster

import (
	"fmt"
	"strconv"
	"time"
)

// Student identifiers follow the school's historical numbering: the last two
// digits of the year, a literal D, and a four digit sequence that starts at
// 19 and advances in steps of 8 (25D0019, 25D0027, ...).
const (
	firstSequence = 19
	sequenceStep  = 8
	idLength      = 7
)

// Register generates a fresh identifier for name, appends the row to the
// roster file and returns the new student.
func (s *Store) Register(name string) (Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return Student{}, fmt.Errorf("roster: student name is required")
	}

	// Re-read so a hand-edited roster cannot cause a duplicate identifier.
	if err := s.loadLocked(); err != nil {
		return Student{}, err
	}

	st := Student{ID: s.nextIDLocked(time.Now()), Name: name}
	if err := s.appendLocked(st); err != nil {
		return Student{}, err
	}
	return st, nil
}

func (s *Store) nextIDLocked(now time.Time) string {
	prefix := fmt.Sprintf("%02dD", now.Year()%100)

	maxSeq := 0
	for _, st := range s.students {
		if len(st.ID) != idLength || st.ID[:3] != prefix {
			continue
		}
		n, err := strconv.Atoi(st.ID[3:])
		if err != nil {
			continue
		}
		if n > maxSeq {
			maxSeq = n
		}
	}

	next := firstSequence
	if maxSeq > 0 {
		next = maxSeq + sequenceStep
	}
	if next > 9999 {
		// Sequence space exhausted; fall back to a date-derived suffix.
		return prefix + now.Format("0102")
	}
	return fmt.Sprintf("%s%04d", prefix, next)
}
