// Package store loads and saves the full set of student records through a
// Persister, seeding a default set when nothing has been persisted.
package store

import (
	"errors"
	"fmt"

	"github.com/ukane-philemon/studentmarks/internal/db"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.uber.org/zap"
)

// Persister reads and writes every student record at once.
type Persister interface {
	// Read returns the persisted records in their stored order. Returns
	// db.ErrorNotExist if nothing has been persisted yet.
	Read() ([]student.Record, error)
	// Write replaces every persisted record with records.
	Write(records []student.Record) error
}

// Store is the record store backed by a Persister.
type Store struct {
	persister Persister
	log       *zap.Logger
}

// New creates a new instance of *Store. A nil log discards log output.
func New(persister Persister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{
		persister: persister,
		log:       log.Named("store"),
	}
}

// Load reads the persisted records. Records with out of range fields or a
// code already seen earlier are skipped and logged at error level with their
// full contents. If nothing has been
// persisted, the default sample records are saved and returned.
func (s *Store) Load() ([]student.Record, error) {
	rawRecords, err := s.persister.Read()
	if err != nil {
		if errors.Is(err, db.ErrorNotExist) {
			return s.seed()
		}
		if errors.Is(err, db.ErrorMalformed) || errors.Is(err, db.ErrorIO) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: persister.Read error: %w", db.ErrorIO, err)
	}

	records := make([]student.Record, 0, len(rawRecords))
	seenCodes := make(map[int]struct{}, len(rawRecords))
	for index, record := range rawRecords {
		if err := record.Validate(); err != nil {
			// The next save drops the row, so log everything needed to restore it.
			s.log.Error("Dropping invalid student record", zap.Int("position", index), zap.Int("code", record.Code),
				zap.String("name", record.Name), zap.Ints("coursework_marks", record.CourseworkMarks[:]),
				zap.Int("exam_mark", record.ExamMark), zap.Error(err))
			continue
		}

		if _, found := seenCodes[record.Code]; found {
			s.log.Error("Dropping duplicate student record", zap.Int("position", index), zap.Int("code", record.Code),
				zap.String("name", record.Name), zap.Ints("coursework_marks", record.CourseworkMarks[:]),
				zap.Int("exam_mark", record.ExamMark))
			continue
		}
		seenCodes[record.Code] = struct{}{}

		record.Recompute()
		records = append(records, record)
	}

	s.log.Info("Student records loaded", zap.Int("records", len(records)), zap.Int("skipped", len(rawRecords)-len(records)))

	return records, nil
}

// Save persists records, replacing everything previously saved.
func (s *Store) Save(records []student.Record) error {
	err := s.persister.Write(records)
	if err != nil {
		s.log.Error("Failed to save student records", zap.Int("records", len(records)), zap.Error(err))
		if errors.Is(err, db.ErrorIO) {
			return err
		}
		return fmt.Errorf("%w: persister.Write error: %w", db.ErrorIO, err)
	}

	return nil
}

func (s *Store) seed() ([]student.Record, error) {
	records := student.SampleRecords()
	if err := s.Save(records); err != nil {
		return nil, err
	}

	s.log.Info("Seeded default student records", zap.Int("records", len(records)))

	return records, nil
}
