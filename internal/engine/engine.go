// Package engine implements student.Repository over records loaded from a
// store.Store. All queries and validated writes go through an *Engine.
package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ukane-philemon/studentmarks/internal/db"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.uber.org/zap"
)

// Check that *Engine implements student.Repository.
var _ student.Repository = (*Engine)(nil)

// Storage is the record store used by an Engine.
type Storage interface {
	Load() ([]student.Record, error)
	Save(records []student.Record) error
}

// Engine implements student.Repository.
type Engine struct {
	storage Storage
	log     *zap.Logger

	mtx     sync.Mutex
	loaded  bool
	dirty   bool
	records []student.Record
}

// New creates a new instance of *Engine. Load must be called before any other
// method. A nil log discards log output.
func New(storage Storage, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		storage: storage,
		log:     log.Named("engine"),
	}
}

// Load implements student.Repository. On failure the previously loaded
// records, if any, are kept.
func (e *Engine) Load() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	records, err := e.storage.Load()
	if err != nil {
		return err
	}

	e.records = records
	e.loaded = true
	e.dirty = false

	return nil
}

// Flush implements student.Repository.
func (e *Engine) Flush() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return db.ErrorNotLoaded
	}

	return e.save()
}

// Dirty implements student.Repository.
func (e *Engine) Dirty() bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.dirty
}

// All implements student.Repository. The returned slice is a copy.
func (e *Engine) All() ([]student.Record, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return nil, db.ErrorNotLoaded
	}

	records := make([]student.Record, len(e.records))
	copy(records, e.records)
	return records, nil
}

// Len implements student.Repository.
func (e *Engine) Len() (int, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return 0, db.ErrorNotLoaded
	}

	return len(e.records), nil
}

// ByIndex implements student.Repository.
func (e *Engine) ByIndex(index int) (student.Record, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if err := e.checkIndex(index); err != nil {
		return student.Record{}, err
	}

	return e.records[index], nil
}

// Highest implements student.Repository.
func (e *Engine) Highest() (student.Record, error) {
	return e.extremum(func(candidate, best float64) bool { return candidate > best })
}

// Lowest implements student.Repository.
func (e *Engine) Lowest() (student.Record, error) {
	return e.extremum(func(candidate, best float64) bool { return candidate < best })
}

// extremum returns the first record for which no later record's percentage
// is better.
func (e *Engine) extremum(better func(candidate, best float64) bool) (student.Record, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return student.Record{}, db.ErrorNotLoaded
	}

	if len(e.records) == 0 {
		return student.Record{}, db.ErrorEmptyStore
	}

	bestIndex := 0
	for i := 1; i < len(e.records); i++ {
		if better(e.records[i].OverallPercentage, e.records[bestIndex].OverallPercentage) {
			bestIndex = i
		}
	}

	return e.records[bestIndex], nil
}

// SortBy implements student.Repository. The new order is not persisted until
// the next mutation or Flush.
func (e *Engine) SortBy(field student.SortField, ascending bool) error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return db.ErrorNotLoaded
	}

	var less func(a, b *student.Record) bool
	switch field {
	case student.SortByPercentage:
		less = func(a, b *student.Record) bool { return a.OverallPercentage < b.OverallPercentage }
	case student.SortByName:
		less = func(a, b *student.Record) bool { return a.Name < b.Name }
	case student.SortByCode:
		less = func(a, b *student.Record) bool { return a.Code < b.Code }
	default:
		return fmt.Errorf("%w: unknown sort field %q", db.ErrorInvalidField, field)
	}

	sort.SliceStable(e.records, func(i, j int) bool {
		if ascending {
			return less(&e.records[i], &e.records[j])
		}
		return less(&e.records[j], &e.records[i])
	})

	e.log.Debug("Sorted student records", zap.String("field", string(field)), zap.Bool("ascending", ascending))

	return nil
}

// Average implements student.Repository.
func (e *Engine) Average() (float64, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return 0, db.ErrorNotLoaded
	}

	if len(e.records) == 0 {
		return 0, db.ErrorEmptyStore
	}

	return student.Summarize(e.records).AveragePercentage, nil
}

// Summary implements student.Repository. The average is 0 when there are no
// records.
func (e *Engine) Summary() (student.Summary, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return student.Summary{}, db.ErrorNotLoaded
	}

	return student.Summarize(e.records), nil
}

// Add implements student.Repository. If the record is added but cannot be
// persisted, the returned error wraps db.ErrorIO and the returned record is
// the one now held in memory.
func (e *Engine) Add(code int, name string, courseworkMarks [3]int, examMark int) (student.Record, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if !e.loaded {
		return student.Record{}, db.ErrorNotLoaded
	}

	if err := student.ValidateCode(code); err != nil {
		return student.Record{}, err
	}

	if err := student.ValidateFields(name, courseworkMarks, examMark); err != nil {
		return student.Record{}, err
	}

	for _, r := range e.records {
		if r.Code == code {
			return student.Record{}, fmt.Errorf("%w: student code %d already exists", db.ErrorDuplicateCode, code)
		}
	}

	record := student.NewRecord(code, name, courseworkMarks, examMark)
	e.records = append(e.records, record)

	e.log.Info("Student record added", zap.Int("code", code), zap.Int("records", len(e.records)))

	return record, e.save()
}

// Update implements student.Repository. If the record is updated but cannot
// be persisted, the returned error wraps db.ErrorIO and the returned record
// is the one now held in memory.
func (e *Engine) Update(index int, name string, courseworkMarks [3]int, examMark int) (student.Record, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if err := e.checkIndex(index); err != nil {
		return student.Record{}, err
	}

	if err := student.ValidateFields(name, courseworkMarks, examMark); err != nil {
		return student.Record{}, err
	}

	record := &e.records[index]
	record.Name = name
	record.CourseworkMarks = courseworkMarks
	record.ExamMark = examMark
	record.Recompute()

	e.log.Info("Student record updated", zap.Int("index", index), zap.Int("code", record.Code))

	return *record, e.save()
}

// Delete implements student.Repository. If the record is removed but the
// change cannot be persisted, the returned error wraps db.ErrorIO and the
// removed record is still returned.
func (e *Engine) Delete(index int) (student.Record, error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if err := e.checkIndex(index); err != nil {
		return student.Record{}, err
	}

	removed := e.records[index]
	e.records = append(e.records[:index], e.records[index+1:]...)

	e.log.Info("Student record deleted", zap.Int("index", index), zap.Int("code", removed.Code))

	return removed, e.save()
}

// checkIndex must be called with the mutex held.
func (e *Engine) checkIndex(index int) error {
	if !e.loaded {
		return db.ErrorNotLoaded
	}

	if index < 0 || index >= len(e.records) {
		return fmt.Errorf("%w: index %d is outside [0, %d)", db.ErrorOutOfRange, index, len(e.records))
	}

	return nil
}

// save persists the current records and tracks whether memory and storage
// have diverged. It must be called with the mutex held.
func (e *Engine) save() error {
	if err := e.storage.Save(e.records); err != nil {
		e.dirty = true
		return err
	}

	e.dirty = false
	return nil
}
