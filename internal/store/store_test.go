package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukane-philemon/studentmarks/internal/db"
	"github.com/ukane-philemon/studentmarks/internal/db/flatfile"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memPersister is an in-memory Persister.
type memPersister struct {
	records  []student.Record
	exists   bool
	readErr  error
	writeErr error
	writes   int
}

func (mp *memPersister) Read() ([]student.Record, error) {
	if mp.readErr != nil {
		return nil, mp.readErr
	}
	if !mp.exists {
		return nil, db.ErrorNotExist
	}
	return append([]student.Record(nil), mp.records...), nil
}

func (mp *memPersister) Write(records []student.Record) error {
	if mp.writeErr != nil {
		return mp.writeErr
	}
	mp.writes++
	mp.exists = true
	mp.records = append([]student.Record(nil), records...)
	return nil
}

func TestLoadSeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources", "studentMarks.txt")
	s := New(flatfile.New(path, nil), nil)

	records, err := s.Load()
	require.NoError(t, err)
	require.Len(t, records, 10)
	assert.Equal(t, student.SampleRecords(), records)

	var shearer student.Record
	for _, r := range records {
		if r.Code == 8327 {
			shearer = r
		}
	}
	assert.Equal(t, "Alan Shearer", shearer.Name)
	assert.Equal(t, [3]int{20, 20, 20}, shearer.CourseworkMarks)
	assert.Equal(t, 100, shearer.ExamMark)
	assert.Equal(t, 100.0, shearer.OverallPercentage)
	assert.Equal(t, student.GradeA, shearer.Grade)

	// The seeded records were persisted immediately.
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "10\n")
	assert.Contains(t, string(content), "8327,Alan Shearer,20,20,20,100\n")

	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, records, reloaded)
}

func TestLoadSkipsInvalidAndDuplicateRecords(t *testing.T) {
	mp := &memPersister{
		exists: true,
		records: []student.Record{
			student.NewRecord(1345, "John Curry", [3]int{8, 15, 7}, 45),
			student.NewRecord(50, "Bad Code", [3]int{1, 1, 1}, 1),
			student.NewRecord(2345, "Bad Mark", [3]int{21, 1, 1}, 1),
			student.NewRecord(1345, "Duplicate", [3]int{1, 1, 1}, 1),
			student.NewRecord(2983, "Les Ferdinand", [3]int{15, 17, 18}, 92),
		},
	}

	records, err := New(mp, nil).Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "John Curry", records[0].Name)
	assert.Equal(t, "Les Ferdinand", records[1].Name)
	assert.Zero(t, mp.writes)
}

func TestLoadRecomputesDerivedFields(t *testing.T) {
	stale := student.Record{Code: 1345, Name: "John Curry", CourseworkMarks: [3]int{8, 15, 7}, ExamMark: 45, Grade: student.GradeA}
	mp := &memPersister{exists: true, records: []student.Record{stale}}

	records, err := New(mp, nil).Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 30, records[0].TotalCoursework)
	assert.Equal(t, 46.875, records[0].OverallPercentage)
	assert.Equal(t, student.GradeD, records[0].Grade)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		readErr error
		wantErr error
	}{
		{"io", db.ErrorIO, db.ErrorIO},
		{"malformed", db.ErrorMalformed, db.ErrorMalformed},
		{"unknown", errors.New("boom"), db.ErrorIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := &memPersister{readErr: tt.readErr}
			_, err := New(mp, nil).Load()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, mp.writes)
		})
	}
}

func TestLoadSeedSaveFailure(t *testing.T) {
	mp := &memPersister{writeErr: errors.New("disk full")}
	_, err := New(mp, nil).Load()
	assert.ErrorIs(t, err, db.ErrorIO)
}

func TestSave(t *testing.T) {
	mp := &memPersister{}
	s := New(mp, nil)

	records := student.SampleRecords()[:3]
	require.NoError(t, s.Save(records))
	assert.Equal(t, records, mp.records)

	mp.writeErr = errors.New("disk full")
	assert.ErrorIs(t, s.Save(records), db.ErrorIO)
}

func TestLoadLogsDroppedRecords(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mp := &memPersister{
		exists: true,
		records: []student.Record{
			student.NewRecord(1345, "John Curry", [3]int{8, 15, 7}, 45),
			student.NewRecord(2345, "Sam Sturtivant", [3]int{14, 15, 14}, 177),
			student.NewRecord(1345, "Lee Scott", [3]int{17, 11, 16}, 99),
		},
	}

	records, err := New(mp, zap.New(core)).Load()
	require.NoError(t, err)
	require.Len(t, records, 1)

	dropped := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, dropped, 2)

	invalid := dropped[0].ContextMap()
	assert.EqualValues(t, 2345, invalid["code"])
	assert.Equal(t, "Sam Sturtivant", invalid["name"])
	assert.EqualValues(t, 177, invalid["exam_mark"])
	assert.Equal(t, "[14 15 14]", fmt.Sprint(invalid["coursework_marks"]))

	duplicate := dropped[1].ContextMap()
	assert.EqualValues(t, 1345, duplicate["code"])
	assert.Equal(t, "Lee Scott", duplicate["name"])
}
