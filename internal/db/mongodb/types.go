package mongodb

import (
	"github.com/ukane-philemon/studentmarks/internal/student"
)

// dbSnapshot is the single document holding every student record. Count
// mirrors the flat file header and is checked against Records on read.
type dbSnapshot struct {
	ID            string            `bson:"_id"`
	Count         int               `bson:"count"`
	Records       []dbStudentRecord `bson:"records"`
	LastUpdatedAt int64             `bson:"lastUpdatedAt"`
}

type dbStudentRecord struct {
	Code            int    `bson:"code"`
	Name            string `bson:"name"`
	CourseworkMarks []int  `bson:"courseworkMarks"`
	ExamMark        int    `bson:"examMark"`
}

func newDBStudentRecord(r student.Record) dbStudentRecord {
	return dbStudentRecord{
		Code:            r.Code,
		Name:            r.Name,
		CourseworkMarks: r.CourseworkMarks[:],
		ExamMark:        r.ExamMark,
	}
}

// StudentRecord converts sr to a student.Record with its derived fields
// recomputed. ok is false if sr does not hold exactly three coursework
// marks.
func (sr *dbStudentRecord) StudentRecord() (record student.Record, ok bool) {
	var marks [3]int
	if len(sr.CourseworkMarks) != len(marks) {
		return student.Record{}, false
	}
	copy(marks[:], sr.CourseworkMarks)
	return student.NewRecord(sr.Code, sr.Name, marks, sr.ExamMark), true
}
