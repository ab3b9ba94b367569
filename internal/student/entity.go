package student

import (
	"fmt"
	"strings"

	"github.com/ukane-philemon/studentmarks/internal/db"
)

// Grades awarded for an overall percentage.
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
	GradeF = "F"
)

// Record is one student's identifying and mark data plus the statistics
// derived from them. Records are passed by value; the derived fields are only
// ever set by Recompute.
type Record struct {
	Code              int                     `json:"code"`
	Name              string                  `json:"name"`
	CourseworkMarks   [db.CourseworkCount]int `json:"courseworkMarks"`
	ExamMark          int                     `json:"examMark"`
	TotalCoursework   int                     `json:"totalCoursework"`
	OverallPercentage float64                 `json:"overallPercentage"`
	Grade             string                  `json:"grade"`
}

// NewRecord creates a record from raw fields with its derived fields filled.
// No validation is done, see Validate.
func NewRecord(code int, name string, courseworkMarks [db.CourseworkCount]int, examMark int) Record {
	r := Record{
		Code:            code,
		Name:            name,
		CourseworkMarks: courseworkMarks,
		ExamMark:        examMark,
	}
	r.Recompute()
	return r
}

// Recompute fills TotalCoursework, OverallPercentage and Grade from the raw
// marks.
func (r *Record) Recompute() {
	var total int
	for _, mark := range r.CourseworkMarks {
		total += mark
	}

	r.TotalCoursework = total
	r.OverallPercentage = float64(total+r.ExamMark) * 100 / db.MaxTotalMarks
	r.Grade = GradePercentage(r.OverallPercentage)
}

// GradePercentage returns the letter grade for an overall percentage.
func GradePercentage(percentage float64) string {
	switch {
	case percentage >= 70:
		return GradeA
	case percentage >= 60:
		return GradeB
	case percentage >= 50:
		return GradeC
	case percentage >= 40:
		return GradeD
	default:
		return GradeF
	}
}

// ValidateCode checks that code is within the allowed student code range.
func ValidateCode(code int) error {
	if code < db.MinCode || code > db.MaxCode {
		return fmt.Errorf("%w: student code must be between %d and %d", db.ErrorInvalidField, db.MinCode, db.MaxCode)
	}
	return nil
}

// ValidateFields checks the mutable fields of a record: the name, each
// coursework mark and the exam mark, in that order.
func ValidateFields(name string, courseworkMarks [db.CourseworkCount]int, examMark int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: missing student name", db.ErrorInvalidField)
	}

	// The flat file format does not escape these.
	if strings.ContainsAny(name, ",\r\n") {
		return fmt.Errorf("%w: student name must not contain commas or line breaks", db.ErrorInvalidField)
	}

	for index, mark := range courseworkMarks {
		if mark < 0 || mark > db.MaxCourseworkMark {
			return fmt.Errorf("%w: coursework mark %d (%d) must be between 0 and %d",
				db.ErrorInvalidField, index+1, mark, db.MaxCourseworkMark)
		}
	}

	if examMark < 0 || examMark > db.MaxExamMark {
		return fmt.Errorf("%w: exam mark (%d) must be between 0 and %d", db.ErrorInvalidField, examMark, db.MaxExamMark)
	}

	return nil
}

// Validate checks every raw field of r.
func (r Record) Validate() error {
	if err := ValidateCode(r.Code); err != nil {
		return err
	}
	return ValidateFields(r.Name, r.CourseworkMarks, r.ExamMark)
}

// SampleRecords returns the default records used to seed an empty store.
func SampleRecords() []Record {
	return []Record{
		NewRecord(1345, "John Curry", [3]int{8, 15, 7}, 45),
		NewRecord(2345, "Sam Sturtivant", [3]int{14, 15, 14}, 77),
		NewRecord(9876, "Lee Scott", [3]int{17, 11, 16}, 99),
		NewRecord(3724, "Matt Thompson", [3]int{19, 11, 15}, 81),
		NewRecord(1212, "Ron Herrema", [3]int{14, 17, 18}, 66),
		NewRecord(8439, "Jake Hobbs", [3]int{10, 11, 10}, 43),
		NewRecord(2344, "Jo Hyde", [3]int{6, 15, 10}, 55),
		NewRecord(9384, "Gareth Southgate", [3]int{5, 6, 8}, 33),
		NewRecord(8327, "Alan Shearer", [3]int{20, 20, 20}, 100),
		NewRecord(2983, "Les Ferdinand", [3]int{15, 17, 18}, 92),
	}
}
