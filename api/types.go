package api

import (
	"github.com/ukane-philemon/studentmarks/internal/student"
)

type errorResponse struct {
	Error string `json:"error"`
}

// studentRecord is a student.Record with its current index.
type studentRecord struct {
	Index int `json:"index"`
	student.Record
}

type studentsResponse struct {
	Students []studentRecord `json:"students"`
	Summary  student.Summary `json:"summary"`
}

type averageResponse struct {
	AveragePercentage float64 `json:"averagePercentage"`
}

// mutationResponse is returned by add, update and delete. Persisted is false
// when the change was applied in memory but could not be saved.
type mutationResponse struct {
	Student   student.Record `json:"student"`
	Persisted bool           `json:"persisted"`
	Error     string         `json:"error,omitempty"`
}

type flushResponse struct {
	Persisted bool `json:"persisted"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type sortRequest struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}

type addStudentRequest struct {
	Code            int    `json:"code"`
	Name            string `json:"name"`
	CourseworkMarks []int  `json:"courseworkMarks"`
	ExamMark        int    `json:"examMark"`
}

type updateStudentRequest struct {
	Name            string `json:"name"`
	CourseworkMarks []int  `json:"courseworkMarks"`
	ExamMark        int    `json:"examMark"`
}
