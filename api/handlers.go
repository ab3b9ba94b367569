package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/ukane-philemon/studentmarks/internal/db"
	customerror "github.com/ukane-philemon/studentmarks/internal/errors"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.uber.org/zap"
)

func (s *Server) login(res http.ResponseWriter, req *http.Request) {
	if s.admin == nil {
		writeError(res, http.StatusUnauthorized, &customerror.ErrorUnauthorized{})
		return
	}

	var body loginRequest
	if err := decodeJSON(res, req, &body); err != nil {
		s.respondError(res, err)
		return
	}

	if err := s.admin.LoginAccount(body.Username, body.Password); err != nil {
		if errors.Is(err, db.ErrorInvalidRequest) {
			writeError(res, http.StatusUnauthorized, err)
			return
		}
		s.respondError(res, err)
		return
	}

	token, err := s.JWTManager.GenerateJWTToken(body.Username)
	if err != nil {
		s.respondError(res, err)
		return
	}

	s.log.Info("Admin logged in", zap.String("username", body.Username))

	writeJSON(res, http.StatusOK, loginResponse{Token: token})
}

func (s *Server) allStudents(res http.ResponseWriter, req *http.Request) {
	s.respondStudents(res)
}

func (s *Server) respondStudents(res http.ResponseWriter) {
	records, err := s.repo.All()
	if err != nil {
		s.respondError(res, err)
		return
	}

	students := make([]studentRecord, 0, len(records))
	for index, record := range records {
		students = append(students, studentRecord{Index: index, Record: record})
	}

	writeJSON(res, http.StatusOK, studentsResponse{Students: students, Summary: student.Summarize(records)})
}

func (s *Server) studentByIndex(res http.ResponseWriter, req *http.Request) {
	index, err := indexParam(req)
	if err != nil {
		s.respondError(res, err)
		return
	}

	record, err := s.repo.ByIndex(index)
	if err != nil {
		s.respondError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, studentRecord{Index: index, Record: record})
}

func (s *Server) highestStudent(res http.ResponseWriter, req *http.Request) {
	s.respondRecord(res, s.repo.Highest)
}

func (s *Server) lowestStudent(res http.ResponseWriter, req *http.Request) {
	s.respondRecord(res, s.repo.Lowest)
}

func (s *Server) respondRecord(res http.ResponseWriter, query func() (student.Record, error)) {
	record, err := query()
	if err != nil {
		s.respondError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, record)
}

func (s *Server) averagePercentage(res http.ResponseWriter, req *http.Request) {
	average, err := s.repo.Average()
	if err != nil {
		s.respondError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, averageResponse{AveragePercentage: average})
}

func (s *Server) summary(res http.ResponseWriter, req *http.Request) {
	summary, err := s.repo.Summary()
	if err != nil {
		s.respondError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, summary)
}

func (s *Server) sortStudents(res http.ResponseWriter, req *http.Request) {
	var body sortRequest
	if err := decodeJSON(res, req, &body); err != nil {
		s.respondError(res, err)
		return
	}

	field, err := student.ParseSortField(body.Field)
	if err != nil {
		s.respondError(res, fmt.Errorf("%w: %v", db.ErrorInvalidField, err))
		return
	}

	if err := s.repo.SortBy(field, body.Ascending); err != nil {
		s.respondError(res, err)
		return
	}

	s.respondStudents(res)
}

func (s *Server) addStudent(res http.ResponseWriter, req *http.Request) {
	var body addStudentRequest
	if err := decodeJSON(res, req, &body); err != nil {
		s.respondError(res, err)
		return
	}

	// The code is checked before the fields, as in student.Repository.Add.
	if err := student.ValidateCode(body.Code); err != nil {
		s.respondError(res, err)
		return
	}

	marks, err := courseworkMarks(body.CourseworkMarks)
	if err != nil {
		s.respondError(res, err)
		return
	}

	record, err := s.repo.Add(body.Code, body.Name, marks, body.ExamMark)
	s.respondMutation(res, http.StatusCreated, record, err)
}

func (s *Server) updateStudent(res http.ResponseWriter, req *http.Request) {
	index, err := indexParam(req)
	if err != nil {
		s.respondError(res, err)
		return
	}

	var body updateStudentRequest
	if err := decodeJSON(res, req, &body); err != nil {
		s.respondError(res, err)
		return
	}

	marks, err := courseworkMarks(body.CourseworkMarks)
	if err != nil {
		s.respondError(res, err)
		return
	}

	record, err := s.repo.Update(index, body.Name, marks, body.ExamMark)
	s.respondMutation(res, http.StatusOK, record, err)
}

func (s *Server) deleteStudent(res http.ResponseWriter, req *http.Request) {
	index, err := indexParam(req)
	if err != nil {
		s.respondError(res, err)
		return
	}

	record, err := s.repo.Delete(index)
	s.respondMutation(res, http.StatusOK, record, err)
}

func (s *Server) flush(res http.ResponseWriter, req *http.Request) {
	if err := s.repo.Flush(); err != nil {
		s.respondError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, flushResponse{Persisted: true})
}

// respondMutation writes the result of a mutation. A db.ErrorIO means the
// mutation was applied in memory only, so the record is still returned.
func (s *Server) respondMutation(res http.ResponseWriter, status int, record student.Record, err error) {
	if err != nil {
		if !errors.Is(err, db.ErrorIO) {
			s.respondError(res, err)
			return
		}

		s.log.Error("SERVER ERROR", zap.Int("code", record.Code), zap.Error(err))
		writeJSON(res, http.StatusInternalServerError, mutationResponse{
			Student:   record,
			Persisted: false,
			Error:     (&customerror.ErrorNotPersisted{}).Error(),
		})
		return
	}

	writeJSON(res, status, mutationResponse{Student: record, Persisted: true})
}

func indexParam(req *http.Request) (int, error) {
	param := chi.URLParam(req, "index")
	index, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid student index %q", db.ErrorInvalidRequest, param)
	}
	return index, nil
}

func courseworkMarks(marks []int) ([db.CourseworkCount]int, error) {
	var result [db.CourseworkCount]int
	if len(marks) != db.CourseworkCount {
		return result, fmt.Errorf("%w: exactly %d coursework marks are required, got %d",
			db.ErrorInvalidField, db.CourseworkCount, len(marks))
	}
	copy(result[:], marks)
	return result, nil
}
