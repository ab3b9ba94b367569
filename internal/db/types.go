package db

import (
	"errors"
)

// ErrorInvalidRequest is a user facing error returned by repositories. Every
// user facing error kind below matches it with errors.Is.
var ErrorInvalidRequest = errors.New("invalid request")

// requestError is a user facing error kind that also matches
// ErrorInvalidRequest.
type requestError struct {
	msg string
}

func (re *requestError) Error() string {
	return re.msg
}

// Is implements the interface used by errors.Is.
func (re *requestError) Is(target error) bool {
	return target == ErrorInvalidRequest
}

var (
	// ErrorInvalidField is returned when a raw input violates a documented
	// range or non-empty constraint.
	ErrorInvalidField error = &requestError{"invalid field"}
	// ErrorDuplicateCode is returned when a student code is already taken.
	ErrorDuplicateCode error = &requestError{"duplicate student code"}
	// ErrorOutOfRange is returned for an index outside the current bounds.
	ErrorOutOfRange error = &requestError{"index out of range"}
	// ErrorEmptyStore is returned by extremum and average queries on zero
	// records.
	ErrorEmptyStore error = &requestError{"no student records found"}
)

var (
	// ErrorNotLoaded is returned by every operation issued before a
	// successful load.
	ErrorNotLoaded = errors.New("student records have not been loaded")
	// ErrorMalformed is returned for structurally broken persisted data.
	ErrorMalformed = errors.New("malformed student data")
	// ErrorIO is returned when persistent storage cannot be read or written.
	ErrorIO = errors.New("student storage failure")
	// ErrorNotExist is returned by persisters when nothing has been
	// persisted yet.
	ErrorNotExist = errors.New("no persisted student records")
)

const (
	// MinCode and MaxCode bound a student code.
	MinCode = 1000
	MaxCode = 9999
	// CourseworkCount is the number of coursework marks per student.
	CourseworkCount = 3
	// MaxCourseworkMark is the highest mark for one piece of coursework.
	MaxCourseworkMark = 20
	// MaxExamMark is the highest exam mark.
	MaxExamMark = 100
	// MaxTotalMarks is the highest possible coursework plus exam total.
	MaxTotalMarks = CourseworkCount*MaxCourseworkMark + MaxExamMark
)
