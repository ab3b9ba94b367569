package student

import "fmt"

// SortField is a key records can be sorted by.
type SortField string

const (
	SortByPercentage SortField = "percentage"
	SortByName       SortField = "name"
	SortByCode       SortField = "code"
)

// ParseSortField converts s to a SortField.
func ParseSortField(s string) (SortField, error) {
	switch field := SortField(s); field {
	case SortByPercentage, SortByName, SortByCode:
		return field, nil
	default:
		return "", fmt.Errorf("unknown sort field %q, expected one of percentage, name or code", s)
	}
}

// Summary is the count and mean overall percentage of all records.
type Summary struct {
	Count             int     `json:"count"`
	AveragePercentage float64 `json:"averagePercentage"`
}

// Summarize returns the Summary of records. The average is 0 when there are
// no records.
func Summarize(records []Record) Summary {
	summary := Summary{Count: len(records)}
	if len(records) == 0 {
		return summary
	}

	var total float64
	for _, r := range records {
		total += r.OverallPercentage
	}
	summary.AveragePercentage = total / float64(len(records))

	return summary
}

// Repository is the set of operations a presentation layer may invoke on the
// loaded student records. Every method except Load returns db.ErrorNotLoaded
// until Load has succeeded.
type Repository interface {
	// Load populates the records from persistent storage, seeding the default
	// records when nothing has been persisted yet.
	Load() error
	// Flush persists the current records. Use it to retry after a mutation
	// reported a db.ErrorIO.
	Flush() error
	// Dirty reports whether the in-memory records have changes that failed
	// to persist.
	Dirty() bool
	// All returns every record in the current order.
	All() ([]Record, error)
	// Len returns the number of records.
	Len() (int, error)
	// ByIndex returns the record at index. Returns db.ErrorOutOfRange if
	// index is outside the current bounds.
	ByIndex(index int) (Record, error)
	// Highest returns the record with the highest overall percentage. The
	// earliest record wins a tie. Returns db.ErrorEmptyStore if there are no
	// records.
	Highest() (Record, error)
	// Lowest returns the record with the lowest overall percentage. The
	// earliest record wins a tie. Returns db.ErrorEmptyStore if there are no
	// records.
	Lowest() (Record, error)
	// SortBy reorders the records in place. Equal keys keep their relative
	// order.
	SortBy(field SortField, ascending bool) error
	// Average returns the mean overall percentage. Returns db.ErrorEmptyStore
	// if there are no records.
	Average() (float64, error)
	// Summary returns the record count and average percentage.
	Summary() (Summary, error)
	// Add validates and appends a new record, then persists. Returns
	// db.ErrorInvalidField or db.ErrorDuplicateCode.
	Add(code int, name string, courseworkMarks [3]int, examMark int) (Record, error)
	// Update replaces the mutable fields of the record at index, then
	// persists. Returns db.ErrorOutOfRange or db.ErrorInvalidField.
	Update(index int, name string, courseworkMarks [3]int, examMark int) (Record, error)
	// Delete removes the record at index, then persists. Later records shift
	// down one index. Returns db.ErrorOutOfRange.
	Delete(index int) (Record, error)
}
