// Package flatfile persists student records in a plain text file. The first
// line holds the record count N and each of the next N lines holds one record
// as code,name,mark1,mark2,mark3,examMark.
package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ukane-philemon/studentmarks/internal/db"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.uber.org/zap"
)

// fieldsPerLine is the minimum number of comma separated fields in a record
// line. Extra fields are ignored.
const fieldsPerLine = 6

const (
	// maxLineLength is the longest line read from a file.
	maxLineLength = 64 * 1024
	// maxPreallocRecords caps the capacity reserved from a header count.
	maxPreallocRecords = 1024
)

// File reads and writes student records at a file path.
type File struct {
	path string
	log  *zap.Logger
}

// New returns a *File for path. A nil log discards log output.
func New(path string, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}

	return &File{
		path: path,
		log:  log.Named("flatfile"),
	}
}

// Path returns the file path records are persisted to.
func (f *File) Path() string {
	return f.path
}

// Read returns the records stored in the file. Returns db.ErrorNotExist if
// the file does not exist.
func (f *File) Read() ([]student.Record, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", db.ErrorNotExist, f.path)
		}
		return nil, fmt.Errorf("%w: os.Open error: %w", db.ErrorIO, err)
	}
	defer file.Close()

	records, err := Decode(file, f.log)
	if err != nil {
		return nil, err
	}

	f.log.Debug("Read student records", zap.String("path", f.path), zap.Int("records", len(records)))

	return records, nil
}

// Write replaces the file content with records. The records are written to a
// temporary file in the same directory which is then renamed over the
// original, so readers never see a partial write.
func (f *File) Write(records []student.Record) (err error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: os.MkdirAll error: %w", db.ErrorIO, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: os.CreateTemp error: %w", db.ErrorIO, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, records); err != nil {
		return fmt.Errorf("%w: %w", db.ErrorIO, err)
	}

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: tmp.Chmod error: %w", db.ErrorIO, err)
	}

	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: tmp.Sync error: %w", db.ErrorIO, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: tmp.Close error: %w", db.ErrorIO, err)
	}

	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: os.Rename error: %w", db.ErrorIO, err)
	}

	f.log.Debug("Wrote student records", zap.String("path", f.path), zap.Int("records", len(records)))

	return nil
}

// Encode writes records to w in the flat file format.
func Encode(w io.Writer, records []student.Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(records))
	for _, r := range records {
		fmt.Fprintf(bw, "%d,%s,%d,%d,%d,%d\n", r.Code, r.Name,
			r.CourseworkMarks[0], r.CourseworkMarks[1], r.CourseworkMarks[2], r.ExamMark)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("bufio.Writer.Flush error: %w", err)
	}

	return nil
}

// Decode parses records in the flat file format from r. An empty input has no
// records and a header that is not a count returns db.ErrorMalformed. Body
// lines that cannot be parsed or are longer than maxLineLength are logged and
// skipped. Blank lines still count towards the header count.
func Decode(r io.Reader, log *zap.Logger) ([]student.Record, error) {
	if log == nil {
		log = zap.NewNop()
	}

	br := bufio.NewReader(r)
	header, tooLong, err := readLine(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []student.Record{}, nil
		}
		return nil, fmt.Errorf("%w: readLine error: %w", db.ErrorIO, err)
	}

	header = strings.TrimSpace(header)
	count, err := strconv.Atoi(header)
	if tooLong || err != nil || count < 0 {
		return nil, fmt.Errorf("%w: invalid record count %q", db.ErrorMalformed, header)
	}

	records := make([]student.Record, 0, min(count, maxPreallocRecords))
	for n := 1; n <= count; n++ {
		line, tooLong, err := readLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: readLine error: %w", db.ErrorIO, err)
		}

		lineNo := n + 1
		if tooLong {
			log.Warn("Skipping oversized student record", zap.Int("line", lineNo), zap.Int("max_length", maxLineLength))
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		record, err := parseLine(line)
		if err != nil {
			log.Warn("Skipping malformed student record", zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		records = append(records, record)
	}

	return records, nil
}

// readLine returns the next line of br. A line longer than maxLineLength is
// consumed without being kept and reported with tooLong set. Returns io.EOF
// only when no bytes are left.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, readErr := br.ReadSlice('\n')
		if tooLong || len(buf)+len(chunk) > maxLineLength {
			tooLong, buf = true, nil
		} else {
			buf = append(buf, chunk...)
		}

		switch {
		case errors.Is(readErr, bufio.ErrBufferFull):
			continue
		case errors.Is(readErr, io.EOF):
			if len(buf) == 0 && !tooLong {
				return "", false, io.EOF
			}
			return string(buf), tooLong, nil
		case readErr != nil:
			return "", false, readErr
		}

		return string(buf), tooLong, nil
	}
}

func parseLine(line string) (student.Record, error) {
	parts := strings.Split(line, ",")
	if len(parts) < fieldsPerLine {
		return student.Record{}, fmt.Errorf("%w: expected %d fields, found %d", db.ErrorMalformed, fieldsPerLine, len(parts))
	}

	var values [fieldsPerLine]int
	for _, i := range []int{0, 2, 3, 4, 5} {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return student.Record{}, fmt.Errorf("%w: field %d (%q) is not a number", db.ErrorMalformed, i+1, parts[i])
		}
		values[i] = v
	}

	marks := [db.CourseworkCount]int{values[2], values[3], values[4]}
	return student.NewRecord(values[0], parts[1], marks, values[5]), nil
}
