package flatfile

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukane-philemon/studentmarks/internal/db"
	"github.com/ukane-philemon/studentmarks/internal/student"
)

const sampleFile = `3
1345,John Curry,8,15,7,45
2345,Sam Sturtivant,14,15,14,77
8327,Alan Shearer,20,20,20,100
`

func TestDecode(t *testing.T) {
	records, err := Decode(strings.NewReader(sampleFile), nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, student.NewRecord(1345, "John Curry", [3]int{8, 15, 7}, 45), records[0])
	assert.Equal(t, "Sam Sturtivant", records[1].Name)
	assert.Equal(t, 100.0, records[2].OverallPercentage)
	assert.Equal(t, student.GradeA, records[2].Grade)
}

func TestDecodeLenient(t *testing.T) {
	input := strings.Join([]string{
		" 6 ",
		"1345,John Curry,8,15,7,45",
		"2345,Too Few,14,15",
		"",
		"abc,Not A Code,1,2,3,4",
		"  9876,Lee Scott, 17 ,11,16,99,extra  ",
		"3724,Matt Thompson,19,11,15,81",
		"1212,Past The Count,14,17,18,66",
	}, "\n")

	records, err := Decode(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 1345, records[0].Code)
	assert.Equal(t, 9876, records[1].Code)
	assert.Equal(t, "Lee Scott", records[1].Name)
	assert.Equal(t, [3]int{17, 11, 16}, records[1].CourseworkMarks)
	assert.Equal(t, 99, records[1].ExamMark)
	assert.Equal(t, 3724, records[2].Code)
}

func TestDecodeCountLargerThanBody(t *testing.T) {
	records, err := Decode(strings.NewReader("5\n1345,John Curry,8,15,7,45\n"), nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDecodeEmpty(t *testing.T) {
	records, err := Decode(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = Decode(strings.NewReader("0\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeMalformedHeader(t *testing.T) {
	for _, input := range []string{"\n", "three\n1345,John Curry,8,15,7,45\n", "-1\n"} {
		_, err := Decode(strings.NewReader(input), nil)
		assert.ErrorIs(t, err, db.ErrorMalformed, "input %q", input)
	}
}

func TestEncode(t *testing.T) {
	records := []student.Record{
		student.NewRecord(1345, "John Curry", [3]int{8, 15, 7}, 45),
		student.NewRecord(2345, "Sam Sturtivant", [3]int{14, 15, 14}, 77),
		student.NewRecord(8327, "Alan Shearer", [3]int{20, 20, 20}, 100),
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records))
	assert.Equal(t, sampleFile, buf.String())

	var empty bytes.Buffer
	require.NoError(t, Encode(&empty, nil))
	assert.Equal(t, "0\n", empty.String())
}

func TestSerializationIsIdempotent(t *testing.T) {
	input := "4\n1345,John Curry,8,15,7,45\nbroken\n9876, Lee Scott,17,11,16,99\n2983,Les Ferdinand,15,17,18,92\n"

	first, err := Decode(strings.NewReader(input), nil)
	require.NoError(t, err)

	var once bytes.Buffer
	require.NoError(t, Encode(&once, first))

	second, err := Decode(bytes.NewReader(once.Bytes()), nil)
	require.NoError(t, err)

	var twice bytes.Buffer
	require.NoError(t, Encode(&twice, second))

	assert.Equal(t, once.String(), twice.String())
	assert.Equal(t, first, second)
}

func TestFileReadMissing(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "missing.txt"), nil)
	_, err := f.Read()
	assert.ErrorIs(t, err, db.ErrorNotExist)
}

func TestFileReadUnreadable(t *testing.T) {
	// A directory cannot be read as a records file.
	f := New(t.TempDir(), nil)
	_, err := f.Read()
	assert.ErrorIs(t, err, db.ErrorIO)
	assert.NotErrorIs(t, err, db.ErrorNotExist)
}

func TestFileWriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resources", "studentMarks.txt")
	f := New(path, nil)
	assert.Equal(t, path, f.Path())

	records := student.SampleRecords()
	require.NoError(t, f.Write(records))

	got, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, records, got)

	// Overwrite with fewer records; the header must match the new body.
	require.NoError(t, f.Write(records[:2]))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "2\n"))
	assert.Equal(t, 3, strings.Count(string(content), "\n"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "studentMarks.txt", entries[0].Name())
}

func TestFileWriteFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studentMarks.txt")
	f := New(path, nil)
	require.NoError(t, f.Write(student.SampleRecords()[:1]))

	// Renaming over a non-empty directory fails.
	blocked := New(dir, nil)
	err := blocked.Write(student.SampleRecords())
	assert.ErrorIs(t, err, db.ErrorIO)

	got, err := f.Read()
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDecodeHugeCount(t *testing.T) {
	var records []student.Record
	var err error
	require.NotPanics(t, func() {
		records, err = Decode(strings.NewReader("999999999999\n1345,John Curry,8,15,7,45\n"), nil)
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1345, records[0].Code)
}

func TestDecodeSkipsOversizedLines(t *testing.T) {
	long := "2345," + strings.Repeat("x", 70000) + ",1,2,3,4"
	input := "3\n1345,John Curry,8,15,7,45\n" + long + "\n9876,Lee Scott,17,11,16,99"

	records, err := Decode(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1345, records[0].Code)
	assert.Equal(t, 9876, records[1].Code)

	// An oversized final line without a terminator is skipped too.
	records, err = Decode(strings.NewReader("2\n1345,John Curry,8,15,7,45\n"+long), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("short\n"+strings.Repeat("y", maxLineLength+1)+"\nlast"), 16)

	line, tooLong, err := readLine(br)
	require.NoError(t, err)
	assert.False(t, tooLong)
	assert.Equal(t, "short\n", line)

	line, tooLong, err = readLine(br)
	require.NoError(t, err)
	assert.True(t, tooLong)
	assert.Empty(t, line)

	line, tooLong, err = readLine(br)
	require.NoError(t, err)
	assert.False(t, tooLong)
	assert.Equal(t, "last", line)

	_, _, err = readLine(br)
	assert.ErrorIs(t, err, io.EOF)
}
