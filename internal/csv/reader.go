// Package csv reads product import files into a header and data records.
//
// Delimited text is parsed with encoding/csv; .xlsx workbooks are read from
// their first sheet with excelize. Both paths return the same File shape so the
// import pipeline does not care which one produced it.
package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyFile is returned when a file has no rows at all.
	ErrEmptyFile = errors.New("empty file")
	// ErrFileTooLarge is returned when a file exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFormat is returned for extensions other than csv, txt and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// DefaultMaxFileSize is used when Options.MaxFileSize is zero (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Options controls how a file is read.
type Options struct {
	MaxFileSize int64 // 0 means DefaultMaxFileSize
	Delimiter   rune  // 0 means ','
}

// File is a decoded tabular file.
type File struct {
	Name    string
	Header  []string
	Records [][]string // data rows, header excluded
}

// Load reads and decodes the file at path.
func Load(path string, opts Options) (*File, error) {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %s: is a directory", path)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrFileTooLarge, info.Size(), maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(filepath.Base(path), data, opts)
}

// Parse decodes file contents. name selects the format by extension.
func Parse(name string, data []byte, opts Options) (*File, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", "":
		records, err = parseDelimited(data, opts.Delimiter)
	case ".xlsx":
		records, err = parseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = CleanHeader(h)
	}

	return &File{
		Name:    name,
		Header:  header,
		Records: records[1:],
	}, nil
}

// CleanHeader trims whitespace and a stray BOM from a header cell.
func CleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}

func parseDelimited(data []byte, delim rune) ([][]string, error) {
	data = bytes.TrimPrefix(data, byteOrderMark)
	data = sanitizeUTF8(data)

	r := stdcsv.NewReader(bytes.NewReader(data))
	if delim != 0 {
		r.Comma = delim
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows from xlsx: %w", err)
	}
	return rows, nil
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
