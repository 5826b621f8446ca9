package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// csvFields is the column layout: title,type,value,category.
const csvFields = 4

// CSVSource streams records from CSV data whose first row is a header.
type CSVSource struct {
	reader     *csv.Reader
	headerRead bool
}

// NewCSVSource reads CSV from r.
func NewCSVSource(r io.Reader) *CSVSource {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = csvFields
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	return &CSVSource{reader: reader}
}

// Next returns the next data row. A row with the wrong number of columns or
// broken quoting makes the whole stream invalid.
func (s *CSVSource) Next() (Record, error) {
	if !s.headerRead {
		s.headerRead = true
		if _, err := s.read(); err != nil {
			return Record{}, err
		}
	}

	fields, err := s.read()
	if err != nil {
		return Record{}, err
	}

	line, _ := s.reader.FieldPos(0)
	return Record{
		Title:    strings.TrimSpace(fields[0]),
		Type:     strings.TrimSpace(fields[1]),
		Value:    strings.TrimSpace(fields[2]),
		Category: strings.TrimSpace(fields[3]),
		Line:     line,
	}, nil
}

func (s *CSVSource) read() ([]string, error) {
	fields, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return nil, &common.ValidationError{
			Field:  fmt.Sprintf("csv line %d", parseErr.Line),
			Reason: parseErr.Err.Error(),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return fields, nil
}

// FileSource is a CSVSource backed by a file on disk.
type FileSource struct {
	*CSVSource
	file   *os.File
	path   string
	once   sync.Once
	closed error
}

// CSVFile opens path as a CSV source. Discard closes and deletes the file.
func CSVFile(path string) (*FileSource, error) {
	f, err := os.Open(path) // #nosec G304 - path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	return &FileSource{
		CSVSource: NewCSVSource(f),
		file:      f,
		path:      path,
	}, nil
}

// Path returns the file backing the source.
func (s *FileSource) Path() string {
	return s.path
}

// Close closes the underlying file. It is safe to call more than once.
func (s *FileSource) Close() error {
	s.once.Do(func() {
		s.closed = s.file.Close()
	})
	return s.closed
}

// Discard closes the file and removes it from disk.
func (s *FileSource) Discard() error {
	_ = s.Close()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove import file: %w", err)
	}
	return nil
}
