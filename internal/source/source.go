// Package source provides the record streams consumed by the import pipeline.
package source

import (
	"io"
)

// Record is one raw import row. Fields are trimmed but otherwise unvalidated.
type Record struct {
	Title    string
	Type     string
	Value    string
	Category string
	Line     int
}

// Source yields records until it returns io.EOF.
type Source interface {
	Next() (Record, error)
}

// Discarder is implemented by sources backed by a temporary artifact that
// should be removed once its records are committed.
type Discarder interface {
	Discard() error
}

// Slice is an in-memory Source.
type Slice struct {
	records []Record
	pos     int
}

// FromRecords returns a Source over records. Zero Line numbers are replaced by
// the record's position, starting at 1.
func FromRecords(records ...Record) *Slice {
	out := make([]Record, len(records))
	for i, r := range records {
		if r.Line == 0 {
			r.Line = i + 1
		}
		out[i] = r
	}
	return &Slice{records: out}
}

func (s *Slice) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}
