package source

import "strings"

// Categorizer proposes a category for a record that has none.
type Categorizer interface {
	Categorize(rec Record) (string, bool)
}

// Categorized fills in missing categories as records are read. Records that
// already carry a category pass through untouched.
type Categorized struct {
	inner    Source
	assign   Categorizer
	fallback string
}

// WithCategories wraps src. A record without a category gets the one proposed
// by c, or fallback when c is nil or has no proposal. fallback may be empty.
func WithCategories(src Source, c Categorizer, fallback string) *Categorized {
	return &Categorized{inner: src, assign: c, fallback: fallback}
}

func (s *Categorized) Next() (Record, error) {
	rec, err := s.inner.Next()
	if err != nil {
		return rec, err
	}
	if strings.TrimSpace(rec.Category) != "" {
		return rec, nil
	}

	if s.assign != nil {
		if category, ok := s.assign.Categorize(rec); ok {
			rec.Category = category
			return rec, nil
		}
	}
	rec.Category = s.fallback
	return rec, nil
}

// Discard forwards to the wrapped source when it supports it.
func (s *Categorized) Discard() error {
	if d, ok := s.inner.(Discarder); ok {
		return d.Discard()
	}
	return nil
}
