package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/spice-ledger/internal/source"
)

// ProgressSource wraps a source and advances a spinner for every record read.
// Discard is forwarded when the wrapped source supports it.
type ProgressSource struct {
	inner source.Source
	bar   *progressbar.ProgressBar
	count int
}

// NewProgressSource creates a spinner on w labeled description.
func NewProgressSource(inner source.Source, w io.Writer, description string) *ProgressSource {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", description)),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &ProgressSource{inner: inner, bar: bar}
}

// Next reads from the wrapped source.
func (p *ProgressSource) Next() (source.Record, error) {
	rec, err := p.inner.Next()
	if errors.Is(err, io.EOF) {
		if ferr := p.bar.Finish(); ferr != nil {
			slog.Warn("Failed to finish progress bar", "error", ferr)
		}
		return rec, err
	}
	if err != nil {
		return rec, err
	}

	p.count++
	if aerr := p.bar.Add(1); aerr != nil {
		slog.Warn("Failed to update progress bar", "error", aerr)
	}
	return rec, nil
}

// Count returns the number of records read so far.
func (p *ProgressSource) Count() int {
	return p.count
}

// Discard forwards to the wrapped source.
func (p *ProgressSource) Discard() error {
	if d, ok := p.inner.(source.Discarder); ok {
		return d.Discard()
	}
	return nil
}
