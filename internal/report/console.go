// Package report renders import results for the operator.
package report

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/ProductImport/internal/core"
)

// Progress markers written once per processed row.
const (
	MarkSuccessful = "."
	MarkSkipped    = "S"
)

// Progress prints one marker per row as rows are processed.
type Progress struct {
	w     io.Writer
	count int
}

// NewProgress writes markers to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// Row is a core.ProgressCallback.
func (p *Progress) Row(ev core.RowEvent) {
	mark := MarkSuccessful
	if ev.Outcome.Status == core.StatusSkipped {
		mark = MarkSkipped
	}
	fmt.Fprint(p.w, mark)
	p.count++
}

// Count is the number of markers written so far.
func (p *Progress) Count() int {
	return p.count
}

// Finish ends the marker line if anything was written.
func (p *Progress) Finish() {
	if p.count > 0 {
		fmt.Fprintln(p.w)
	}
}

// WriteSummary prints the totals and the list of skipped rows.
func WriteSummary(w io.Writer, s *core.Summary) error {
	if s.DryRun {
		if _, err := fmt.Fprintln(w, "Test mode: no products were saved"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Processed: %d\nSuccessful: %d\nSkipped: %d\n",
		s.Total, s.Successful, s.SkippedCount()); err != nil {
		return err
	}
	if s.SkippedCount() == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "Skipped rows:"); err != nil {
		return err
	}
	for _, row := range s.Skipped {
		if _, err := fmt.Fprintln(w, SkippedLine(row)); err != nil {
			return err
		}
	}
	return nil
}

// SkippedLine formats one skipped row.
func SkippedLine(row core.SkippedRow) string {
	return fmt.Sprintf("Line %d with the code '%s': %s", row.Line, row.Code, row.Error)
}
