package core

import (
	"fmt"
	"sort"
)

// Fallbacks used when listing skipped rows.
const (
	UnknownCode  = "Unknown"
	NoErrorText  = "-"
	headerOffset = 2 // header is line 1 and lines are 1-based
)

// SkippedRow is one line of the skipped-rows report.
type SkippedRow struct {
	Line  int
	Code  string
	Error string
	Kind  ErrorKind
}

type recordedOutcome struct {
	index   int
	code    string
	outcome RowOutcome
}

// ResultAggregator collects exactly one outcome per row position.
type ResultAggregator struct {
	entries []recordedOutcome
	seen    map[int]struct{}
}

// NewResultAggregator returns an empty aggregator.
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{seen: make(map[int]struct{})}
}

// Record stores the outcome for the row at rowIndex (0-based among data rows).
// code is the row's Product Code cell and may be empty.
// Recording the same index twice is an error; outcomes are never replaced.
func (a *ResultAggregator) Record(rowIndex int, code string, outcome RowOutcome) error {
	if rowIndex < 0 {
		return fmt.Errorf("record outcome: negative row index %d", rowIndex)
	}
	if _, dup := a.seen[rowIndex]; dup {
		return fmt.Errorf("record outcome: row %d already has an outcome", rowIndex)
	}
	a.seen[rowIndex] = struct{}{}
	a.entries = append(a.entries, recordedOutcome{index: rowIndex, code: code, outcome: outcome})
	return nil
}

// Outcome returns the recorded outcome for rowIndex.
func (a *ResultAggregator) Outcome(rowIndex int) (RowOutcome, bool) {
	for _, e := range a.entries {
		if e.index == rowIndex {
			return e.outcome, true
		}
	}
	return RowOutcome{}, false
}

// CountByStatus counts outcomes with the given status.
func (a *ResultAggregator) CountByStatus(status RowStatus) int {
	n := 0
	for _, e := range a.entries {
		if e.outcome.Status == status {
			n++
		}
	}
	return n
}

// Total is the number of processed rows.
func (a *ResultAggregator) Total() int {
	return len(a.entries)
}

// Successful is the number of rows accepted.
func (a *ResultAggregator) Successful() int {
	return a.CountByStatus(StatusSuccessful)
}

// SkippedRows lists skipped rows in original row order.
func (a *ResultAggregator) SkippedRows() []SkippedRow {
	var skipped []recordedOutcome
	for _, e := range a.entries {
		if e.outcome.Status == StatusSkipped {
			skipped = append(skipped, e)
		}
	}
	sort.SliceStable(skipped, func(i, j int) bool {
		return skipped[i].index < skipped[j].index
	})

	out := make([]SkippedRow, len(skipped))
	for i, e := range skipped {
		row := SkippedRow{
			Line:  e.index + headerOffset,
			Code:  e.code,
			Error: e.outcome.Error,
			Kind:  e.outcome.Kind,
		}
		if row.Code == "" {
			row.Code = UnknownCode
		}
		if row.Error == "" {
			row.Error = NoErrorText
		}
		out[i] = row
	}
	return out
}
