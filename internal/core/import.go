package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/ProductImport/internal/csv"
	"github.com/JonMunkholm/ProductImport/internal/logging"
	"github.com/google/uuid"
)

// Summary is the result of one import run.
type Summary struct {
	RunID      string
	FileName   string
	DryRun     bool
	Total      int
	Successful int
	Skipped    []SkippedRow
	StartedAt  time.Time
	Duration   time.Duration
}

// SkippedCount is the number of rows not imported.
func (s *Summary) SkippedCount() int {
	return len(s.Skipped)
}

// Importer reads a product file and feeds every data row through a RowProcessor.
type Importer struct {
	processor *RowProcessor
	opts      csv.Options
	progress  ProgressCallback
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithReadOptions sets the file reader options.
func WithReadOptions(opts csv.Options) ImporterOption {
	return func(i *Importer) { i.opts = opts }
}

// WithProgress registers a per-row callback, called in row order.
func WithProgress(fn ProgressCallback) ImporterOption {
	return func(i *Importer) { i.progress = fn }
}

// NewImporter creates an importer around processor.
func NewImporter(processor *RowProcessor, opts ...ImporterOption) *Importer {
	imp := &Importer{processor: processor}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// ImportFile imports the file at path. An error is returned when the file
// cannot be read or ctx is cancelled mid-run; rejected rows are reported in
// the Summary.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	start := time.Now()
	logger.Info("import started", "path", path, "dry_run", imp.processor.DryRun())

	file, err := csv.Load(path, imp.opts)
	if err != nil {
		logger.Error("import failed", "path", path, "error", err, "error_code", MapError(err).Code)
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	rows := NewRawRows(file.Header, file.Records)
	agg, err := imp.processor.Run(ctx, rows, func(ev RowEvent) {
		if ev.Outcome.Status == StatusSkipped {
			logging.WithFields(ctx,
				"line", ev.Index+headerOffset,
				"code", ev.Code,
				"stage", ev.Stage,
				"kind", ev.Outcome.Kind,
			).Debug("row skipped",
				"error", ev.Outcome.Error,
				"error_code", MapErrorText(ev.Outcome.Error).Code,
			)
		}
		if imp.progress != nil {
			imp.progress(ev)
		}
	})
	if err != nil {
		logger.Error("import failed",
			"path", path,
			"processed", agg.Total(),
			"error", err,
			"error_code", MapError(err).Code,
		)
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	summary := &Summary{
		RunID:      runID,
		FileName:   file.Name,
		DryRun:     imp.processor.DryRun(),
		Total:      agg.Total(),
		Successful: agg.Successful(),
		Skipped:    agg.SkippedRows(),
		StartedAt:  start,
		Duration:   time.Since(start),
	}

	logger.Info("import finished",
		"file", summary.FileName,
		"processed", summary.Total,
		"successful", summary.Successful,
		"skipped", summary.SkippedCount(),
		"duration", summary.Duration,
	)
	return summary, nil
}
