package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Persister commits an accepted product. Each call is independent of the others.
type Persister interface {
	Save(ctx context.Context, p Product) error
}

// RowStage is a step of the per-row state machine.
type RowStage string

const (
	StageReceived         RowStage = "received"
	StageSchemaChecked    RowStage = "schema_checked"
	StageSchemaFailed     RowStage = "schema_failed"
	StageRuleChecked      RowStage = "rule_checked"
	StageRuleFailed       RowStage = "rule_failed"
	StagePersistAttempted RowStage = "persist_attempted"
)

// ErrNoPersister is returned when a non dry-run processor is built without a store.
var ErrNoPersister = errors.New("row processor: persister is required unless dry run")

// RowProcessor classifies rows one at a time: schema check, rule check, persist.
// A row failing any step is skipped and the next row is processed regardless.
type RowProcessor struct {
	schema      SchemaValidator
	rules       *RuleEngine
	store       Persister
	dryRun      bool
	now         func() time.Time
	saveTimeout time.Duration
}

// ProcessorOption configures a RowProcessor.
type ProcessorOption func(*RowProcessor)

// WithClock overrides the processing-time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *RowProcessor) { p.now = now }
}

// WithSaveTimeout bounds each persistence call. Zero means no bound beyond ctx.
func WithSaveTimeout(d time.Duration) ProcessorOption {
	return func(p *RowProcessor) { p.saveTimeout = d }
}

// NewRowProcessor wires the stages. store may be nil only when dryRun is true.
// A nil schema falls back to NewProductSchema and a nil rules to an empty engine.
func NewRowProcessor(schema SchemaValidator, rules *RuleEngine, store Persister, dryRun bool, opts ...ProcessorOption) (*RowProcessor, error) {
	if !dryRun && store == nil {
		return nil, ErrNoPersister
	}
	if schema == nil {
		schema = NewProductSchema()
	}
	if rules == nil {
		rules = NewRuleEngine()
	}
	p := &RowProcessor{
		schema: schema,
		rules:  rules,
		store:  store,
		dryRun: dryRun,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DryRun reports whether persistence is skipped.
func (p *RowProcessor) DryRun() bool {
	return p.dryRun
}

// Process runs one row to its terminal outcome and reports the last stage reached.
func (p *RowProcessor) Process(ctx context.Context, row RawRow) (RowOutcome, RowStage) {
	// Received -> SchemaChecked
	if vs := p.schema.Validate(row); len(vs) > 0 {
		return Skipped(KindSchemaViolation, JoinViolations(vs)), StageSchemaFailed
	}

	// SchemaChecked -> RuleChecked
	product, err := BuildProduct(row, p.now())
	if err != nil {
		return Skipped(KindSchemaViolation, err.Error()), StageSchemaFailed
	}
	if vs := p.rules.Validate(product); len(vs) > 0 {
		return Skipped(KindRuleViolation, JoinViolations(vs)), StageRuleFailed
	}

	if p.dryRun {
		return Successful(), StageRuleChecked
	}

	// RuleChecked -> PersistAttempted
	if err := p.save(ctx, product); err != nil {
		return Skipped(KindPersistenceError, err.Error()), StagePersistAttempted
	}
	return Successful(), StagePersistAttempted
}

// save is not cut short by cancellation of ctx; a started row always finishes.
func (p *RowProcessor) save(ctx context.Context, product Product) error {
	ctx = context.WithoutCancel(ctx)
	if p.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.saveTimeout)
		defer cancel()
	}
	return p.store.Save(ctx, product)
}

// Run processes rows in order and records every outcome. progress may be nil.
// Cancellation of ctx is checked between rows: the run stops and returns the
// outcomes recorded so far together with an error wrapping ctx.Err().
func (p *RowProcessor) Run(ctx context.Context, rows []RawRow, progress ProgressCallback) (*ResultAggregator, error) {
	agg := NewResultAggregator()
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return agg, fmt.Errorf("import interrupted after %d of %d rows: %w", i, len(rows), err)
		}
		outcome, stage := p.Process(ctx, row)
		code := row.Value(ColCode)
		if err := agg.Record(i, code, outcome); err != nil {
			return agg, err
		}
		if progress != nil {
			progress(RowEvent{Index: i, Code: code, Outcome: outcome, Stage: stage})
		}
	}
	return agg, nil
}
