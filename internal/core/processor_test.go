package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeStore records saved products and fails for configured codes.
type fakeStore struct {
	saved  []Product
	failOn map[string]error
}

func (s *fakeStore) Save(ctx context.Context, p Product) error {
	if err := s.failOn[p.Code]; err != nil {
		return err
	}
	s.saved = append(s.saved, p)
	return nil
}

// countingRule counts Evaluate calls and never fails.
type countingRule struct {
	calls *int
}

func (r countingRule) Name() string { return "counting" }

func (r countingRule) Evaluate(Product) []Violation {
	*r.calls++
	return nil
}

// schemaFunc adapts a function to SchemaValidator.
type schemaFunc func(RawRow) []Violation

func (f schemaFunc) Validate(r RawRow) []Violation { return f(r) }

func TestNewRowProcessor_RequiresStore(t *testing.T) {
	if _, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, false); !errors.Is(err, ErrNoPersister) {
		t.Errorf("NewRowProcessor() error = %v, want %v", err, ErrNoPersister)
	}
	if _, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true); err != nil {
		t.Errorf("NewRowProcessor(dry run) error = %v, want nil", err)
	}
}

func TestNewRowProcessor_NilSchemaUsesProductSchema(t *testing.T) {
	p, err := NewRowProcessor(nil, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}

	outcome, stage := p.Process(context.Background(), row("", "32 inch", "P0001", "10", "10", ""))
	if outcome.Kind != KindSchemaViolation || stage != StageSchemaFailed {
		t.Errorf("Process() = %+v at %q, want schema violation", outcome, stage)
	}
	if outcome, _ := p.Process(context.Background(), row("TV", "32 inch", "P0001", "10", "10", "")); outcome.Status != StatusSuccessful {
		t.Errorf("Process(valid row) = %+v, want successful", outcome)
	}
}

func TestRowProcessor_Process(t *testing.T) {
	tests := []struct {
		name      string
		row       RawRow
		wantKind  ErrorKind
		wantStage RowStage
	}{
		{
			name:      "accepted",
			row:       row("TV", "32 inch", "P0001", "10", "399.99", ""),
			wantKind:  KindNone,
			wantStage: StagePersistAttempted,
		},
		{
			name:      "schema failure",
			row:       row("", "32 inch", "P0002", "10", "399.99", ""),
			wantKind:  KindSchemaViolation,
			wantStage: StageSchemaFailed,
		},
		{
			name:      "cheap and low stock",
			row:       row("Cable", "1m", "P0003", "2", "3.00", ""),
			wantKind:  KindRuleViolation,
			wantStage: StageRuleFailed,
		},
		{
			name:      "too expensive",
			row:       row("Piano", "grand", "P0004", "50", "2000", ""),
			wantKind:  KindRuleViolation,
			wantStage: StageRuleFailed,
		},
		{
			name:      "no cost enough stock",
			row:       row("Gift", "free", "P0005", "10", "", ""),
			wantKind:  KindNone,
			wantStage: StagePersistAttempted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
			if err != nil {
				t.Fatal(err)
			}

			outcome, stage := p.Process(context.Background(), tt.row)

			if outcome.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q (error %q)", outcome.Kind, tt.wantKind, outcome.Error)
			}
			if stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", stage, tt.wantStage)
			}
			wantSaved := 0
			if tt.wantKind == KindNone {
				wantSaved = 1
				if outcome.Status != StatusSuccessful || outcome.Error != "" {
					t.Errorf("outcome = %+v, want successful with no error", outcome)
				}
			} else if outcome.Status != StatusSkipped || outcome.Error == "" {
				t.Errorf("outcome = %+v, want skipped with error text", outcome)
			}
			if len(store.saved) != wantSaved {
				t.Errorf("saved %d products, want %d", len(store.saved), wantSaved)
			}
		})
	}
}

func TestRowProcessor_SchemaFailureSkipsRules(t *testing.T) {
	calls := 0
	engine := NewRuleEngine().AddRule(countingRule{calls: &calls})
	store := &fakeStore{}
	p, err := NewRowProcessor(NewProductSchema(), engine, store, false)
	if err != nil {
		t.Fatal(err)
	}

	p.Process(context.Background(), row("", "", ""))

	if calls != 0 {
		t.Errorf("rule evaluated %d times for schema-failed row, want 0", calls)
	}
	if len(store.saved) != 0 {
		t.Errorf("saved %d products, want 0", len(store.saved))
	}

	p.Process(context.Background(), row("TV", "32 inch", "P0001"))
	if calls != 1 {
		t.Errorf("rule evaluated %d times for valid row, want 1", calls)
	}
}

func TestRowProcessor_RuleFailureSkipsPersist(t *testing.T) {
	store := &fakeStore{}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	outcome, _ := p.Process(context.Background(), row("Cable", "1m", "P0003", "1", "1", ""))
	if outcome.Kind != KindRuleViolation {
		t.Fatalf("Kind = %q, want %q", outcome.Kind, KindRuleViolation)
	}
	if len(store.saved) != 0 {
		t.Errorf("persist called for rule-failed row")
	}
}

func TestRowProcessor_PersistenceErrorText(t *testing.T) {
	store := &fakeStore{failOn: map[string]error{
		"P0002": errors.New("duplicate key value violates unique constraint"),
	}}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	outcome, stage := p.Process(context.Background(), row("TV", "32 inch", "P0002", "10", "10", ""))

	if outcome.Kind != KindPersistenceError {
		t.Errorf("Kind = %q, want %q", outcome.Kind, KindPersistenceError)
	}
	if outcome.Error != "duplicate key value violates unique constraint" {
		t.Errorf("Error = %q, want the store error text", outcome.Error)
	}
	if stage != StagePersistAttempted {
		t.Errorf("stage = %q, want %q", stage, StagePersistAttempted)
	}
}

func TestRowProcessor_DryRun(t *testing.T) {
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true)
	if err != nil {
		t.Fatal(err)
	}

	outcome, stage := p.Process(context.Background(), row("TV", "32 inch", "P0001", "10", "399.99", ""))
	if outcome.Status != StatusSuccessful {
		t.Errorf("Status = %q, want %q", outcome.Status, StatusSuccessful)
	}
	if stage != StageRuleChecked {
		t.Errorf("stage = %q, want %q", stage, StageRuleChecked)
	}
	if !p.DryRun() {
		t.Error("DryRun() = false, want true")
	}
}

func TestRowProcessor_DryRunMatchesRealRunClassification(t *testing.T) {
	rows := []RawRow{
		row("TV", "32 inch", "P0001", "10", "399.99", ""),
		row("", "x", "P0002", "10", "10", ""),
		row("Cable", "1m", "P0003", "1", "1", ""),
		row("Piano", "grand", "P0004", "50", "1500", ""),
		row("Gift", "free", "P0005", "12", "", "yes"),
	}

	dry, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true)
	if err != nil {
		t.Fatal(err)
	}
	live, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), &fakeStore{}, false)
	if err != nil {
		t.Fatal(err)
	}

	dryAgg, err := dry.Run(context.Background(), rows, nil)
	if err != nil {
		t.Fatal(err)
	}
	realAgg, err := live.Run(context.Background(), rows, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := range rows {
		d, _ := dryAgg.Outcome(i)
		r, _ := realAgg.Outcome(i)
		if d != r {
			t.Errorf("row %d: dry run %+v, real run %+v", i, d, r)
		}
	}
}

func TestRowProcessor_DiscontinuedAtIsProcessingTime(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &fakeStore{}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}

	p.Process(context.Background(), row("TV", "32 inch", "P0001", "10", "10", "yes"))
	p.Process(context.Background(), row("Radio", "FM", "P0002", "10", "10", ""))

	if len(store.saved) != 2 {
		t.Fatalf("saved %d products, want 2", len(store.saved))
	}
	if at := store.saved[0].DiscontinuedAt; at == nil || !at.Equal(now) {
		t.Errorf("DiscontinuedAt = %v, want %v", at, now)
	}
	if at := store.saved[1].DiscontinuedAt; at != nil {
		t.Errorf("DiscontinuedAt = %v, want nil", at)
	}
}

func TestRowProcessor_SaveTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	store := persistFunc(func(ctx context.Context, p Product) error {
		deadline, hasDeadline = ctx.Deadline()
		return nil
	})
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false, WithSaveTimeout(time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	p.Process(context.Background(), row("TV", "32 inch", "P0001", "10", "10", ""))

	if !hasDeadline {
		t.Fatal("Save context has no deadline")
	}
	if time.Until(deadline) > time.Minute {
		t.Errorf("deadline %v is further away than the save timeout", deadline)
	}
}

func TestRowProcessor_Run(t *testing.T) {
	store := &fakeStore{failOn: map[string]error{"P0003": errors.New("connection reset by peer")}}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	rows := []RawRow{
		row("TV", "32 inch", "P0001", "10", "399.99", ""),
		row("", "x", "", "10", "10", ""),
		row("Radio", "FM", "P0003", "10", "10", ""),
		row("Lamp", "LED", "P0004", "10", "10", ""),
	}

	var events []RowEvent
	agg, err := p.Run(context.Background(), rows, func(ev RowEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if agg.Total() != len(rows) {
		t.Errorf("Total() = %d, want %d", agg.Total(), len(rows))
	}
	if agg.Successful() != 2 {
		t.Errorf("Successful() = %d, want 2", agg.Successful())
	}
	if len(events) != len(rows) {
		t.Fatalf("progress called %d times, want %d", len(events), len(rows))
	}
	for i, ev := range events {
		if ev.Index != i {
			t.Errorf("event %d Index = %d", i, ev.Index)
		}
	}

	// A persistence failure does not stop the following row.
	if got := store.saved[len(store.saved)-1].Code; got != "P0004" {
		t.Errorf("last saved code = %q, want %q", got, "P0004")
	}

	skipped := agg.SkippedRows()
	if len(skipped) != 2 {
		t.Fatalf("len(SkippedRows()) = %d, want 2", len(skipped))
	}
	if skipped[0].Line != 3 || skipped[0].Code != UnknownCode {
		t.Errorf("skipped[0] = %+v, want line 3 with unknown code", skipped[0])
	}
	if skipped[1].Line != 4 || !strings.Contains(skipped[1].Error, "connection reset") {
		t.Errorf("skipped[1] = %+v, want line 4 with persistence error", skipped[1])
	}
}

func TestRowProcessor_CustomSchema(t *testing.T) {
	schema := schemaFunc(func(r RawRow) []Violation {
		if r.Value(ColCode) == "BAD" {
			return []Violation{{Field: ColCode, Message: "rejected"}}
		}
		return nil
	})
	p, err := NewRowProcessor(schema, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}

	outcome, _ := p.Process(context.Background(), row("n", "d", "BAD"))
	if outcome.Error != "Product Code: rejected" {
		t.Errorf("Error = %q, want %q", outcome.Error, "Product Code: rejected")
	}

	outcome, _ = p.Process(context.Background(), row("n", "d", "OK", "0", "0"))
	if outcome.Status != StatusSuccessful {
		t.Errorf("nil rule engine should accept everything, got %+v", outcome)
	}
}

type persistFunc func(ctx context.Context, p Product) error

func (f persistFunc) Save(ctx context.Context, p Product) error { return f(ctx, p) }

func TestRowProcessor_RunStopsBetweenRowsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var saveErrs []error
	store := persistFunc(func(ctx context.Context, p Product) error {
		// Cancel while the first row is being saved.
		cancel()
		saveErrs = append(saveErrs, ctx.Err())
		return nil
	})
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	rows := []RawRow{
		row("TV", "32 inch", "P0001", "10", "10", ""),
		row("Radio", "FM", "P0002", "10", "10", ""),
		row("Lamp", "LED", "P0003", "10", "10", ""),
	}
	agg, err := p.Run(ctx, rows, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want %v", err, context.Canceled)
	}

	if len(saveErrs) != 1 || saveErrs[0] != nil {
		t.Errorf("save context errors = %v, want one uncancelled save", saveErrs)
	}
	if agg.Total() != 1 || agg.Successful() != 1 {
		t.Errorf("Total() = %d, Successful() = %d, want 1 and 1", agg.Total(), agg.Successful())
	}
	for _, s := range agg.SkippedRows() {
		if strings.Contains(s.Error, "context canceled") {
			t.Errorf("row skipped because of cancellation: %+v", s)
		}
	}
}

func TestRowProcessor_RunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	agg, err := p.Run(ctx, []RawRow{row("TV", "32 inch", "P0001", "10", "10", "")}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
	if agg.Total() != 0 || len(store.saved) != 0 {
		t.Errorf("Total() = %d, saved = %d, want nothing processed", agg.Total(), len(store.saved))
	}
}

func TestRowProcessor_CostBeyondStoredPrecisionIsSkipped(t *testing.T) {
	store := &fakeStore{}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	// 4.999 would round to 5.00 in the cost column and pass the minimum cost rule.
	outcome, stage := p.Process(context.Background(), row("TV", "32 inch", "P0001", "9", "4.999", ""))
	if outcome.Kind != KindSchemaViolation || stage != StageSchemaFailed {
		t.Errorf("Process() = %+v at %q, want schema violation", outcome, stage)
	}
	if len(store.saved) != 0 {
		t.Errorf("saved %d products, want 0", len(store.saved))
	}
}
