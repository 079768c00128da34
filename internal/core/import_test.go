package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/ProductImport/internal/csv"
)

const sampleFile = "Product Code,Product Name,Product Description,Stock,Cost in GBP,Discontinued\n" +
	"P0001,TV,32” Tv,10,399.99,\n" +
	"P0002,Cd Player,Nice CD player,11,50.12,yes\n" +
	"P0003,VCR,Top notch VCR,12,39.33,yes\n" +
	"P0004,Bluray Player,Watch it in HD,1,3.33,\n" +
	"P0005,XBOX360,Best.console.ever,5,30.44,\n" +
	"P0006,PS3,Mind your details,3,24.99,\n" +
	"P0007,24” Monitor,Awesome,5,35.99,\n" +
	"P0011,Misc Cables,error in export,12\n" +
	"P0015,Bluray Player,Excellent picture,32,$4.33,\n" +
	"P0017,CPU,Processing power,5,1200.33,\n"

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImporter_ImportFile_DryRun(t *testing.T) {
	path := writeTemp(t, "stock.csv", sampleFile)

	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true)
	if err != nil {
		t.Fatal(err)
	}

	var events int
	imp := NewImporter(p, WithProgress(func(RowEvent) { events++ }))

	summary, err := imp.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}

	if summary.Total != 10 {
		t.Errorf("Total = %d, want 10", summary.Total)
	}
	if events != summary.Total {
		t.Errorf("progress called %d times, want %d", events, summary.Total)
	}
	if !summary.DryRun {
		t.Error("DryRun = false, want true")
	}
	if summary.FileName != "stock.csv" {
		t.Errorf("FileName = %q, want %q", summary.FileName, "stock.csv")
	}
	if summary.RunID == "" {
		t.Error("RunID is empty")
	}

	// P0011 has no cost but enough stock.
	if summary.Successful != 7 {
		t.Errorf("Successful = %d, want 7", summary.Successful)
	}

	wantSkipped := []struct {
		line int
		code string
		kind ErrorKind
	}{
		{5, "P0004", KindRuleViolation},
		{10, "P0015", KindSchemaViolation},
		{11, "P0017", KindRuleViolation},
	}
	if summary.SkippedCount() != len(wantSkipped) {
		t.Fatalf("Skipped = %+v, want %d rows", summary.Skipped, len(wantSkipped))
	}
	for i, want := range wantSkipped {
		got := summary.Skipped[i]
		if got.Line != want.line || got.Code != want.code || got.Kind != want.kind {
			t.Errorf("Skipped[%d] = %+v, want line %d code %s kind %s", i, got, want.line, want.code, want.kind)
		}
	}
}

func TestImporter_ImportFile_Idempotent(t *testing.T) {
	path := writeTemp(t, "stock.csv", sampleFile)

	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true)
	if err != nil {
		t.Fatal(err)
	}
	imp := NewImporter(p)

	first, err := imp.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := imp.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	if first.Total != second.Total || first.Successful != second.Successful {
		t.Errorf("runs differ: %d/%d vs %d/%d", first.Total, first.Successful, second.Total, second.Successful)
	}
	for i := range first.Skipped {
		if first.Skipped[i] != second.Skipped[i] {
			t.Errorf("Skipped[%d] differs: %+v vs %+v", i, first.Skipped[i], second.Skipped[i])
		}
	}
	if first.RunID == second.RunID {
		t.Error("RunID should differ between runs")
	}
}

func TestImporter_ImportFile_Persists(t *testing.T) {
	path := writeTemp(t, "stock.csv", sampleFile)
	store := &fakeStore{failOn: map[string]error{"P0002": errors.New("duplicate key value")}}

	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := NewImporter(p).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Successful != 6 {
		t.Errorf("Successful = %d, want 6", summary.Successful)
	}
	if len(store.saved) != 6 {
		t.Errorf("saved %d products, want 6", len(store.saved))
	}
	if got := summary.Skipped[0]; got.Code != "P0002" || got.Kind != KindPersistenceError {
		t.Errorf("Skipped[0] = %+v, want P0002 persistence error", got)
	}
}

func TestImporter_ImportFile_HeaderOnly(t *testing.T) {
	path := writeTemp(t, "stock.csv", "Product Code,Product Name,Product Description,Stock,Cost in GBP,Discontinued\n")

	p, _ := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true)
	summary, err := NewImporter(p).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if summary.Total != 0 || summary.Successful != 0 || summary.SkippedCount() != 0 {
		t.Errorf("summary = %+v, want all zero", summary)
	}
}

func TestImporter_ImportFile_FatalErrors(t *testing.T) {
	p, _ := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), nil, true)

	tests := []struct {
		name    string
		path    string
		opts    csv.Options
		wantErr error
	}{
		{
			name:    "empty file",
			path:    writeTemp(t, "empty.csv", ""),
			wantErr: csv.ErrEmptyFile,
		},
		{
			name:    "too large",
			path:    writeTemp(t, "big.csv", sampleFile),
			opts:    csv.Options{MaxFileSize: 10},
			wantErr: csv.ErrFileTooLarge,
		},
		{
			name:    "unsupported",
			path:    writeTemp(t, "stock.pdf", "x"),
			wantErr: csv.ErrUnsupportedFormat,
		},
		{
			name:    "missing",
			path:    filepath.Join(t.TempDir(), "missing.csv"),
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := NewImporter(p, WithReadOptions(tt.opts))
			_, err := imp.ImportFile(context.Background(), tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ImportFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestImporter_ImportFile_InterruptedIsFatal(t *testing.T) {
	path := writeTemp(t, "stock.csv", sampleFile)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStore{}
	p, err := NewRowProcessor(NewProductSchema(), DefaultRuleEngine(), store, false)
	if err != nil {
		t.Fatal(err)
	}

	var events []RowEvent
	imp := NewImporter(p, WithProgress(func(ev RowEvent) {
		events = append(events, ev)
		if ev.Index == 1 {
			cancel()
		}
	}))

	summary, err := imp.ImportFile(ctx, path)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ImportFile() error = %v, want %v", err, context.Canceled)
	}
	if summary != nil {
		t.Errorf("ImportFile() summary = %+v, want nil", summary)
	}
	if got := MapError(err).Code; got != "RUN001" {
		t.Errorf("MapError().Code = %q, want RUN001", got)
	}

	if len(events) != 2 {
		t.Errorf("progress called %d times, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Outcome.Kind == KindPersistenceError {
			t.Errorf("row %d failed to persist after cancel: %q", ev.Index, ev.Outcome.Error)
		}
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d products, want 2", len(store.saved))
	}
}
