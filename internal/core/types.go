package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column names of the product import file. They must match the header exactly.
const (
	ColName         = "Product Name"
	ColDescription  = "Product Description"
	ColCode         = "Product Code"
	ColStock        = "Stock"
	ColCost         = "Cost in GBP"
	ColDiscontinued = "Discontinued"
)

// Columns lists the expected header in file order.
var Columns = []string{ColName, ColDescription, ColCode, ColStock, ColCost, ColDiscontinued}

// DiscontinuedMarker is the only non-blank value accepted in the Discontinued column.
const DiscontinuedMarker = "yes"

// RawRow is one decoded data line: column name to cell value, in header order.
// A column the line has no cell for is absent, which is distinct from a blank cell.
type RawRow struct {
	columns []string
	values  map[string]string
}

// NewRawRow pairs header names with cells. Cells beyond the header are dropped,
// header columns beyond the cells are absent. Cell values are trimmed.
func NewRawRow(header, cells []string) RawRow {
	row := RawRow{
		columns: make([]string, 0, len(header)),
		values:  make(map[string]string, len(header)),
	}
	for i, name := range header {
		if i >= len(cells) {
			break
		}
		if _, dup := row.values[name]; dup {
			continue
		}
		row.columns = append(row.columns, name)
		row.values[name] = strings.TrimSpace(cells[i])
	}
	return row
}

// NewRawRows converts decoded records into rows sharing one header.
func NewRawRows(header []string, records [][]string) []RawRow {
	rows := make([]RawRow, len(records))
	for i, rec := range records {
		rows[i] = NewRawRow(header, rec)
	}
	return rows
}

// Get returns the cell for column and whether the column is present on this row.
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the cell for column, or "" when absent.
func (r RawRow) Value(column string) string {
	return r.values[column]
}

// Columns returns the present column names in header order.
func (r RawRow) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Product is the typed candidate record built from a structurally valid row.
type Product struct {
	Name           string
	Description    string
	Code           string
	Stock          int
	Cost           decimal.NullDecimal // Valid=false when the cost cell is blank or absent
	Discontinued   bool
	DiscontinuedAt *time.Time // processing time when Discontinued, never taken from input
	AddedAt        time.Time
}

// Violation is a single reason a row or product failed a check.
// Field is set for structural failures, Rule for business rule failures.
type Violation struct {
	Field   string
	Rule    string
	Message string
}

func (v Violation) String() string {
	switch {
	case v.Field != "":
		return v.Field + ": " + v.Message
	case v.Rule != "":
		return v.Rule + ": " + v.Message
	default:
		return v.Message
	}
}

// JoinViolations renders violations one per line.
func JoinViolations(vs []Violation) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\n")
}

// RowStatus is the terminal classification of a row.
type RowStatus string

const (
	StatusSuccessful RowStatus = "successful"
	StatusSkipped    RowStatus = "skipped"
)

// ErrorKind says which stage rejected a skipped row.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindSchemaViolation  ErrorKind = "schema_violation"
	KindRuleViolation    ErrorKind = "rule_violation"
	KindPersistenceError ErrorKind = "persistence_error"
)

// RowOutcome is the immutable result for one row.
type RowOutcome struct {
	Status RowStatus
	Kind   ErrorKind
	Error  string // empty for successful rows
}

// Successful returns the outcome of an accepted row.
func Successful() RowOutcome {
	return RowOutcome{Status: StatusSuccessful}
}

// Skipped returns the outcome of a rejected row.
func Skipped(kind ErrorKind, msg string) RowOutcome {
	return RowOutcome{Status: StatusSkipped, Kind: kind, Error: msg}
}

// RowEvent describes one processed row.
type RowEvent struct {
	Index   int    // 0-based position among data rows
	Code    string // Product Code cell, empty when absent
	Outcome RowOutcome
	Stage   RowStage // last stage reached
}

// ProgressCallback is called once per processed row, in row order.
type ProgressCallback func(ev RowEvent)
