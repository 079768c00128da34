package storage

// convert.go maps Product fields to pgtype values.
// All To* functions return Valid=false for empty or null input so the
// column is written as NULL.

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgNumeric converts a nullable decimal to pgtype.Numeric.
func ToPgNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{Valid: false}
	}
	var n pgtype.Numeric
	if err := n.Scan(d.Decimal.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgInt4 converts an int to pgtype.Int4. Zero is a valid value here.
// Values outside the INTEGER range are an error, never truncated.
func ToPgInt4(i int) (pgtype.Int4, error) {
	if i < math.MinInt32 || i > math.MaxInt32 {
		return pgtype.Int4{}, fmt.Errorf("value %d out of range for integer column", i)
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}, nil
}

// ToPgTimestamptz converts an optional time to pgtype.Timestamptz.
func ToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil || t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
