package core

// convert.go turns the text cells of a structurally valid row into Product fields.
//
// Coercions are explicit:
//   - Stock: absent or blank is 0, otherwise a non-negative integer
//   - Cost in GBP: absent or blank is null, otherwise a non-negative decimal
//   - Discontinued: absent or blank is false, "yes" is true, anything else is an error

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParseStock converts the Stock cell.
func ParseStock(raw string, present bool) (int, error) {
	if !present || raw == "" {
		return 0, nil
	}
	n, err := parseNonNegInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ColStock, err)
	}
	return n, nil
}

// ParseCost converts the Cost in GBP cell. A blank or absent cell is a null cost.
func ParseCost(raw string, present bool) (decimal.NullDecimal, error) {
	if !present || raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseNonNegDecimal(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", ColCost, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// ParseDiscontinued converts the Discontinued cell.
func ParseDiscontinued(raw string, present bool) (bool, error) {
	if !present || raw == "" {
		return false, nil
	}
	if raw != DiscontinuedMarker {
		return false, fmt.Errorf("%s: invalid enum %q", ColDiscontinued, raw)
	}
	return true, nil
}

// BuildProduct projects a row into a Product. now is the processing time and is
// used both as the added time and, for discontinued products, the discontinuation time.
func BuildProduct(row RawRow, now time.Time) (Product, error) {
	stock, err := ParseStock(row.Get(ColStock))
	if err != nil {
		return Product{}, err
	}
	cost, err := ParseCost(row.Get(ColCost))
	if err != nil {
		return Product{}, err
	}
	discontinued, err := ParseDiscontinued(row.Get(ColDiscontinued))
	if err != nil {
		return Product{}, err
	}

	p := Product{
		Name:         row.Value(ColName),
		Description:  row.Value(ColDescription),
		Code:         row.Value(ColCode),
		Stock:        stock,
		Cost:         cost,
		Discontinued: discontinued,
		AddedAt:      now,
	}
	if discontinued {
		at := now
		p.DiscontinuedAt = &at
	}
	return p, nil
}
