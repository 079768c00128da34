package core

// validation.go checks the structural shape of a row before a Product is built.
//
// The checks are declared as struct tags on productFields and run by
// go-playground/validator. Every failing field yields one Violation, in column
// order, so the error text for a row is stable for identical input.

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// costScale is the number of decimal places kept for Cost in GBP.
const costScale = 2

// SchemaValidator checks required fields and primitive shape of a raw row.
type SchemaValidator interface {
	Validate(row RawRow) []Violation
}

// productFields is the string projection of a row that the tags are checked against.
type productFields struct {
	Name         string `csv:"Product Name" validate:"required"`
	Description  string `csv:"Product Description" validate:"required"`
	Code         string `csv:"Product Code" validate:"required"`
	Stock        string `csv:"Stock" validate:"omitempty,nonneg_int"`
	Cost         string `csv:"Cost in GBP" validate:"omitempty,nonneg_decimal"`
	Discontinued string `csv:"Discontinued" validate:"omitempty,eq=yes"`
}

// ProductSchema validates rows of the product import file.
type ProductSchema struct {
	validate *validator.Validate
}

// NewProductSchema builds the validator with the custom numeric checks registered.
func NewProductSchema() *ProductSchema {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("csv")
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("nonneg_int", func(fl validator.FieldLevel) bool {
		_, err := parseNonNegInt(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("nonneg_decimal", func(fl validator.FieldLevel) bool {
		_, err := parseNonNegDecimal(fl.Field().String())
		return err == nil
	})
	return &ProductSchema{validate: v}
}

// Validate returns one violation per failing column; nil means the row is well formed.
func (s *ProductSchema) Validate(row RawRow) []Violation {
	fields := productFields{
		Name:         row.Value(ColName),
		Description:  row.Value(ColDescription),
		Code:         row.Value(ColCode),
		Stock:        row.Value(ColStock),
		Cost:         row.Value(ColCost),
		Discontinued: row.Value(ColDiscontinued),
	}

	err := s.validate.Struct(fields)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Message: err.Error()}}
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{
			Field:   fe.Field(),
			Message: violationMessage(row, fe),
		})
	}
	return out
}

func violationMessage(row RawRow, fe validator.FieldError) string {
	value := fmt.Sprint(fe.Value())
	switch fe.Tag() {
	case "required":
		if _, ok := row.Get(fe.Field()); !ok {
			return "missing required column"
		}
		return "required field is empty"
	case "nonneg_int":
		return fmt.Sprintf("invalid number %q: must be a non-negative integer up to %d", value, math.MaxInt32)
	case "nonneg_decimal":
		return fmt.Sprintf("invalid number %q: must be a non-negative amount with at most %d decimal places", value, costScale)
	case "eq":
		return fmt.Sprintf("invalid enum %q: must be blank or %q", value, fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// parseNonNegInt accepts values that fit the INTEGER stock column.
func parseNonNegInt(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative number %q", s)
	}
	return int(n), nil
}

func parseNonNegDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q", s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative number %q", s)
	}
	// The cost column stores pence; "5.000" is fine, "4.999" is not.
	if !d.Equal(d.Round(costScale)) {
		return decimal.Decimal{}, fmt.Errorf("too many decimal places %q", s)
	}
	return d, nil
}
