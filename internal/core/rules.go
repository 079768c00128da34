package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule is a business predicate over a candidate product. An empty result means pass.
// Implementations must not keep state between calls or modify the product.
type Rule interface {
	Name() string
	Evaluate(p Product) []Violation
}

var (
	minCost       = decimal.NewFromInt(5)
	maxCost       = decimal.NewFromInt(1000)
	minStockLevel = 10
)

// CostFrom5OrStockFrom10Rule requires cost >= 5 or stock >= 10.
// A product without a cost can only pass on stock.
type CostFrom5OrStockFrom10Rule struct{}

func (CostFrom5OrStockFrom10Rule) Name() string { return "CostFrom5OrStockFrom10" }

func (r CostFrom5OrStockFrom10Rule) Evaluate(p Product) []Violation {
	if p.Cost.Valid && p.Cost.Decimal.GreaterThanOrEqual(minCost) {
		return nil
	}
	if p.Stock >= minStockLevel {
		return nil
	}

	cost := "no cost"
	if p.Cost.Valid {
		cost = "cost " + p.Cost.Decimal.String()
	}
	return []Violation{{
		Rule: r.Name(),
		Message: fmt.Sprintf("%s is less than %s and stock %d is less than %d",
			cost, minCost, p.Stock, minStockLevel),
	}}
}

// CostLessOrEqual1000Rule rejects products costing more than 1000. No cost passes.
type CostLessOrEqual1000Rule struct{}

func (CostLessOrEqual1000Rule) Name() string { return "CostLessOrEqual1000" }

func (r CostLessOrEqual1000Rule) Evaluate(p Product) []Violation {
	if !p.Cost.Valid || p.Cost.Decimal.LessThanOrEqual(maxCost) {
		return nil
	}
	return []Violation{{
		Rule:    r.Name(),
		Message: fmt.Sprintf("cost %s is greater than %s", p.Cost.Decimal, maxCost),
	}}
}

// RuleEngine evaluates an ordered, fixed set of rules.
type RuleEngine struct {
	rules []Rule
}

// NewRuleEngine creates an engine with no rules.
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

// DefaultRuleEngine returns the engine used for product imports.
func DefaultRuleEngine() *RuleEngine {
	return NewRuleEngine().
		AddRule(CostFrom5OrStockFrom10Rule{}).
		AddRule(CostLessOrEqual1000Rule{})
}

// AddRule appends a rule and returns the engine for chaining.
// Rules must all be added before the first Validate call.
func (e *RuleEngine) AddRule(r Rule) *RuleEngine {
	e.rules = append(e.rules, r)
	return e
}

// Validate runs every rule in registration order and concatenates their violations.
func (e *RuleEngine) Validate(p Product) []Violation {
	var out []Violation
	for _, r := range e.rules {
		out = append(out, r.Evaluate(p)...)
	}
	return out
}

// RuleNames lists registered rules in order.
func (e *RuleEngine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}
