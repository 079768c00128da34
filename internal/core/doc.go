// Package core provides the business logic for product imports.
//
// This package holds all domain logic independent of the CLI, the file format
// and the database. It can be driven by the command line, tests, or any other
// caller without modification.
//
// # Architecture
//
// A file is decoded into [RawRow] values (column name to cell text). Each row
// then moves through a small state machine owned by [RowProcessor]:
//
//	Received -> SchemaChecked -> RuleChecked -> PersistAttempted
//
// Any step may end the row as skipped. The steps are:
//
//   - Schema: a [SchemaValidator] checks presence and format of every column.
//     [ProductSchema] is the default implementation.
//   - Coercion: [BuildProduct] turns the validated row into a typed [Product].
//   - Rules: a [RuleEngine] evaluates every registered [Rule] and collects all
//     violations, not just the first.
//   - Persistence: a [Persister] saves the product unless the run is a dry run.
//
// Every row ends in exactly one [RowOutcome] recorded in a [ResultAggregator].
// A failure in one row never stops the next row from being processed.
//
// # Rules
//
// Rules are added to an engine in the order they should run:
//
//	engine := core.NewRuleEngine().
//	    AddRule(core.CostFrom5OrStockFrom10Rule{}).
//	    AddRule(core.CostLessOrEqual1000Rule{})
//
// [DefaultRuleEngine] returns the engine above.
//
// # Running an import
//
//	processor, err := core.NewRowProcessor(core.NewProductSchema(), core.DefaultRuleEngine(), store, dryRun)
//	if err != nil {
//	    return err
//	}
//	summary, err := core.NewImporter(processor).ImportFile(ctx, path)
//
// ImportFile only returns an error when the file itself cannot be read.
//
// # Error Handling
//
// Technical errors are mapped to user messages with support codes by
// [MapError]; see error_messages.go for the code reference.
package core
