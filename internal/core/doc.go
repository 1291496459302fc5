// Package core implements the cleaning operations applied to a loaded table.
//
// Every operation takes a *table.Table and, except for [TransformTypes],
// returns a new table and leaves its input untouched:
//
//   - [DetectMissing] counts nulls per column.
//   - [Clean] drops duplicate rows and nulls out a sentinel such as -999.
//   - [FillMissing] imputes one column with its mean, median or last value.
//   - [Filter] keeps the rows that satisfy every [Condition].
//   - [TransformTypes] coerces columns to datetime, numeric, category or text.
//   - [CreateBins] labels a numeric column by interval.
//   - [SummarizeByGroup] reduces the table to one row per group.
//
// # Errors
//
// Referencing a column that does not exist fails with an error wrapping
// [table.ErrNotFound]. Malformed arguments (unknown operator, strategy or
// aggregation names, bad bin edges) wrap [table.ErrInvalidArgument].
// [MapError] turns either into a coded message for API clients.
//
// # Wire forms
//
// [FilterSpec], [BinSpec] and the Parse* functions accept the names used in
// JSON requests and pipeline files, for example:
//
//	conds, err := core.ParseFilters([]core.FilterSpec{
//	    {Column: "age", Condition: "in_range", Value: []any{18, 65}},
//	    {Column: "site", Operator: "in_list", Value: []any{"A", "B"}},
//	})
package core
