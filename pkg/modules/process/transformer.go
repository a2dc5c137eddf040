// pkg/modules/process/transformer.go
// Package process implements the processing module family. The
// transformer applies filters, column projection, aggregations, and
// sorting to tabular data produced by a sourcing step.
package process

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskora-ai/taskora/pkg/engine"
)

// Transformer is the stock processing module.
type Transformer struct {
	logger zerolog.Logger
}

// NewTransformer creates the processing module.
func NewTransformer() *Transformer {
	return &Transformer{
		logger: log.With().Str("component", "module.transformer").Logger(),
	}
}

func (m *Transformer) Name() string                      { return "transformer" }
func (m *Transformer) Type() engine.ModuleType           { return engine.ProcessorModuleType }
func (m *Transformer) Capabilities() engine.Capability   { return engine.DataTransformerCapability }
func (m *Transformer) Init(ctx context.Context) error    { return nil }
func (m *Transformer) Cleanup(ctx context.Context) error { return nil }

// Execute transforms the previous step's rows. Input comes from
// shared["last_result"]; the step parameters carry the filter,
// aggregation, sorting, and column specs shaped by the router.
func (m *Transformer) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	rows, err := rowsFrom(shared["last_result"])
	if err != nil {
		return nil, fmt.Errorf("transformer: %w", err)
	}
	inputCount := len(rows)

	rows = applyFilters(rows, params["filters"])
	rows = projectColumns(rows, params["columns"])

	aggregated := false
	if specs := cast.ToSlice(params["aggregations"]); len(specs) > 0 {
		rows = aggregate(rows, specs)
		aggregated = true
	}

	rows = applySorting(rows, params["sorting"])

	return &engine.Result{
		Success: true,
		Data:    rows,
		Metadata: map[string]any{
			"input_rows":  inputCount,
			"output_rows": len(rows),
			"aggregated":  aggregated,
		},
	}, nil
}

// rowsFrom coerces upstream data into a row slice. Accepted shapes are
// a row slice, a generic slice of maps, or a map holding one of those
// under a conventional key.
func rowsFrom(data any) ([]map[string]any, error) {
	switch v := data.(type) {
	case nil:
		return nil, fmt.Errorf("no input data from previous step")
	case []map[string]any:
		return v, nil
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			row, err := cast.ToStringMapE(item)
			if err != nil {
				return nil, fmt.Errorf("input row is not an object: %w", err)
			}
			rows = append(rows, row)
		}
		return rows, nil
	case map[string]any:
		for _, key := range []string{"rows", "data", "items", "results"} {
			if inner, ok := v[key]; ok {
				return rowsFrom(inner)
			}
		}
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("unsupported input type %T", data)
	}
}

func applyFilters(rows []map[string]any, rawFilters any) []map[string]any {
	filters := cast.ToSlice(rawFilters)
	if len(filters) == 0 {
		return rows
	}

	out := rows[:0:0]
	for _, row := range rows {
		keep := true
		for _, rawFilter := range filters {
			f := cast.ToStringMap(rawFilter)
			if !matches(row, cast.ToString(f["field"]), cast.ToString(f["operator"]), f["value"]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func matches(row map[string]any, field, operator string, value any) bool {
	actual, ok := row[field]
	if !ok {
		return false
	}

	switch operator {
	case "equals":
		return cast.ToString(actual) == cast.ToString(value)
	case "not_equals":
		return cast.ToString(actual) != cast.ToString(value)
	case "greater_than", "less_than":
		a, errA := cast.ToFloat64E(actual)
		b, errB := cast.ToFloat64E(value)
		if errA != nil || errB != nil {
			return false
		}
		if operator == "greater_than" {
			return a > b
		}
		return a < b
	case "contains":
		return strings.Contains(cast.ToString(actual), cast.ToString(value))
	case "not_contains":
		return !strings.Contains(cast.ToString(actual), cast.ToString(value))
	case "starts_with":
		return strings.HasPrefix(cast.ToString(actual), cast.ToString(value))
	case "ends_with":
		return strings.HasSuffix(cast.ToString(actual), cast.ToString(value))
	default:
		return false
	}
}

func projectColumns(rows []map[string]any, rawColumns any) []map[string]any {
	columns := cast.ToStringSlice(rawColumns)
	if len(columns) == 0 {
		return rows
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		projected := make(map[string]any, len(columns))
		for _, col := range columns {
			if v, ok := row[col]; ok {
				projected[col] = v
			}
		}
		out[i] = projected
	}
	return out
}

// aggregate computes each spec over the rows, grouped when group_by
// fields are present. The output is one row per group per spec, with
// the value under "<function>_<field>".
func aggregate(rows []map[string]any, specs []any) []map[string]any {
	var out []map[string]any

	for _, rawSpec := range specs {
		spec := cast.ToStringMap(rawSpec)
		fn := cast.ToString(spec["function"])
		field := cast.ToString(spec["field"])
		groupBy := cast.ToStringSlice(spec["group_by"])

		groups := make(map[string][]map[string]any)
		var order []string
		for _, row := range rows {
			key := groupKey(row, groupBy)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], row)
		}

		for _, key := range order {
			group := groups[key]
			result := make(map[string]any)
			for _, g := range groupBy {
				if len(group) > 0 {
					result[g] = group[0][g]
				}
			}
			result[fn+"_"+field] = aggregateValue(fn, field, group)
			out = append(out, result)
		}
	}

	return out
}

func groupKey(row map[string]any, groupBy []string) string {
	if len(groupBy) == 0 {
		return ""
	}
	parts := make([]string, len(groupBy))
	for i, g := range groupBy {
		parts[i] = cast.ToString(row[g])
	}
	return strings.Join(parts, "\x00")
}

func aggregateValue(fn, field string, group []map[string]any) any {
	if fn == "count" {
		return len(group)
	}

	var values []float64
	for _, row := range group {
		if v, err := cast.ToFloat64E(row[field]); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	switch fn {
	case "sum":
		return sum(values)
	case "avg":
		return sum(values) / float64(len(values))
	case "min":
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case "max":
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	default:
		return nil
	}
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func applySorting(rows []map[string]any, rawSorting any) []map[string]any {
	sorting := cast.ToSlice(rawSorting)
	if len(sorting) == 0 {
		return rows
	}

	sorted := make([]map[string]any, len(rows))
	copy(sorted, rows)

	// Later keys are subordinate: stable-sort from the last key to the
	// first so the first key dominates.
	for i := len(sorting) - 1; i >= 0; i-- {
		s := cast.ToStringMap(sorting[i])
		field := cast.ToString(s["field"])
		descending := cast.ToString(s["order"]) == "descending"

		sort.SliceStable(sorted, func(a, b int) bool {
			less := lessValue(sorted[a][field], sorted[b][field])
			if descending {
				return !less && !equalValue(sorted[a][field], sorted[b][field])
			}
			return less
		})
	}

	return sorted
}

func lessValue(a, b any) bool {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return cast.ToString(a) < cast.ToString(b)
}

func equalValue(a, b any) bool {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return fa == fb
	}
	return cast.ToString(a) == cast.ToString(b)
}
