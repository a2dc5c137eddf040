// pkg/modules/process/transformer_test.go
package process

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRows() []map[string]any {
	return []map[string]any{
		{"name": "keyboard", "category": "accessories", "price": 45.0},
		{"name": "monitor", "category": "displays", "price": 220.0},
		{"name": "mouse", "category": "accessories", "price": 25.0},
		{"name": "webcam", "category": "accessories", "price": 80.0},
	}
}

func execute(t *testing.T, params map[string]any, input any) []map[string]any {
	t.Helper()
	result, err := NewTransformer().Execute(context.Background(), params, map[string]any{"last_result": input})
	require.NoError(t, err)
	require.True(t, result.Success)
	rows, ok := result.Data.([]map[string]any)
	require.True(t, ok, "Data is %T", result.Data)
	return rows
}

func TestTransformerRequiresUpstreamData(t *testing.T) {
	_, err := NewTransformer().Execute(context.Background(), nil, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input data")
}

func TestTransformerFilters(t *testing.T) {
	rows := execute(t, map[string]any{
		"filters": []any{
			map[string]any{"field": "price", "operator": "greater_than", "value": 40},
			map[string]any{"field": "category", "operator": "equals", "value": "accessories"},
		},
	}, productRows())

	require.Len(t, rows, 2)
	assert.Equal(t, "keyboard", rows[0]["name"])
	assert.Equal(t, "webcam", rows[1]["name"])
}

func TestTransformerStringOperators(t *testing.T) {
	tests := []struct {
		operator string
		value    any
		want     []string
	}{
		{"contains", "o", []string{"monitor", "mouse"}},
		{"not_contains", "o", []string{"keyboard", "webcam"}},
		{"starts_with", "m", []string{"monitor", "mouse"}},
		{"ends_with", "m", []string{"webcam"}},
		{"not_equals", "mouse", []string{"keyboard", "monitor", "webcam"}},
	}

	for _, tt := range tests {
		rows := execute(t, map[string]any{
			"filters": []any{
				map[string]any{"field": "name", "operator": tt.operator, "value": tt.value},
			},
		}, productRows())

		var names []string
		for _, row := range rows {
			names = append(names, row["name"].(string))
		}
		assert.Equalf(t, tt.want, names, "operator %s", tt.operator)
	}
}

func TestTransformerFilterMissingFieldDropsRow(t *testing.T) {
	rows := execute(t, map[string]any{
		"filters": []any{
			map[string]any{"field": "absent", "operator": "equals", "value": "x"},
		},
	}, productRows())
	assert.Empty(t, rows)
}

func TestTransformerColumnProjection(t *testing.T) {
	rows := execute(t, map[string]any{
		"columns": []any{"name", "price"},
	}, productRows())

	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Len(t, row, 2)
		assert.Contains(t, row, "name")
		assert.NotContains(t, row, "category")
	}
}

func TestTransformerAggregationGrouped(t *testing.T) {
	rows := execute(t, map[string]any{
		"aggregations": []any{
			map[string]any{"function": "avg", "field": "price", "group_by": []any{"category"}},
		},
	}, productRows())

	// Groups keep first-seen order: accessories before displays.
	require.Len(t, rows, 2)
	assert.Equal(t, "accessories", rows[0]["category"])
	assert.InDelta(t, 50.0, rows[0]["avg_price"].(float64), 0.001)
	assert.Equal(t, "displays", rows[1]["category"])
	assert.InDelta(t, 220.0, rows[1]["avg_price"].(float64), 0.001)
}

func TestTransformerAggregationUngrouped(t *testing.T) {
	tests := []struct {
		fn   string
		key  string
		want any
	}{
		{"sum", "sum_price", 370.0},
		{"min", "min_price", 25.0},
		{"max", "max_price", 220.0},
		{"count", "count_price", 4},
	}

	for _, tt := range tests {
		rows := execute(t, map[string]any{
			"aggregations": []any{
				map[string]any{"function": tt.fn, "field": "price"},
			},
		}, productRows())
		require.Lenf(t, rows, 1, "function %s", tt.fn)
		assert.Equalf(t, tt.want, rows[0][tt.key], "function %s", tt.fn)
	}
}

func TestTransformerSorting(t *testing.T) {
	rows := execute(t, map[string]any{
		"sorting": []any{
			map[string]any{"field": "price", "order": "descending"},
		},
	}, productRows())

	require.Len(t, rows, 4)
	assert.Equal(t, "monitor", rows[0]["name"])
	assert.Equal(t, "mouse", rows[3]["name"])
}

func TestTransformerMultiKeySort(t *testing.T) {
	rows := execute(t, map[string]any{
		"sorting": []any{
			map[string]any{"field": "category", "order": "ascending"},
			map[string]any{"field": "price", "order": "descending"},
		},
	}, productRows())

	var names []string
	for _, row := range rows {
		names = append(names, row["name"].(string))
	}
	assert.Equal(t, []string{"webcam", "keyboard", "mouse", "monitor"}, names)
}

func TestTransformerPipelineOrder(t *testing.T) {
	// Filter, then aggregate over the surviving rows.
	rows := execute(t, map[string]any{
		"filters": []any{
			map[string]any{"field": "category", "operator": "equals", "value": "accessories"},
		},
		"aggregations": []any{
			map[string]any{"function": "count", "field": "name"},
		},
	}, productRows())

	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0]["count_name"])
}

func TestRowsFromCoercions(t *testing.T) {
	direct, err := rowsFrom([]map[string]any{{"a": 1}})
	require.NoError(t, err)
	assert.Len(t, direct, 1)

	generic, err := rowsFrom([]any{map[string]any{"a": 1}, map[string]any{"a": 2}})
	require.NoError(t, err)
	assert.Len(t, generic, 2)

	wrapped, err := rowsFrom(map[string]any{"rows": []any{map[string]any{"a": 1}}})
	require.NoError(t, err)
	assert.Len(t, wrapped, 1)

	// A plain object becomes a single row.
	single, err := rowsFrom(map[string]any{"a": 1})
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, 1, single[0]["a"])

	_, err = rowsFrom("not rows")
	require.Error(t, err)

	_, err = rowsFrom([]any{"not an object"})
	require.Error(t, err)
}
