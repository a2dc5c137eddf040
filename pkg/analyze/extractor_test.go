// pkg/analyze/extractor_test.go
package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskora-ai/taskora/pkg/task"
)

func classificationFor(t *testing.T, content string) *task.Classification {
	t.Helper()
	cls, err := NewClassifier().Classify(context.Background(), content)
	require.NoError(t, err)
	return cls
}

func TestExtractDataSources(t *testing.T) {
	e := NewExtractor()

	content := "scrape https://shop.example.com/products.json and https://other.example.com/list,"
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)

	require.Len(t, params.DataSources, 2)
	assert.Equal(t, "https://shop.example.com/products.json", params.DataSources[0].Location)
	assert.Equal(t, "json", params.DataSources[0].Format)
	// Trailing punctuation never belongs to the URL.
	assert.Equal(t, "https://other.example.com/list", params.DataSources[1].Location)
	assert.Equal(t, "html", params.DataSources[1].Format)

	require.Len(t, params.URLs, 2)
	assert.NoError(t, params.Validate())
}

func TestExtractURLsInheritJSFlag(t *testing.T) {
	e := NewExtractor()

	content := "scrape the dynamic page at https://app.example.com"
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)

	require.Len(t, params.URLs, 1)
	assert.True(t, params.URLs[0].RequiresJS)
}

func TestExtractFilters(t *testing.T) {
	e := NewExtractor()

	content := `list products from https://shop.example.com where price greater than 100 ` +
		`and rows containing "sale"`
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)

	require.Len(t, params.Filters, 2)

	assert.Equal(t, "price", params.Filters[0].Field)
	assert.Equal(t, task.OpGreaterThan, params.Filters[0].Operator)
	assert.Equal(t, 100.0, params.Filters[0].Value)

	assert.Equal(t, "text", params.Filters[1].Field)
	assert.Equal(t, task.OpContains, params.Filters[1].Operator)
	assert.Equal(t, "sale", params.Filters[1].Value)
}

func TestExtractFilterLessThanVariants(t *testing.T) {
	e := NewExtractor()

	for _, phrase := range []string{"less than", "under", "below"} {
		content := "items from https://a.example.com with price " + phrase + " 9.5"
		params, err := e.Extract(context.Background(), content, classificationFor(t, content))
		require.NoError(t, err)
		require.Lenf(t, params.Filters, 1, "phrase %q", phrase)
		assert.Equal(t, task.OpLessThan, params.Filters[0].Operator)
		assert.Equal(t, 9.5, params.Filters[0].Value)
	}
}

func TestExtractAggregationsWithGroupBy(t *testing.T) {
	e := NewExtractor()

	content := "from https://a.example.com compute the average price per category"
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)

	require.Len(t, params.Aggregations, 1)
	agg := params.Aggregations[0]
	assert.Equal(t, task.AggAvg, agg.Function)
	assert.Equal(t, "price", agg.Field)
	assert.Equal(t, []string{"category"}, agg.GroupBy)
}

func TestExtractAggregateFunctions(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		content string
		fn      task.AggregateFunc
		field   string
	}{
		{"sum of revenue", task.AggSum, "revenue"},
		{"total sales", task.AggSum, "sales"},
		{"count of orders", task.AggCount, "orders"},
		{"minimum price", task.AggMin, "price"},
		{"max temperature", task.AggMax, "temperature"},
	}

	for _, tt := range tests {
		params, err := e.Extract(context.Background(), tt.content, classificationFor(t, tt.content))
		require.NoError(t, err)
		require.Lenf(t, params.Aggregations, 1, "content %q", tt.content)
		assert.Equal(t, tt.fn, params.Aggregations[0].Function)
		assert.Equal(t, tt.field, params.Aggregations[0].Field)
	}
}

func TestExtractSorting(t *testing.T) {
	e := NewExtractor()

	content := "list items from https://a.example.com sorted by price descending"
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)

	require.Len(t, params.Sorting, 1)
	assert.Equal(t, "price", params.Sorting[0].Field)
	assert.Equal(t, "descending", params.Sorting[0].Order)

	// Without an explicit direction, ascending is assumed.
	content = "list items from https://a.example.com sorted by name"
	params, err = e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)
	require.Len(t, params.Sorting, 1)
	assert.Equal(t, "ascending", params.Sorting[0].Order)
}

func TestExtractVisualizations(t *testing.T) {
	e := NewExtractor()

	content := "make a pie chart of market share from https://a.example.com"
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)

	require.Len(t, params.Visualizations, 1)
	assert.Equal(t, "chart", params.Visualizations[0].Type)
	assert.Equal(t, "pie", params.Visualizations[0].ChartType)

	// A generic chart request defaults to a bar chart.
	content = "plot the results from https://a.example.com"
	params, err = e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)
	require.Len(t, params.Visualizations, 1)
	assert.Equal(t, "bar", params.Visualizations[0].ChartType)

	content = "show every store from https://a.example.com on a map"
	params, err = e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)
	require.Len(t, params.Visualizations, 1)
	assert.Equal(t, "map", params.Visualizations[0].Type)
}

func TestExtractOutput(t *testing.T) {
	e := NewExtractor()

	content := "scrape https://a.example.com and export as csv"
	params, err := e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)
	require.NotNil(t, params.Output)
	assert.Equal(t, "csv", params.Output.Format)

	content = "scrape https://a.example.com"
	params, err = e.Extract(context.Background(), content, classificationFor(t, content))
	require.NoError(t, err)
	assert.Nil(t, params.Output)
}

func TestParameterComplexityAndDuration(t *testing.T) {
	empty := &task.Parameters{}
	assert.Equal(t, 0.0, parameterComplexity(empty))
	assert.Equal(t, 20, estimateDuration(empty))

	full := &task.Parameters{
		DataSources:    []task.DataSource{{}, {}, {}},
		Filters:        []task.FilterCondition{{}, {}, {}},
		Aggregations:   []task.AggregationSpec{{}, {}, {}},
		Visualizations: []task.VisualizationRequest{{}, {}},
		Output:         &task.OutputRequest{Format: "csv"},
	}
	assert.Equal(t, 1.0, parameterComplexity(full))
	// 3 sources at 20s each, plus processing, visualization, and export.
	assert.Equal(t, 90, estimateDuration(full))
}
