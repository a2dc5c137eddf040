// pkg/analyze/extractor.go
package analyze

import (
	"context"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/task"
)

var (
	comparisonPattern = regexp.MustCompile(`(?i)(?:where|with|whose)\s+(\w+)\s+(greater than|more than|over|above|less than|under|below)\s+(\d+(?:\.\d+)?)`)
	containsPattern   = regexp.MustCompile(`(?i)containing\s+"([^"]+)"`)
	aggregatePattern  = regexp.MustCompile(`(?i)\b(average|avg|mean|sum|total|count|minimum|min|maximum|max)\s+(?:of\s+|number\s+of\s+)?(\w+)`)
	groupByPattern    = regexp.MustCompile(`(?i)\b(?:group(?:ed)?\s+by|per|for each)\s+(\w+)`)
	sortPattern       = regexp.MustCompile(`(?i)\bsort(?:ed)?\s+by\s+(\w+)(?:\s+(ascending|descending))?`)
	chartPattern      = regexp.MustCompile(`(?i)\b(bar|line|pie|scatter)\s*(?:chart|graph|plot)`)
)

// Extractor is a pattern-driven parameter extractor implementing
// engine.ParameterExtractor.
type Extractor struct {
	logger zerolog.Logger
}

// NewExtractor creates a rule-based parameter extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		logger: log.With().Str("component", "ParameterExtractor").Logger(),
	}
}

// Extract pulls structured parameters out of the task text, guided by
// the classification.
func (e *Extractor) Extract(ctx context.Context, content string, cls *task.Classification) (*task.Parameters, error) {
	lower := strings.ToLower(content)

	params := &task.Parameters{
		Confidence: 0.6,
	}

	for _, raw := range urlPattern.FindAllString(content, -1) {
		u := strings.TrimRight(raw, ".,;")
		params.DataSources = append(params.DataSources, task.DataSource{
			Type:     task.SourceURL,
			Location: u,
			Format:   formatForURL(u),
		})
		params.URLs = append(params.URLs, task.URLParameter{
			URL:        u,
			RequiresJS: cls.RequiresJS,
		})
	}

	params.Filters = extractFilters(content)
	params.Aggregations = extractAggregations(content)
	params.Sorting = extractSorting(content)
	params.Visualizations = extractVisualizations(content, lower)
	params.Output = extractOutput(lower, cls)

	params.ComplexityScore = parameterComplexity(params)
	params.EstimatedDuration = estimateDuration(params)

	e.logger.Debug().
		Int("sources", len(params.DataSources)).
		Int("filters", len(params.Filters)).
		Int("aggregations", len(params.Aggregations)).
		Int("visualizations", len(params.Visualizations)).
		Msg("parameters extracted")

	return params, nil
}

func extractFilters(content string) []task.FilterCondition {
	var filters []task.FilterCondition

	for _, m := range comparisonPattern.FindAllStringSubmatch(content, -1) {
		op := task.OpGreaterThan
		switch strings.ToLower(m[2]) {
		case "less than", "under", "below":
			op = task.OpLessThan
		}
		value, _ := strconv.ParseFloat(m[3], 64)
		filters = append(filters, task.FilterCondition{
			Field:    strings.ToLower(m[1]),
			Operator: op,
			Value:    value,
		})
	}

	for _, m := range containsPattern.FindAllStringSubmatch(content, -1) {
		filters = append(filters, task.FilterCondition{
			Field:    "text",
			Operator: task.OpContains,
			Value:    m[1],
		})
	}

	return filters
}

func extractAggregations(content string) []task.AggregationSpec {
	var aggs []task.AggregationSpec

	var groupBy []string
	for _, m := range groupByPattern.FindAllStringSubmatch(content, -1) {
		groupBy = append(groupBy, strings.ToLower(m[1]))
	}

	for _, m := range aggregatePattern.FindAllStringSubmatch(content, -1) {
		fn := task.AggCount
		switch strings.ToLower(m[1]) {
		case "average", "avg", "mean":
			fn = task.AggAvg
		case "sum", "total":
			fn = task.AggSum
		case "minimum", "min":
			fn = task.AggMin
		case "maximum", "max":
			fn = task.AggMax
		}
		aggs = append(aggs, task.AggregationSpec{
			Function: fn,
			Field:    strings.ToLower(m[2]),
			GroupBy:  groupBy,
		})
	}

	return aggs
}

func extractSorting(content string) []task.SortSpec {
	var sorts []task.SortSpec
	for _, m := range sortPattern.FindAllStringSubmatch(content, -1) {
		order := "ascending"
		if strings.EqualFold(m[2], "descending") {
			order = "descending"
		}
		sorts = append(sorts, task.SortSpec{
			Field: strings.ToLower(m[1]),
			Order: order,
		})
	}
	return sorts
}

func extractVisualizations(content, lower string) []task.VisualizationRequest {
	var viz []task.VisualizationRequest

	if m := chartPattern.FindStringSubmatch(content); m != nil {
		viz = append(viz, task.VisualizationRequest{
			Type:      "chart",
			ChartType: strings.ToLower(m[1]),
		})
	} else if containsAny(lower, "chart", "graph", "plot") {
		viz = append(viz, task.VisualizationRequest{
			Type:      "chart",
			ChartType: "bar",
		})
	}

	if containsAny(lower, "map of", "on a map", "plot locations") {
		viz = append(viz, task.VisualizationRequest{Type: "map"})
	}

	return viz
}

func extractOutput(lower string, cls *task.Classification) *task.OutputRequest {
	switch {
	case containsAny(lower, "as csv", "to csv", "csv file"):
		return &task.OutputRequest{Format: "csv"}
	case containsAny(lower, "excel", "xlsx"):
		return &task.OutputRequest{Format: "excel"}
	case containsAny(lower, "as json", "to json", "json file"):
		return &task.OutputRequest{Format: "json"}
	case cls.OutputFormat == task.OutputCSV:
		return &task.OutputRequest{Format: "csv"}
	case cls.OutputFormat == task.OutputJSON:
		return &task.OutputRequest{Format: "json"}
	default:
		return nil
	}
}

func formatForURL(u string) string {
	switch strings.ToLower(path.Ext(u)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	case ".xml":
		return "xml"
	default:
		return "html"
	}
}

// parameterComplexity saturates each aspect and averages, keeping the
// score within [0, 1].
func parameterComplexity(p *task.Parameters) float64 {
	aspects := []float64{
		math.Min(1.0, float64(len(p.DataSources))/3.0),
		math.Min(1.0, float64(len(p.Filters))/3.0),
		math.Min(1.0, float64(len(p.Aggregations))/3.0),
		math.Min(1.0, float64(len(p.Visualizations))/2.0),
	}
	var sum float64
	for _, a := range aspects {
		sum += a
	}
	return math.Round(sum/float64(len(aspects))*100) / 100
}

// estimateDuration is a seconds estimate derived from the stage
// durations used by the decomposer.
func estimateDuration(p *task.Parameters) int {
	seconds := 20 * len(p.DataSources)
	if len(p.Filters) > 0 || len(p.Aggregations) > 0 || len(p.Sorting) > 0 {
		seconds += 15
	}
	if len(p.Visualizations) > 0 {
		seconds += 10
	}
	if p.Output != nil {
		seconds += 5
	}
	if seconds == 0 {
		seconds = 20
	}
	return seconds
}
