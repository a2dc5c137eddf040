// pkg/task/parameters.go
package task

// SourceType identifies where task data lives.
type SourceType string

const (
	SourceURL      SourceType = "url"
	SourceFile     SourceType = "file"
	SourceAPI      SourceType = "api"
	SourceDatabase SourceType = "database"
	SourceLocal    SourceType = "local"
)

// DataSource describes one place data must be pulled from.
type DataSource struct {
	Type        SourceType `json:"type" validate:"required,oneof=url file api database local"`
	Location    string     `json:"location" validate:"required"`
	Format      string     `json:"format,omitempty"`
	Description string     `json:"description,omitempty"`
}

// URLParameter carries per-URL overrides detected during extraction.
type URLParameter struct {
	URL          string `json:"url" validate:"required"`
	Purpose      string `json:"purpose,omitempty"`
	RequiresJS   bool   `json:"requires_javascript"`
	RequiresAuth bool   `json:"requires_authentication"`
}

// FilterOperator is a comparison operator in a filter condition.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpGreaterThan FilterOperator = "greater_than"
	OpLessThan    FilterOperator = "less_than"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "not_contains"
	OpStartsWith  FilterOperator = "starts_with"
	OpEndsWith    FilterOperator = "ends_with"
)

// FilterCondition is one row-level predicate to apply to sourced data.
type FilterCondition struct {
	Field       string         `json:"field" validate:"required"`
	Operator    FilterOperator `json:"operator" validate:"required"`
	Value       any            `json:"value"`
	Description string         `json:"description,omitempty"`
}

// ColumnSelection names a column or field the task cares about.
type ColumnSelection struct {
	Name     string `json:"name" validate:"required"`
	Alias    string `json:"alias,omitempty"`
	Required bool   `json:"required"`
}

// AggregateFunc enumerates supported aggregation functions.
type AggregateFunc string

const (
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggCount AggregateFunc = "count"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// AggregationSpec describes one aggregation to compute.
type AggregationSpec struct {
	Function    AggregateFunc `json:"function" validate:"required"`
	Field       string        `json:"field" validate:"required"`
	GroupBy     []string      `json:"group_by,omitempty"`
	Description string        `json:"description,omitempty"`
}

// SortSpec describes one sort key.
type SortSpec struct {
	Field string `json:"field" validate:"required"`
	Order string `json:"order" validate:"omitempty,oneof=ascending descending"`
}

// VisualizationRequest describes a requested chart or map.
type VisualizationRequest struct {
	Type      string `json:"type" validate:"required,oneof=chart graph map table plot"`
	ChartType string `json:"chart_type,omitempty"`
	XAxis     string `json:"x_axis,omitempty"`
	YAxis     string `json:"y_axis,omitempty"`
	Title     string `json:"title,omitempty"`
}

// OutputRequest describes the requested export.
type OutputRequest struct {
	Format   string `json:"format" validate:"required"`
	Filename string `json:"filename,omitempty"`
}

// Parameters is the complete set of structured parameters the external
// extractor pulled out of a task description.
type Parameters struct {
	DataSources    []DataSource           `json:"data_sources,omitempty" validate:"dive"`
	URLs           []URLParameter         `json:"urls,omitempty" validate:"dive"`
	Filters        []FilterCondition      `json:"filters,omitempty" validate:"dive"`
	Columns        []ColumnSelection      `json:"columns,omitempty" validate:"dive"`
	Aggregations   []AggregationSpec      `json:"aggregations,omitempty" validate:"dive"`
	Sorting        []SortSpec             `json:"sorting,omitempty" validate:"dive"`
	Visualizations []VisualizationRequest `json:"visualizations,omitempty" validate:"dive"`
	Output         *OutputRequest         `json:"output,omitempty"`

	ComplexityScore   float64  `json:"complexity_score" validate:"gte=0,lte=1"`
	EstimatedDuration int      `json:"estimated_execution_time"`
	Confidence        float64  `json:"confidence" validate:"gte=0,lte=1"`
	Notes             []string `json:"notes,omitempty"`
}
