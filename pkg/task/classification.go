// pkg/task/classification.go
// Package task defines the shared data model for classified tasks and the
// structured parameters extracted from them. These types cross the boundary
// to the external classification and extraction services.
package task

// Type enumerates the kinds of work a task can ask for.
type Type string

const (
	TypeWebScraping         Type = "web_scraping"
	TypeAPICall             Type = "api_call"
	TypeDataCleaning        Type = "data_cleaning"
	TypeDataTransformation  Type = "data_transformation"
	TypeStatisticalAnalysis Type = "statistical_analysis"
	TypeTextProcessing      Type = "text_processing"
	TypeVisualization       Type = "visualization"
	TypeFileProcessing      Type = "file_processing"
	TypeUnknown             Type = "unknown"
)

// Complexity is the classifier's estimate of how involved a task is.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// OutputFormat is the desired shape of the final result.
type OutputFormat string

const (
	OutputText    OutputFormat = "text"
	OutputJSON    OutputFormat = "json"
	OutputCSV     OutputFormat = "csv"
	OutputExcel   OutputFormat = "excel"
	OutputChart   OutputFormat = "chart"
	OutputHTML    OutputFormat = "html"
	OutputFile    OutputFormat = "file"
	OutputUnknown OutputFormat = "unknown"
)

// Classification is the structured output of the external task classifier.
type Classification struct {
	PrimaryTask    Type         `json:"primary_task" validate:"required"`
	SecondaryTasks []Type       `json:"secondary_tasks,omitempty"`
	Complexity     Complexity   `json:"complexity" validate:"required,oneof=simple medium complex"`
	EstimatedSteps int          `json:"estimated_steps" validate:"gte=1,lte=20"`
	RequiresJS     bool         `json:"requires_javascript"`
	RequiresAuth   bool         `json:"requires_authentication"`
	RequiresData   bool         `json:"requires_external_data"`
	OutputFormat   OutputFormat `json:"output_format"`
	Confidence     float64      `json:"confidence" validate:"gte=0,lte=1"`
	Reasoning      string       `json:"reasoning,omitempty"`
}
