// pkg/decompose/strategies.go
package decompose

import (
	"fmt"
	"time"

	"github.com/taskora-ai/taskora/pkg/task"
)

// Strategy names a decomposition strategy. Dispatch is a plain switch
// over this tag; each arm is a pure function of the task inputs.
type Strategy string

const (
	StrategySingle      Strategy = "single"
	StrategySequential  Strategy = "sequential"
	StrategyParallel    Strategy = "parallel"
	StrategyConditional Strategy = "conditional"
)

// Per-stage duration estimates, carried over from observed behavior.
const (
	fetchDuration     = 20 * time.Second
	processDuration   = 15 * time.Second
	visualizeDuration = 10 * time.Second
	exportDuration    = 5 * time.Second
	mergeDuration     = 10 * time.Second
)

func decomposeWith(s Strategy, cls *task.Classification, params *task.Parameters, description string) []*Subtask {
	switch s {
	case StrategyParallel:
		return parallelSubtasks(cls, params, description)
	case StrategyConditional:
		// Reserved: behaves as sequential until conditional branches exist.
		return sequentialSubtasks(cls, params)
	default:
		return sequentialSubtasks(cls, params)
	}
}

// sequentialSubtasks emits a linear fetch -> process -> visualize ->
// export chain, including only stages whose triggering parameters are
// present. Each stage depends on the immediately preceding emitted one.
func sequentialSubtasks(cls *task.Classification, params *task.Parameters) []*Subtask {
	var subtasks []*Subtask
	counter := 1

	dependsOnLast := func() []string {
		if len(subtasks) == 0 {
			return nil
		}
		return []string{subtasks[len(subtasks)-1].ID}
	}

	if len(params.DataSources) > 0 {
		source := params.DataSources[0]
		primary := task.TypeWebScraping
		if source.Type != task.SourceURL {
			primary = task.TypeFileProcessing
		}
		subtasks = append(subtasks, &Subtask{
			ID:          fmt.Sprintf("fetch_%d", counter),
			Name:        "Data Fetching",
			Type:        SubtaskFetch,
			Description: fmt.Sprintf("Fetch data from %s", source.Location),
			Classification: task.Classification{
				PrimaryTask:    primary,
				Complexity:     task.ComplexitySimple,
				EstimatedSteps: 1,
				RequiresJS:     cls.RequiresJS,
				OutputFormat:   task.OutputJSON,
				Confidence:     0.9,
				Reasoning:      "data fetching subtask",
			},
			Parameters:        task.Parameters{DataSources: []task.DataSource{source}, URLs: params.URLs},
			Priority:          counter,
			EstimatedDuration: fetchDuration,
			Status:            SubtaskPending,
		})
		counter++
	}

	if len(params.Filters) > 0 || len(params.Aggregations) > 0 || len(params.Sorting) > 0 {
		subtasks = append(subtasks, &Subtask{
			ID:          fmt.Sprintf("process_%d", counter),
			Name:        "Data Processing",
			Type:        SubtaskProcess,
			Description: "Filter, transform, and aggregate data",
			Classification: task.Classification{
				PrimaryTask:    task.TypeDataTransformation,
				Complexity:     task.ComplexityMedium,
				EstimatedSteps: 1,
				OutputFormat:   task.OutputJSON,
				Confidence:     0.9,
				Reasoning:      "data processing subtask",
			},
			Parameters: task.Parameters{
				Filters:      params.Filters,
				Aggregations: params.Aggregations,
				Sorting:      params.Sorting,
				Columns:      params.Columns,
			},
			DependsOn:         dependsOnLast(),
			Priority:          counter,
			EstimatedDuration: processDuration,
			Status:            SubtaskPending,
		})
		counter++
	}

	if len(params.Visualizations) > 0 {
		subtasks = append(subtasks, &Subtask{
			ID:          fmt.Sprintf("visualize_%d", counter),
			Name:        "Visualization",
			Type:        SubtaskVisualize,
			Description: "Create charts and visualizations",
			Classification: task.Classification{
				PrimaryTask:    task.TypeVisualization,
				Complexity:     task.ComplexitySimple,
				EstimatedSteps: 1,
				OutputFormat:   task.OutputFile,
				Confidence:     0.9,
				Reasoning:      "visualization subtask",
			},
			Parameters:        task.Parameters{Visualizations: params.Visualizations},
			DependsOn:         dependsOnLast(),
			Priority:          counter,
			EstimatedDuration: visualizeDuration,
			Status:            SubtaskPending,
		})
		counter++
	}

	if params.Output != nil {
		subtasks = append(subtasks, &Subtask{
			ID:          fmt.Sprintf("export_%d", counter),
			Name:        "Export Results",
			Type:        SubtaskExport,
			Description: fmt.Sprintf("Export results as %s", params.Output.Format),
			Classification: task.Classification{
				PrimaryTask:    task.TypeFileProcessing,
				Complexity:     task.ComplexitySimple,
				EstimatedSteps: 1,
				OutputFormat:   cls.OutputFormat,
				Confidence:     0.9,
				Reasoning:      "export subtask",
			},
			Parameters:        task.Parameters{Output: params.Output},
			DependsOn:         dependsOnLast(),
			Priority:          counter,
			EstimatedDuration: exportDuration,
			Status:            SubtaskPending,
		})
	}

	return subtasks
}

// parallelSubtasks emits one independent, parallel-eligible fetch per
// data source plus a trailing merge depending on all of them. With
// fewer than two sources it falls back to the sequential strategy.
func parallelSubtasks(cls *task.Classification, params *task.Parameters, description string) []*Subtask {
	if len(params.DataSources) < 2 {
		return sequentialSubtasks(cls, params)
	}

	var subtasks []*Subtask
	for i, source := range params.DataSources {
		n := i + 1
		subtasks = append(subtasks, &Subtask{
			ID:          fmt.Sprintf("fetch_parallel_%d", n),
			Name:        fmt.Sprintf("Fetch Data Source %d", n),
			Type:        SubtaskFetch,
			Description: fmt.Sprintf("Fetch from %s", source.Location),
			Classification: task.Classification{
				PrimaryTask:    task.TypeWebScraping,
				Complexity:     task.ComplexitySimple,
				EstimatedSteps: 1,
				OutputFormat:   task.OutputJSON,
				Confidence:     0.9,
				Reasoning:      fmt.Sprintf("parallel fetch %d", n),
			},
			Parameters:        task.Parameters{DataSources: []task.DataSource{source}},
			Parallel:          true,
			Priority:          1,
			EstimatedDuration: fetchDuration,
			Status:            SubtaskPending,
		})
	}

	dependsOn := make([]string, len(subtasks))
	for i, st := range subtasks {
		dependsOn[i] = st.ID
	}

	subtasks = append(subtasks, &Subtask{
		ID:          "merge_results",
		Name:        "Merge Results",
		Type:        SubtaskTransform,
		Description: "Merge data from all sources",
		Classification: task.Classification{
			PrimaryTask:    task.TypeDataTransformation,
			Complexity:     task.ComplexitySimple,
			EstimatedSteps: 1,
			OutputFormat:   task.OutputJSON,
			Confidence:     0.9,
			Reasoning:      "merge parallel results",
		},
		Parameters:        task.Parameters{},
		DependsOn:         dependsOn,
		Priority:          2,
		EstimatedDuration: mergeDuration,
		Status:            SubtaskPending,
	})

	return subtasks
}
