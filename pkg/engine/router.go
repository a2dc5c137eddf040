// pkg/engine/router.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/task"
)

// StepOutcome summarizes one executed step for the result envelope.
type StepOutcome struct {
	Step     int           `json:"step"`
	Module   string        `json:"module"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"execution_time,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// ExecutionResult is the final outcome of routing and executing one
// task (or one subtask) through a linear plan.
type ExecutionResult struct {
	TaskID  string `json:"task_id"`
	Success bool   `json:"success"`

	Data any `json:"data,omitempty"`

	StepsCompleted int           `json:"steps_completed"`
	TotalSteps     int           `json:"total_steps"`
	Duration       time.Duration `json:"execution_time"`

	StepResults []StepOutcome `json:"step_results,omitempty"`
	Errors      []string      `json:"errors,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Router turns a selected module sequence into a linear ExecutionPlan
// and runs it step by step with fail-fast semantics. It handles single
// and linear multi-step tasks; branching lives in the decomposer.
type Router struct {
	registry *Registry
	selector *Selector
	executor *Executor
	logger   zerolog.Logger
}

// NewRouter creates a Router over the given registry, selector, and
// executor.
func NewRouter(registry *Registry, selector *Selector, executor *Executor) *Router {
	return &Router{
		registry: registry,
		selector: selector,
		executor: executor,
		logger:   log.With().Str("component", "Router").Logger(),
	}
}

// RouteAndExecute selects modules for the task, builds a plan, and
// executes it. An empty selection yields a failed result mentioning
// ErrNoModules; it is not an error return.
func (r *Router) RouteAndExecute(ctx context.Context, cls *task.Classification, params *task.Parameters, description string) *ExecutionResult {
	taskID := shortID()
	start := time.Now()

	r.logger.Info().
		Str("task_id", taskID).
		Str("primary_task", string(cls.PrimaryTask)).
		Str("complexity", string(cls.Complexity)).
		Msg("routing task")

	modules := r.selector.SelectModules(cls, params)
	if len(modules) == 0 {
		r.logger.Warn().Str("task_id", taskID).Msg("no modules selected for task")
		return &ExecutionResult{
			TaskID:   taskID,
			Success:  false,
			Errors:   []string{ErrNoModules.Error()},
			Duration: time.Since(start),
		}
	}

	plan := r.BuildPlan(taskID, modules, params, description)
	r.logger.Info().Str("task_id", taskID).Int("steps", len(plan.Steps)).Msg("execution plan created")

	result := r.executePlan(ctx, plan, modules)
	result.Duration = time.Since(start)

	r.logger.Info().
		Str("task_id", taskID).
		Bool("success", result.Success).
		Dur("duration", result.Duration).
		Msg("task execution complete")

	return result
}

// BuildPlan creates a strictly linear plan from the selected modules:
// step i depends only on step i-1.
func (r *Router) BuildPlan(taskID string, modules []Module, params *task.Parameters, description string) *ExecutionPlan {
	steps := make([]*ExecutionStep, 0, len(modules))

	for i, m := range modules {
		number := i + 1
		var dependsOn []int
		if number > 1 {
			dependsOn = []int{number - 1}
		}
		steps = append(steps, &ExecutionStep{
			Number:      number,
			ModuleName:  m.Name(),
			Description: fmt.Sprintf("Step %d/%d: %s", number, len(modules), m.Name()),
			Parameters:  stepParameters(m, params, number),
			DependsOn:   dependsOn,
			Status:      StepPending,
		})
	}

	return &ExecutionPlan{
		TaskID:            taskID,
		Description:       truncate(description, 100),
		Steps:             steps,
		EstimatedDuration: time.Duration(len(steps)) * 10 * time.Second,
		Complexity:        planComplexity(len(modules)),
	}
}

// executePlan runs steps in order, halting at the first failure. Steps
// after a failed step stay pending.
func (r *Router) executePlan(ctx context.Context, plan *ExecutionPlan, modules []Module) *ExecutionResult {
	byName := make(map[string]Module, len(modules))
	for _, m := range modules {
		byName[m.Name()] = m
	}

	var outcomes []StepOutcome
	var finalData any

	for step := plan.NextStep(); step != nil; step = plan.NextStep() {
		r.logger.Info().Str("task_id", plan.TaskID).Str("step", step.Description).Msg("executing step")
		step.Status = StepRunning

		m := byName[step.ModuleName]
		result := r.executor.ExecuteModule(ctx, m, step.Parameters, r.executor.Context())
		step.Result = result

		if result.Success {
			step.Status = StepCompleted
			finalData = result.Data
			outcomes = append(outcomes, StepOutcome{
				Step:     step.Number,
				Module:   step.ModuleName,
				Success:  true,
				Duration: result.Duration,
			})
			continue
		}

		step.Status = StepFailed
		step.Err = result.Error
		outcomes = append(outcomes, StepOutcome{
			Step:    step.Number,
			Module:  step.ModuleName,
			Success: false,
			Error:   result.Error,
		})
		r.logger.Error().
			Str("task_id", plan.TaskID).
			Int("step", step.Number).
			Str("error", result.Error).
			Msg("step failed, halting execution")
		break
	}

	completed := 0
	var errs []string
	for _, s := range plan.Steps {
		if s.Status == StepCompleted {
			completed++
		}
		if s.Err != "" {
			errs = append(errs, WrapStepError(s.Number, s.ModuleName, s.Err).Error())
		}
	}

	return &ExecutionResult{
		TaskID:         plan.TaskID,
		Success:        plan.IsCompleted() && !plan.HasFailed(),
		Data:           finalData,
		StepsCompleted: completed,
		TotalSteps:     len(plan.Steps),
		StepResults:    outcomes,
		Errors:         errs,
		Metadata: map[string]any{
			"plan_complexity":    plan.Complexity,
			"estimated_duration": plan.EstimatedDuration,
		},
	}
}

// stepParameters shapes the globally extracted parameters for one
// module's role: source location for sourcing steps, filter and
// aggregation specs for processors, chart hints for visualizers, and
// format plus filename for exporters.
func stepParameters(m Module, params *task.Parameters, stepNumber int) map[string]any {
	config := make(map[string]any)

	if len(params.DataSources) > 0 && stepNumber == 1 {
		source := params.DataSources[0]
		config["url"] = source.Location
		config["format"] = source.Format
	}

	if len(params.Filters) > 0 {
		filters := make([]map[string]any, len(params.Filters))
		for i, f := range params.Filters {
			filters[i] = map[string]any{
				"field":    f.Field,
				"operator": string(f.Operator),
				"value":    f.Value,
			}
		}
		config["filters"] = filters
	}

	if len(params.Columns) > 0 {
		cols := make([]string, len(params.Columns))
		for i, c := range params.Columns {
			cols[i] = c.Name
		}
		config["columns"] = cols
	}

	if len(params.Aggregations) > 0 {
		aggs := make([]map[string]any, len(params.Aggregations))
		for i, a := range params.Aggregations {
			aggs[i] = map[string]any{
				"function": string(a.Function),
				"field":    a.Field,
				"group_by": a.GroupBy,
			}
		}
		config["aggregations"] = aggs
	}

	if len(params.Sorting) > 0 {
		sorts := make([]map[string]any, len(params.Sorting))
		for i, s := range params.Sorting {
			sorts[i] = map[string]any{
				"field": s.Field,
				"order": s.Order,
			}
		}
		config["sorting"] = sorts
	}

	if len(params.Visualizations) > 0 && m.Type() == VisualizerModuleType {
		viz := params.Visualizations[0]
		config["chart_type"] = viz.ChartType
		config["title"] = viz.Title
		config["x_axis"] = viz.XAxis
		config["y_axis"] = viz.YAxis
	}

	if params.Output != nil && m.Type() == ExporterModuleType {
		config["format"] = params.Output.Format
		config["filename"] = params.Output.Filename
	}

	return config
}

func planComplexity(moduleCount int) string {
	switch {
	case moduleCount <= 1:
		return "simple"
	case moduleCount <= 3:
		return "medium"
	default:
		return "complex"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
