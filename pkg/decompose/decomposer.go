// pkg/decompose/decomposer.go
package decompose

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/task"
)

// Decomposer decides whether a task needs splitting and, when it does,
// produces a dependency-ordered subtask plan.
type Decomposer struct {
	logger zerolog.Logger
}

// NewDecomposer creates a Decomposer.
func NewDecomposer() *Decomposer {
	return &Decomposer{
		logger: log.With().Str("component", "TaskDecomposer").Logger(),
	}
}

// NeedsDecomposition reports whether the task is complex enough to
// split into subtasks.
func (d *Decomposer) NeedsDecomposition(cls *task.Classification, params *task.Parameters) bool {
	if cls.Complexity == task.ComplexityComplex {
		return true
	}
	if cls.EstimatedSteps > 2 {
		return true
	}
	if len(params.DataSources) > 1 {
		return true
	}
	if (len(params.Filters) > 0 || len(params.Aggregations) > 0) && len(params.Visualizations) > 0 {
		return true
	}
	if len(cls.SecondaryTasks) > 0 {
		return true
	}
	return false
}

// SelectStrategy picks the decomposition strategy for the task:
// parallel when multiple independent data sources exist, sequential
// otherwise.
func (d *Decomposer) SelectStrategy(cls *task.Classification, params *task.Parameters) Strategy {
	if len(params.DataSources) > 1 {
		d.logger.Debug().Int("sources", len(params.DataSources)).Msg("multiple data sources, using parallel strategy")
		return StrategyParallel
	}
	return StrategySequential
}

// Decompose splits the task using an auto-selected strategy.
func (d *Decomposer) Decompose(cls *task.Classification, params *task.Parameters, description string) *Result {
	return d.DecomposeWithStrategy(cls, params, description, "")
}

// DecomposeWithStrategy splits the task using the given strategy, or
// auto-selects one when strategy is empty. Simple tasks that need no
// decomposition produce a single-subtask result.
func (d *Decomposer) DecomposeWithStrategy(cls *task.Classification, params *task.Parameters, description string, strategy Strategy) *Result {
	taskID := uuid.NewString()[:8]

	d.logger.Info().
		Str("task_id", taskID).
		Str("primary_task", string(cls.PrimaryTask)).
		Str("complexity", string(cls.Complexity)).
		Int("estimated_steps", cls.EstimatedSteps).
		Msg("decomposing task")

	if !d.NeedsDecomposition(cls, params) {
		d.logger.Info().Str("task_id", taskID).Msg("task is simple, no decomposition needed")
		return d.singleSubtaskResult(taskID, cls, params, description)
	}

	if strategy == "" {
		strategy = d.SelectStrategy(cls, params)
	}

	subtasks := decomposeWith(strategy, cls, params, description)
	dependencies := buildDependencies(subtasks)

	var totalDuration time.Duration
	parallelizable := false
	for _, st := range subtasks {
		totalDuration += st.EstimatedDuration
		parallelizable = parallelizable || st.Parallel
	}

	result := &Result{
		TaskID:            taskID,
		Subtasks:          subtasks,
		Dependencies:      dependencies,
		Strategy:          strategy,
		EstimatedDuration: totalDuration,
		ComplexityScore:   complexityScore(subtasks),
		Parallelizable:    parallelizable,
		Metadata: map[string]any{
			"original_task":      truncate(description, 100),
			"subtask_count":      len(subtasks),
			"has_visualizations": len(params.Visualizations) > 0,
			"has_filters":        len(params.Filters) > 0,
		},
	}

	d.logger.Info().
		Str("task_id", taskID).
		Int("subtasks", len(subtasks)).
		Str("strategy", string(strategy)).
		Dur("estimated_duration", totalDuration).
		Msg("decomposition complete")

	return result
}

func (d *Decomposer) singleSubtaskResult(taskID string, cls *task.Classification, params *task.Parameters, description string) *Result {
	subtask := &Subtask{
		ID:                "main_task",
		Name:              "Main Task",
		Type:              SubtaskFetch,
		Description:       truncate(description, 100),
		Classification:    *cls,
		Parameters:        *params,
		Priority:          1,
		EstimatedDuration: time.Duration(cls.EstimatedSteps) * fetchDuration,
		Status:            SubtaskPending,
	}

	return &Result{
		TaskID:            taskID,
		Subtasks:          []*Subtask{subtask},
		Strategy:          StrategySingle,
		EstimatedDuration: subtask.EstimatedDuration,
		ComplexityScore:   0.2,
		Metadata:          map[string]any{"decomposed": false},
	}
}

func buildDependencies(subtasks []*Subtask) []Dependency {
	var deps []Dependency
	for _, st := range subtasks {
		if len(st.DependsOn) == 0 {
			continue
		}
		kind := "sequential"
		if st.Parallel {
			kind = "parallel"
		}
		deps = append(deps, Dependency{SubtaskID: st.ID, DependsOn: st.DependsOn, Kind: kind})
	}
	return deps
}

// complexityScore averages a subtask-count score (saturating at 10
// subtasks) with a dependency-edge score (saturating at 20 edges),
// rounded to two decimals. The result is always within [0, 1].
func complexityScore(subtasks []*Subtask) float64 {
	if len(subtasks) == 0 {
		return 0.0
	}

	countScore := math.Min(1.0, float64(len(subtasks))/10.0)

	edges := 0
	for _, st := range subtasks {
		edges += len(st.DependsOn)
	}
	dependencyScore := math.Min(1.0, float64(edges)/20.0)

	return math.Round((countScore+dependencyScore)/2.0*100) / 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
