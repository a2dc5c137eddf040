// pkg/decompose/subtask.go
// Package decompose splits complex tasks into dependency-ordered
// subtasks and computes batched execution schedules over them.
package decompose

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskora-ai/taskora/pkg/task"
)

// ErrCycleDetected indicates the subtask dependency graph starved the
// batch scheduler: an iteration produced no ready subtasks while
// unscheduled subtasks remained.
var ErrCycleDetected = errors.New("subtask dependency cycle detected")

// SubtaskType categorizes one decomposed unit of work.
type SubtaskType string

const (
	SubtaskFetch     SubtaskType = "data_fetch"
	SubtaskProcess   SubtaskType = "data_process"
	SubtaskTransform SubtaskType = "data_transform"
	SubtaskVisualize SubtaskType = "visualization"
	SubtaskExport    SubtaskType = "export"
)

// SubtaskStatus tracks a subtask through execution.
type SubtaskStatus string

const (
	SubtaskPending   SubtaskStatus = "pending"
	SubtaskRunning   SubtaskStatus = "running"
	SubtaskCompleted SubtaskStatus = "completed"
	SubtaskFailed    SubtaskStatus = "failed"
)

// Subtask is one decomposed unit of work with its own classification,
// parameters, and dependency list. IDs are unique within one Result.
type Subtask struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        SubtaskType `json:"type"`
	Description string      `json:"description"`

	Classification task.Classification `json:"classification"`
	Parameters     task.Parameters     `json:"parameters"`

	DependsOn []string `json:"depends_on,omitempty"`

	Priority          int           `json:"priority"`
	Parallel          bool          `json:"can_run_parallel"`
	EstimatedDuration time.Duration `json:"estimated_duration"`

	Status SubtaskStatus `json:"status"`
	Result any           `json:"result,omitempty"`
	Err    string        `json:"error,omitempty"`
}

// Dependency records the dependency edges of one subtask.
type Dependency struct {
	SubtaskID string   `json:"subtask_id"`
	DependsOn []string `json:"depends_on"`
	Kind      string   `json:"dependency_type"`
}

// Result is the output of one decomposition.
type Result struct {
	TaskID string `json:"task_id"`

	Subtasks     []*Subtask   `json:"subtasks"`
	Dependencies []Dependency `json:"dependencies"`

	Strategy          Strategy      `json:"execution_strategy"`
	EstimatedDuration time.Duration `json:"estimated_total_duration"`
	ComplexityScore   float64       `json:"complexity_score"`
	Parallelizable    bool          `json:"can_parallelize"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Subtask returns the subtask with the given id, or nil.
func (r *Result) Subtask(id string) *Subtask {
	for _, st := range r.Subtasks {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// ReadySubtasks returns every pending subtask whose dependencies have
// all completed.
func (r *Result) ReadySubtasks() []*Subtask {
	var ready []*Subtask
	for _, st := range r.Subtasks {
		if st.Status != SubtaskPending {
			continue
		}
		if r.dependenciesCompleted(st) {
			ready = append(ready, st)
		}
	}
	return ready
}

// ExecutionOrder returns the subtask ids grouped into batches: each
// batch contains subtasks whose dependencies were all scheduled in
// earlier batches, so the subtasks within one batch are mutually
// independent. An unschedulable remainder means the dependency graph
// has a cycle and yields ErrCycleDetected.
func (r *Result) ExecutionOrder() ([][]string, error) {
	var batches [][]string
	scheduled := make(map[string]bool, len(r.Subtasks))

	for len(scheduled) < len(r.Subtasks) {
		var batch []string
		for _, st := range r.Subtasks {
			if scheduled[st.ID] {
				continue
			}
			ready := true
			for _, dep := range st.DependsOn {
				if !scheduled[dep] {
					ready = false
					break
				}
			}
			if ready {
				batch = append(batch, st.ID)
			}
		}

		if len(batch) == 0 {
			remaining := len(r.Subtasks) - len(scheduled)
			return batches, fmt.Errorf("%w: %d subtasks unschedulable", ErrCycleDetected, remaining)
		}

		for _, id := range batch {
			scheduled[id] = true
		}
		batches = append(batches, batch)
	}

	return batches, nil
}

func (r *Result) dependenciesCompleted(st *Subtask) bool {
	for _, dep := range st.DependsOn {
		depTask := r.Subtask(dep)
		if depTask == nil || depTask.Status != SubtaskCompleted {
			return false
		}
	}
	return true
}
