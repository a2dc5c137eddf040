// pkg/engine/plan.go
package engine

import (
	"time"
)

// StepStatus tracks one execution step through its state machine.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// ExecutionStep is one scheduled invocation of a single module within a
// linear ExecutionPlan. DependsOn always references lower-numbered steps.
type ExecutionStep struct {
	Number      int            `json:"step_number"`
	ModuleName  string         `json:"module_name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	DependsOn   []int          `json:"depends_on,omitempty"`
	Status      StepStatus     `json:"status"`
	Result      *Result        `json:"result,omitempty"`
	Err         string         `json:"error,omitempty"`
}

// ExecutionPlan is a strictly linear sequence of steps: step i depends
// only on step i-1. There is no branching or fan-out within one plan.
type ExecutionPlan struct {
	TaskID            string           `json:"task_id"`
	Description       string           `json:"description"`
	Steps             []*ExecutionStep `json:"steps"`
	EstimatedDuration time.Duration    `json:"estimated_duration"`
	Complexity        string           `json:"complexity"`
}

// Step returns the step with the given number, or nil.
func (p *ExecutionPlan) Step(number int) *ExecutionStep {
	for _, s := range p.Steps {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// NextStep returns the first pending step whose dependency steps are
// all completed, or nil when no step is ready.
func (p *ExecutionPlan) NextStep() *ExecutionStep {
	for _, s := range p.Steps {
		if s.Status != StepPending {
			continue
		}
		if p.dependenciesCompleted(s) {
			return s
		}
	}
	return nil
}

// IsCompleted reports whether every step reached completed or skipped.
func (p *ExecutionPlan) IsCompleted() bool {
	for _, s := range p.Steps {
		if s.Status != StepCompleted && s.Status != StepSkipped {
			return false
		}
	}
	return true
}

// HasFailed reports whether any step failed.
func (p *ExecutionPlan) HasFailed() bool {
	for _, s := range p.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

// Progress returns the completed fraction of the plan in [0, 1].
func (p *ExecutionPlan) Progress() float64 {
	if len(p.Steps) == 0 {
		return 1.0
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepCompleted || s.Status == StepSkipped {
			done++
		}
	}
	return float64(done) / float64(len(p.Steps))
}

func (p *ExecutionPlan) dependenciesCompleted(step *ExecutionStep) bool {
	for _, n := range step.DependsOn {
		dep := p.Step(n)
		if dep == nil || dep.Status != StepCompleted {
			return false
		}
	}
	return true
}
