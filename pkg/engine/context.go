// pkg/engine/context.go
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RunStatus tracks one task run through its lifecycle.
type RunStatus string

const (
	RunInitialized RunStatus = "initialized"
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"
)

// ExecutionContext is the mutable state threaded through one task run:
// per-stage results, shared data, and an append-only event log. Subtasks
// of one batch log concurrently, so the log and stage results are
// guarded by a mutex.
type ExecutionContext struct {
	mu sync.Mutex
	TaskID string `json:"task_id"`
	RunID  string `json:"run_id"`

	OriginalTask string `json:"original_task"`
	TaskURL      string `json:"task_url,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	Status      RunStatus `json:"status"`

	StageResults map[string]any `json:"stage_results"`
	SharedData   map[string]any `json:"shared_data"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	Log []string `json:"execution_log"`
}

// NewExecutionContext creates a context for one task run.
func NewExecutionContext(originalTask, taskURL string, metadata map[string]any) *ExecutionContext {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &ExecutionContext{
		TaskID:       shortID(),
		RunID:        shortID(),
		OriginalTask: originalTask,
		TaskURL:      taskURL,
		StartedAt:    time.Now(),
		Status:       RunInitialized,
		StageResults: make(map[string]any),
		SharedData:   make(map[string]any),
		Metadata:     metadata,
	}
}

// LogEvent appends a timestamped line to the execution log. Safe for
// concurrent use.
func (ec *ExecutionContext) LogEvent(format string, args ...any) {
	entry := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
	ec.mu.Lock()
	ec.Log = append(ec.Log, entry)
	ec.mu.Unlock()
	log.Debug().Str("task_id", ec.TaskID).Msg(entry)
}

// SetStageResult stores the result of one orchestration stage.
func (ec *ExecutionContext) SetStageResult(stage string, result any) {
	ec.mu.Lock()
	ec.StageResults[stage] = result
	ec.mu.Unlock()
	ec.LogEvent("stage %q completed", stage)
}

// StageResult returns a previously stored stage result.
func (ec *ExecutionContext) StageResult(stage string) (any, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	v, ok := ec.StageResults[stage]
	return v, ok
}

// MarkCompleted finalizes the context as successful.
func (ec *ExecutionContext) MarkCompleted() {
	ec.CompletedAt = time.Now()
	ec.Status = RunCompleted
	ec.LogEvent("execution completed")
}

// MarkFailed finalizes the context as failed.
func (ec *ExecutionContext) MarkFailed(reason string) {
	ec.CompletedAt = time.Now()
	ec.Status = RunFailed
	ec.LogEvent("execution failed: %s", reason)
}

// Duration returns the elapsed run time.
func (ec *ExecutionContext) Duration() time.Duration {
	if !ec.CompletedAt.IsZero() {
		return ec.CompletedAt.Sub(ec.StartedAt)
	}
	return time.Since(ec.StartedAt)
}

func shortID() string {
	return uuid.NewString()[:8]
}
