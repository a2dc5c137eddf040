// pkg/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/taskora-ai/taskora/pkg/decompose"
)

const (
	errorCodeNoModules     = "TASK_NO_MODULES"
	errorCodeStepFailed    = "PLAN_STEP_FAILED"
	errorCodeCycleDetected = "DECOMPOSE_CYCLE"
	errorCodeStageFailed   = "ORCHESTRATION_STAGE_FAILED"
)

var (
	// ErrNoModules indicates no registered module satisfies the task.
	ErrNoModules = errors.New("no modules available to execute this task")

	// ErrStepFailed indicates a plan step failed and execution halted.
	ErrStepFailed = errors.New("execution step failed")

	// ErrStageFailed indicates an orchestration stage threw.
	ErrStageFailed = errors.New("orchestration stage failed")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with an engine error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// WrapStepError annotates a failed step with its number and module.
func WrapStepError(stepNumber int, moduleName, reason string) error {
	return WithErrorCode(
		fmt.Errorf("%w: step %d (%s): %s", ErrStepFailed, stepNumber, moduleName, reason),
		errorCodeStepFailed,
	)
}

// WrapStageError annotates a stage-level failure. An error code already
// carried by err survives the wrapping.
func WrapStageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("%w: %s: %w", ErrStageFailed, stage, err), ErrorCode(err))
}

// ErrorCode resolves an error to its engine error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrNoModules):
		return errorCodeNoModules
	case errors.Is(err, decompose.ErrCycleDetected):
		return errorCodeCycleDetected
	case errors.Is(err, ErrStepFailed):
		return errorCodeStepFailed
	default:
		return errorCodeStageFailed
	}
}

// ExitCode maps errors to CLI exit codes. It resolves through ErrorCode
// so both sentinel-wrapped and code-annotated errors map the same way.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case errorCodeNoModules, errorCodeCycleDetected:
		return 2
	case errorCodeStepFailed:
		return 3
	default:
		return 1
	}
}

// HTTPStatus maps errors to HTTP status codes for an embedding API layer.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}

	switch ErrorCode(err) {
	case errorCodeNoModules, errorCodeCycleDetected:
		return 422
	default:
		return 500
	}
}

// Suggestions provides human readable guidance for CLI usage.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeNoModules:
		return []string{
			"Check registered modules with 'taskora modules list'",
			"Register a sourcing module matching the task's data sources",
		}
	case errorCodeCycleDetected:
		return []string{
			"Inspect the decomposition with 'taskora plan'",
			"Subtask dependencies must form a directed acyclic graph",
		}
	case errorCodeStepFailed:
		return []string{
			"Re-run with -vv to see per-step module logs",
		}
	default:
		return nil
	}
}
