// pkg/engine/module.go
// Package engine provides the core functionality for registering,
// selecting, planning, and executing task modules.
package engine

import (
	"context"
	"time"
)

// ModuleType represents the category of the module.
type ModuleType string

const (
	SourceScraperModuleType ModuleType = "source-scraper" // Fetches data from web pages
	SourceAPIModuleType     ModuleType = "source-api"     // Fetches data from HTTP APIs
	ProcessorModuleType     ModuleType = "processor"      // Filters, transforms, aggregates
	VisualizerModuleType    ModuleType = "visualizer"     // Builds charts and maps
	ExporterModuleType      ModuleType = "exporter"       // Writes results to output formats
)

// IsSourcing reports whether the type produces task data from the outside.
func (t ModuleType) IsSourcing() bool {
	return t == SourceScraperModuleType || t == SourceAPIModuleType
}

// Result represents the outcome of one module execution.
type Result struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Duration time.Duration  `json:"execution_time"`
}

// Failure builds a failed Result from an error.
func Failure(err error) *Result {
	return &Result{Success: false, Error: err.Error()}
}

// Module is the contract every executable unit satisfies. Init and
// Cleanup must be idempotent; the Executor calls Init lazily before the
// first execution and Cleanup once during shutdown.
type Module interface {
	// Name returns the unique identity of the module in the registry.
	Name() string

	// Type returns the module category.
	Type() ModuleType

	// Capabilities returns the pure-data capability descriptor.
	Capabilities() Capability

	// Init prepares the module for execution (connections, caches).
	Init(ctx context.Context) error

	// Execute runs the module. params carries the step configuration;
	// shared is a read-only snapshot of results published by earlier
	// steps (keys "<module>_result" and "last_result").
	Execute(ctx context.Context, params map[string]any, shared map[string]any) (*Result, error)

	// Cleanup releases module resources.
	Cleanup(ctx context.Context) error
}
