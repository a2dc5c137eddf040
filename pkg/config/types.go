// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for the Taskora application.
// It aggregates all other specific configuration structs.
type Config struct {
	Log    LogConfig    `description:"Logging configuration" koanf:"log"`
	Engine EngineConfig `description:"Orchestration engine configuration" koanf:"engine"`
	Fetch  FetchConfig  `description:"Task fetching configuration" koanf:"fetch"`
	Output OutputConfig `description:"Result output configuration" koanf:"output"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level set to taskora logs." koanf:"level"`   // Log level (e.g., "debug", "info", "warn", "error")
	Format string `description:"Taskora log format: json | text" koanf:"format"` // Log format (e.g., "json", "text")
	File   string `description:"Log file path" koanf:"file"`                     // Log file path (optional)
}

// EngineConfig holds configuration for the task orchestration engine.
type EngineConfig struct {
	// MaxParallelSubtasks caps how many subtasks of one batch run
	// concurrently. Zero means unbounded.
	MaxParallelSubtasks int `description:"Maximum subtasks executed concurrently per batch" koanf:"max_parallel_subtasks"`

	// StageTimeout bounds each orchestration stage. Zero disables the
	// per-stage deadline.
	StageTimeout time.Duration `description:"Timeout applied to each orchestration stage" koanf:"stage_timeout"`

	// RenderServiceURL is the endpoint of the browser rendering service
	// used by the dynamic content module.
	RenderServiceURL string `description:"Browser rendering service endpoint" koanf:"render_service_url"`
}

// FetchConfig holds configuration for resolving task input over HTTP.
type FetchConfig struct {
	Timeout     time.Duration `description:"HTTP timeout for fetching task content" koanf:"timeout"`
	UserAgent   string        `description:"User-Agent header sent on task fetches" koanf:"user_agent"`
	MaxBodySize int64         `description:"Maximum response body size in bytes" koanf:"max_body_size"`
}

// OutputConfig holds configuration for exported results.
type OutputConfig struct {
	Dir           string `description:"Directory for exported result files" koanf:"dir"`
	DefaultFormat string `description:"Default export format: csv | json | excel" koanf:"default_format"`
}
