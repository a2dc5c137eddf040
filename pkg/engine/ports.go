// pkg/engine/ports.go
package engine

import (
	"context"

	"github.com/taskora-ai/taskora/pkg/task"
)

// FetchedTask is the resolved content of a task input. SelfContained
// reports whether the content already holds the full task statement; if
// false, the orchestrator runs side-effect actions to complete it.
type FetchedTask struct {
	Content       string
	SourceURL     string
	SelfContained bool
	SubmissionURL string
	Metadata      map[string]any
}

// TaskFetcher resolves raw task input (literal text or a URL) into
// task content.
type TaskFetcher interface {
	Fetch(ctx context.Context, input, url string) (*FetchedTask, error)
}

// Classifier is the external classification service.
type Classifier interface {
	Classify(ctx context.Context, content string) (*task.Classification, error)
}

// ParameterExtractor is the external structured-parameter extraction
// service.
type ParameterExtractor interface {
	Extract(ctx context.Context, content string, cls *task.Classification) (*task.Parameters, error)
}

// ActionRunner executes side-effecting preparation actions (download,
// transcode, OCR, navigate) when fetched content is not yet a
// self-contained task. It returns the augmented task content.
type ActionRunner interface {
	Run(ctx context.Context, fetched *FetchedTask, ec *ExecutionContext) (*FetchedTask, error)
}
