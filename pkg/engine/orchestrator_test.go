// pkg/engine/orchestrator_test.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/taskora-ai/taskora/pkg/decompose"
	"github.com/taskora-ai/taskora/pkg/task"
)

// --- Stub collaborators ---

type stubFetcher struct {
	fetched *FetchedTask
	err     error
}

func (s *stubFetcher) Fetch(ctx context.Context, input, url string) (*FetchedTask, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.fetched != nil {
		return s.fetched, nil
	}
	return &FetchedTask{Content: input, SelfContained: true}, nil
}

type stubClassifier struct {
	cls *task.Classification
	err error
}

func (s *stubClassifier) Classify(ctx context.Context, content string) (*task.Classification, error) {
	return s.cls, s.err
}

type stubExtractor struct {
	params *task.Parameters
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, content string, cls *task.Classification) (*task.Parameters, error) {
	return s.params, s.err
}

// --- End stubs ---

func newTestEngine(r *Registry, cls *task.Classification, params *task.Parameters) *Engine {
	return NewEngine(r, &stubFetcher{}, &stubClassifier{cls: cls}, &stubExtractor{params: params})
}

func TestProcessTaskSimpleSuccess(t *testing.T) {
	r := defaultsRegistry()
	eng := newTestEngine(r, scrapingClassification(), urlParameters("https://example.com/data"))

	result := eng.ProcessTask(context.Background(), "scrape example.com and export", "", nil)

	if !result.Success {
		t.Fatalf("task failed: %s", result.Error)
	}
	if result.TaskID == "" || result.RunID == "" {
		t.Error("result missing task/run ids")
	}
	if result.Strategy != decompose.StrategySingle {
		t.Errorf("Strategy = %q, want single", result.Strategy)
	}
	for _, stage := range []string{StageFetch, StageClassify, StageAct, StageExtract, StageDecompose, StageExecute} {
		if !result.Stages[stage] {
			t.Errorf("stage %q not recorded", stage)
		}
	}
	if len(result.Log) == 0 {
		t.Error("execution log empty")
	}
}

func TestProcessTaskClassifierFailureBecomesEnvelope(t *testing.T) {
	r := defaultsRegistry()
	eng := NewEngine(r,
		&stubFetcher{},
		&stubClassifier{err: errors.New("service unavailable")},
		&stubExtractor{params: urlParameters("https://example.com")},
	)

	result := eng.ProcessTask(context.Background(), "anything", "", nil)

	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if !strings.Contains(result.Error, "classify") || !strings.Contains(result.Error, "service unavailable") {
		t.Errorf("Error = %q, want wrapped classify failure", result.Error)
	}
	if result.Details["failed_stage"] != StageClassify {
		t.Errorf("failed_stage = %v, want classify", result.Details["failed_stage"])
	}
	if result.Stages[StageFetch] != true {
		t.Error("fetch stage should have completed")
	}
	if result.Stages[StageClassify] {
		t.Error("classify stage recorded despite failing")
	}
	if len(result.Log) == 0 {
		t.Error("failure envelope missing execution log")
	}
}

func TestProcessTaskInvalidClassificationRejected(t *testing.T) {
	r := defaultsRegistry()
	bad := scrapingClassification()
	bad.EstimatedSteps = 0 // violates the declared range
	eng := newTestEngine(r, bad, urlParameters("https://example.com"))

	result := eng.ProcessTask(context.Background(), "anything", "", nil)
	if result.Success {
		t.Fatal("expected validation failure")
	}
	if result.Details["failed_stage"] != StageClassify {
		t.Errorf("failed_stage = %v, want classify", result.Details["failed_stage"])
	}
}

func TestProcessTaskDecomposedParallelSources(t *testing.T) {
	r := defaultsRegistry()
	cls := scrapingClassification()
	cls.Complexity = task.ComplexityComplex
	params := urlParameters("https://a.example.com", "https://b.example.com")

	eng := newTestEngine(r, cls, params)
	result := eng.ProcessTask(context.Background(), "merge two sources", "", nil)

	if !result.Success {
		t.Fatalf("task failed: %s", result.Error)
	}
	if result.Strategy != decompose.StrategyParallel {
		t.Errorf("Strategy = %q, want parallel", result.Strategy)
	}
	if got := result.Details["subtasks_completed"]; got != 3 {
		t.Errorf("subtasks_completed = %v, want 3 (two fetches plus merge)", got)
	}
}

// Six parallel sources decompose into one batch of six concurrent fetch
// subtasks, all logging into the shared execution context at once.
func TestProcessTaskConcurrentSubtaskLogging(t *testing.T) {
	r := defaultsRegistry()
	cls := scrapingClassification()
	cls.Complexity = task.ComplexityComplex
	params := urlParameters(
		"https://s1.example.com",
		"https://s2.example.com",
		"https://s3.example.com",
		"https://s4.example.com",
		"https://s5.example.com",
		"https://s6.example.com",
	)

	eng := newTestEngine(r, cls, params)
	result := eng.ProcessTask(context.Background(), "merge six sources", "", nil)

	if !result.Success {
		t.Fatalf("task failed: %s", result.Error)
	}
	for i := 1; i <= 6; i++ {
		want := fmt.Sprintf("subtask fetch_parallel_%d completed", i)
		found := false
		for _, line := range result.Log {
			if strings.Contains(line, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("execution log missing %q", want)
		}
	}
}

func TestProcessTaskMaxParallelSubtasksCapsBatch(t *testing.T) {
	var active, peak atomic.Int32

	r := NewRegistry()
	fetcher := newMockModule("static_fetcher", SourceScraperModuleType, StaticScraperCapability)
	fetcher.execFn = func(ctx context.Context, params, shared map[string]any) (*Result, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		return &Result{Success: true, Data: "fetched"}, nil
	}
	r.Register(fetcher)
	r.Register(newMockModule("csv_exporter", ExporterModuleType, CSVExporterCapability))

	cls := scrapingClassification()
	cls.Complexity = task.ComplexityComplex
	params := urlParameters(
		"https://s1.example.com",
		"https://s2.example.com",
		"https://s3.example.com",
		"https://s4.example.com",
		"https://s5.example.com",
		"https://s6.example.com",
	)

	eng := NewEngine(r,
		&stubFetcher{},
		&stubClassifier{cls: cls},
		&stubExtractor{params: params},
		WithMaxParallelSubtasks(2),
	)
	result := eng.ProcessTask(context.Background(), "merge six sources", "", nil)

	if !result.Success {
		t.Fatalf("task failed: %s", result.Error)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("observed %d concurrent fetches, want at most 2", got)
	}
}

type blockingClassifier struct{}

func (blockingClassifier) Classify(ctx context.Context, content string) (*task.Classification, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestProcessTaskStageTimeoutBoundsClassification(t *testing.T) {
	eng := NewEngine(defaultsRegistry(),
		&stubFetcher{},
		blockingClassifier{},
		&stubExtractor{params: urlParameters("https://example.com")},
		WithStageTimeout(30*time.Millisecond),
	)

	done := make(chan *TaskResult, 1)
	go func() {
		done <- eng.ProcessTask(context.Background(), "anything", "", nil)
	}()

	var result *TaskResult
	select {
	case result = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stage timeout did not fire")
	}

	if result.Success {
		t.Fatal("expected timeout failure envelope")
	}
	if result.Details["failed_stage"] != StageClassify {
		t.Errorf("failed_stage = %v, want classify", result.Details["failed_stage"])
	}
	if !strings.Contains(result.Error, context.DeadlineExceeded.Error()) {
		t.Errorf("Error = %q, want deadline exceeded", result.Error)
	}
}

func TestProcessTaskSubtaskFailurePropagates(t *testing.T) {
	r := NewRegistry()
	fetcher := newMockModule("static_fetcher", SourceScraperModuleType, StaticScraperCapability)
	fetcher.execFn = func(ctx context.Context, params, shared map[string]any) (*Result, error) {
		return nil, errors.New("site down")
	}
	r.Register(fetcher)
	r.Register(newMockModule("csv_exporter", ExporterModuleType, CSVExporterCapability))

	cls := scrapingClassification()
	cls.Complexity = task.ComplexityComplex
	params := urlParameters("https://a.example.com", "https://b.example.com")

	eng := newTestEngine(r, cls, params)
	result := eng.ProcessTask(context.Background(), "merge two sources", "", nil)

	if result.Success {
		t.Fatal("expected failure envelope")
	}
	if result.Details["failed_stage"] != StageExecute {
		t.Errorf("failed_stage = %v, want execute", result.Details["failed_stage"])
	}
	if !strings.Contains(result.Error, "did not complete") {
		t.Errorf("Error = %q, want subtask completion summary", result.Error)
	}
}

func TestProcessTaskNoModulesFailure(t *testing.T) {
	eng := newTestEngine(NewRegistry(), scrapingClassification(), urlParameters("https://example.com"))

	result := eng.ProcessTask(context.Background(), "nothing registered", "", nil)
	if result.Success {
		t.Fatal("expected failure with empty registry")
	}
	if result.Details["failed_stage"] != StageExecute {
		t.Errorf("failed_stage = %v, want execute", result.Details["failed_stage"])
	}
	if !strings.Contains(result.Error, "no modules available") {
		t.Errorf("Error = %q, want no-modules reason", result.Error)
	}
	if result.Details["error_code"] != "TASK_NO_MODULES" {
		t.Errorf("error_code = %v, want TASK_NO_MODULES", result.Details["error_code"])
	}
}
