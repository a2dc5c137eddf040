// pkg/engine/context_test.go
package engine

import (
	"fmt"
	"sync"
	"testing"
)

func TestExecutionContextConcurrentLogging(t *testing.T) {
	ec := NewExecutionContext("concurrency check", "", nil)

	const workers = 8
	const events = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < events; i++ {
				ec.LogEvent("worker %d event %d", n, i)
				ec.SetStageResult(fmt.Sprintf("stage_%d", n), i)
			}
		}(w)
	}
	wg.Wait()

	// Every LogEvent and every SetStageResult appends one line.
	want := workers * events * 2
	if len(ec.Log) != want {
		t.Errorf("len(Log) = %d, want %d", len(ec.Log), want)
	}
	for w := 0; w < workers; w++ {
		v, ok := ec.StageResult(fmt.Sprintf("stage_%d", w))
		if !ok {
			t.Errorf("stage_%d result missing", w)
			continue
		}
		if v != events-1 {
			t.Errorf("stage_%d = %v, want %d", w, v, events-1)
		}
	}
}

func TestExecutionContextLifecycle(t *testing.T) {
	ec := NewExecutionContext("lifecycle", "https://example.com/task", nil)
	if ec.Status != RunInitialized {
		t.Errorf("Status = %q, want initialized", ec.Status)
	}
	if ec.TaskID == "" || ec.RunID == "" {
		t.Error("ids not assigned")
	}

	ec.MarkCompleted()
	if ec.Status != RunCompleted {
		t.Errorf("Status = %q, want completed", ec.Status)
	}
	if ec.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}
	if ec.Duration() < 0 {
		t.Errorf("Duration = %v, want >= 0", ec.Duration())
	}
}
