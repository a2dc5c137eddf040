// pkg/engine/executor_test.go
package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecuteModulePublishesResults(t *testing.T) {
	e := NewExecutor()
	m := newMockModule("fetcher", SourceScraperModuleType, StaticScraperCapability)
	m.execFn = func(ctx context.Context, params, shared map[string]any) (*Result, error) {
		return &Result{Success: true, Data: "page content"}, nil
	}

	result := e.ExecuteModule(context.Background(), m, nil, nil)
	if !result.Success {
		t.Fatalf("execution failed: %s", result.Error)
	}

	shared := e.Context()
	if shared["fetcher_result"] != "page content" {
		t.Errorf("fetcher_result = %v, want page content", shared["fetcher_result"])
	}
	if shared["last_result"] != "page content" {
		t.Errorf("last_result = %v, want page content", shared["last_result"])
	}
}

func TestExecuteModuleCallContextOverridesShared(t *testing.T) {
	e := NewExecutor()
	e.SetContext("key", "shared-value")
	e.SetContext("untouched", "still-here")

	var seen map[string]any
	m := newMockModule("probe", ProcessorModuleType, DataTransformerCapability)
	m.execFn = func(ctx context.Context, params, shared map[string]any) (*Result, error) {
		seen = shared
		return &Result{Success: true}, nil
	}

	e.ExecuteModule(context.Background(), m, nil, map[string]any{"key": "call-value"})

	if seen["key"] != "call-value" {
		t.Errorf("call-local context did not win: key = %v", seen["key"])
	}
	if seen["untouched"] != "still-here" {
		t.Errorf("shared context lost: untouched = %v", seen["untouched"])
	}
	// The merge must not leak the call-local value back into shared state.
	if e.Context()["key"] != "shared-value" {
		t.Errorf("shared context mutated by call-local override: %v", e.Context()["key"])
	}
}

func TestExecuteModuleConvertsErrorToFailure(t *testing.T) {
	e := NewExecutor()
	m := newMockModule("broken", ProcessorModuleType, DataTransformerCapability)
	m.execFn = func(ctx context.Context, params, shared map[string]any) (*Result, error) {
		return nil, errors.New("boom")
	}

	result := e.ExecuteModule(context.Background(), m, nil, nil)
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Error != "boom" {
		t.Errorf("result.Error = %q, want boom", result.Error)
	}
	if _, ok := e.Context()["broken_result"]; ok {
		t.Error("failed execution still published a result")
	}
}

func TestExecuteModuleRecoversPanic(t *testing.T) {
	e := NewExecutor()
	m := newMockModule("panicky", ProcessorModuleType, DataTransformerCapability)
	m.execFn = func(ctx context.Context, params, shared map[string]any) (*Result, error) {
		panic("unexpected state")
	}

	result := e.ExecuteModule(context.Background(), m, nil, nil)
	if result.Success {
		t.Fatal("expected failure result from panic")
	}
	if !strings.Contains(result.Error, "panicked") {
		t.Errorf("result.Error = %q, want panic conversion", result.Error)
	}
}

func TestExecuteModuleInitOnceAndInitFailure(t *testing.T) {
	e := NewExecutor()
	m := newMockModule("lazy", ProcessorModuleType, DataTransformerCapability)

	e.ExecuteModule(context.Background(), m, nil, nil)
	e.ExecuteModule(context.Background(), m, nil, nil)
	if got := m.initCalls.Load(); got != 1 {
		t.Errorf("Init called %d times, want 1", got)
	}

	failing := newMockModule("failing", ProcessorModuleType, DataTransformerCapability)
	failing.initErr = errors.New("no database")
	result := e.ExecuteModule(context.Background(), failing, nil, nil)
	if result.Success {
		t.Fatal("expected init failure result")
	}
	if got := failing.execCalls.Load(); got != 0 {
		t.Errorf("Execute called %d times despite failed init, want 0", got)
	}
}

func TestExecutorClearContext(t *testing.T) {
	e := NewExecutor()
	m := newMockModule("fetcher", SourceScraperModuleType, StaticScraperCapability)
	e.ExecuteModule(context.Background(), m, nil, nil)

	e.ClearContext()
	if len(e.Context()) != 0 {
		t.Error("shared context not empty after ClearContext")
	}

	// Initialization tracking resets too, so Init runs again.
	e.ExecuteModule(context.Background(), m, nil, nil)
	if got := m.initCalls.Load(); got != 2 {
		t.Errorf("Init called %d times after ClearContext, want 2", got)
	}
}

func TestExecutorShutdownCleansInitializedModules(t *testing.T) {
	r := NewRegistry()
	used := newMockModule("used", ProcessorModuleType, DataTransformerCapability)
	unused := newMockModule("unused", ProcessorModuleType, DataTransformerCapability)
	r.Register(used)
	r.Register(unused)

	e := NewExecutor()
	e.ExecuteModule(context.Background(), used, nil, nil)
	e.Shutdown(context.Background(), r)

	if got := used.cleanupCalls.Load(); got != 1 {
		t.Errorf("used module Cleanup called %d times, want 1", got)
	}
	if got := unused.cleanupCalls.Load(); got != 0 {
		t.Errorf("unused module Cleanup called %d times, want 0", got)
	}
}
