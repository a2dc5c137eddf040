// pkg/engine/mock_test.go
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/taskora-ai/taskora/pkg/task"
)

// --- Mock Module for Testing ---

type mockModule struct {
	name string
	typ  ModuleType
	caps Capability

	initCalls    atomic.Int32
	cleanupCalls atomic.Int32
	execCalls    atomic.Int32

	initErr error
	execFn  func(ctx context.Context, params, shared map[string]any) (*Result, error)
}

func newMockModule(name string, typ ModuleType, caps Capability) *mockModule {
	return &mockModule{name: name, typ: typ, caps: caps}
}

func (m *mockModule) Name() string             { return m.name }
func (m *mockModule) Type() ModuleType         { return m.typ }
func (m *mockModule) Capabilities() Capability { return m.caps }

func (m *mockModule) Init(ctx context.Context) error {
	m.initCalls.Add(1)
	return m.initErr
}

func (m *mockModule) Execute(ctx context.Context, params, shared map[string]any) (*Result, error) {
	m.execCalls.Add(1)
	if m.execFn != nil {
		return m.execFn(ctx, params, shared)
	}
	return &Result{Success: true, Data: fmt.Sprintf("%s ran", m.name)}, nil
}

func (m *mockModule) Cleanup(ctx context.Context) error {
	m.cleanupCalls.Add(1)
	return nil
}

// --- End Mock Module ---

func scrapingClassification() *task.Classification {
	return &task.Classification{
		PrimaryTask:    task.TypeWebScraping,
		Complexity:     task.ComplexitySimple,
		EstimatedSteps: 1,
		OutputFormat:   task.OutputCSV,
		Confidence:     0.9,
	}
}

func urlParameters(urls ...string) *task.Parameters {
	p := &task.Parameters{Confidence: 0.9}
	for _, u := range urls {
		p.DataSources = append(p.DataSources, task.DataSource{
			Type:     task.SourceURL,
			Location: u,
			Format:   "html",
		})
	}
	return p
}
