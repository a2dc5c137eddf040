// pkg/engine/executor.go
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Executor is the generic harness around a single module call: it
// lazily initializes the module, merges shared and call-local context,
// converts errors and panics into failure results, and records the
// wall-clock execution time.
type Executor struct {
	mu          sync.Mutex
	shared      map[string]any
	initialized map[string]bool
	logger      zerolog.Logger
}

// NewExecutor creates an Executor with an empty shared context.
func NewExecutor() *Executor {
	return &Executor{
		shared:      make(map[string]any),
		initialized: make(map[string]bool),
		logger:      log.With().Str("component", "ModuleExecutor").Logger(),
	}
}

// ExecuteModule runs one module. callCtx overrides shared-context keys
// on conflict. Any error or panic from the module is converted into a
// failed Result here; it is never propagated to the caller. On success
// the result data is published back into the shared context under
// "<module>_result" and "last_result".
func (e *Executor) ExecuteModule(ctx context.Context, m Module, params map[string]any, callCtx map[string]any) *Result {
	start := time.Now()
	e.logger.Info().Str("module", m.Name()).Msg("executing module")

	result := e.run(ctx, m, params, callCtx)
	result.Duration = time.Since(start)

	if result.Success && result.Data != nil {
		e.mu.Lock()
		e.shared[m.Name()+"_result"] = result.Data
		e.shared["last_result"] = result.Data
		e.mu.Unlock()
	}

	e.logger.Info().
		Str("module", m.Name()).
		Bool("success", result.Success).
		Dur("duration", result.Duration).
		Msg("module execution finished")

	return result
}

func (e *Executor) run(ctx context.Context, m Module, params map[string]any, callCtx map[string]any) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Str("module", m.Name()).Interface("panic", r).Msg("module panicked")
			result = &Result{Success: false, Error: fmt.Sprintf("module %q panicked: %v", m.Name(), r)}
		}
	}()

	if err := e.ensureInitialized(ctx, m); err != nil {
		return Failure(fmt.Errorf("initialize module %q: %w", m.Name(), err))
	}

	merged := e.Context()
	for k, v := range callCtx {
		merged[k] = v
	}

	res, err := m.Execute(ctx, params, merged)
	if err != nil {
		e.logger.Error().Err(err).Str("module", m.Name()).Msg("module execution failed")
		return Failure(err)
	}
	if res == nil {
		return Failure(fmt.Errorf("module %q returned no result", m.Name()))
	}
	return res
}

func (e *Executor) ensureInitialized(ctx context.Context, m Module) error {
	e.mu.Lock()
	done := e.initialized[m.Name()]
	e.mu.Unlock()
	if done {
		return nil
	}

	e.logger.Debug().Str("module", m.Name()).Msg("initializing module")
	if err := m.Init(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	e.initialized[m.Name()] = true
	e.mu.Unlock()
	return nil
}

// Context returns a snapshot copy of the shared execution context.
func (e *Executor) Context() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.shared))
	for k, v := range e.shared {
		out[k] = v
	}
	return out
}

// SetContext stores one shared-context value.
func (e *Executor) SetContext(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shared[key] = value
}

// ClearContext drops all shared state and initialization tracking.
func (e *Executor) ClearContext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shared = make(map[string]any)
	e.initialized = make(map[string]bool)
}

// Shutdown calls Cleanup on every module that was initialized.
func (e *Executor) Shutdown(ctx context.Context, registry *Registry) {
	e.mu.Lock()
	names := make([]string, 0, len(e.initialized))
	for name := range e.initialized {
		names = append(names, name)
	}
	e.mu.Unlock()

	for _, name := range names {
		if m, ok := registry.Get(name); ok {
			if err := m.Cleanup(ctx); err != nil {
				e.logger.Warn().Err(err).Str("module", name).Msg("module cleanup failed")
			}
		}
	}
}
