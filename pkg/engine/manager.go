// pkg/engine/manager.go
package engine

import (
	"context"

	"github.com/taskora-ai/taskora/pkg/config"
	"github.com/taskora-ai/taskora/pkg/event"
	"github.com/taskora-ai/taskora/pkg/hook"
	"github.com/taskora-ai/taskora/pkg/version"
)

// AppManager holds the application-wide collaborators constructed by
// the factory: configuration, event bus, lifecycle hooks, and a
// cancellable root context.
type AppManager struct {
	ctx    context.Context
	cancel context.CancelFunc

	ConfigManager *config.Manager // Configuration manager for loading and managing application settings.

	EventBus *event.Bus // Event bus carrying task, stage, and subtask events.

	// Registry holds the application's modules. It is populated once at
	// startup, before any task runs.
	Registry *Registry

	HookManager *hook.Manager // Hook manager for startup and shutdown lifecycle hooks.

	// Version holds the build's version information.
	Version version.Struct
}

// Context returns the root context associated with the AppManager.
// Long-running operations should derive from it so Shutdown cancels
// them.
func (a *AppManager) Context() context.Context {
	return a.ctx
}

// Startup triggers the registered startup hooks.
func (a *AppManager) Startup() {
	a.HookManager.Trigger(a.ctx, hook.EventStartup)
}

// Shutdown runs the registered shutdown hooks and then cancels the
// root context.
func (a *AppManager) Shutdown() {
	a.HookManager.Trigger(context.Background(), hook.EventShutdown)
	a.cancel()
}

type ctxKey int

const appManagerKey ctxKey = iota

// WithAppManager stores the AppManager in the context for command
// handlers.
func WithAppManager(ctx context.Context, a *AppManager) context.Context {
	return context.WithValue(ctx, appManagerKey, a)
}

// AppManagerFromContext retrieves the AppManager stored by
// WithAppManager.
func AppManagerFromContext(ctx context.Context) (*AppManager, bool) {
	a, ok := ctx.Value(appManagerKey).(*AppManager)
	return a, ok
}
