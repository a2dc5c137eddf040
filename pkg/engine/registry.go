// pkg/engine/registry.go
package engine

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ModuleInfo is the read-only registry snapshot entry for one module.
type ModuleInfo struct {
	Name         string     `json:"name"`
	Type         ModuleType `json:"type"`
	Capabilities Capability `json:"capabilities"`
}

// Registry is the process-wide module catalog. One long-lived instance
// is created by the entry point and injected by reference into the
// Selector, Decomposer, Router, and Engine.
//
// The Registry is not internally locked: populate it once at startup
// and treat it as read-mostly afterwards. Concurrent Register and
// Unregister calls while tasks are running are a data race the embedder
// must avoid.
type Registry struct {
	byName map[string]Module
	byType map[ModuleType][]Module
	order  []string
	logger zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Module),
		byType: make(map[ModuleType][]Module),
		logger: log.With().Str("component", "ModuleRegistry").Logger(),
	}
}

// Register adds a module to the catalog. Registering a name that
// already exists replaces the previous module; the replacement takes
// the end of the registration order for its type.
func (r *Registry) Register(m Module) {
	name := m.Name()
	if old, exists := r.byName[name]; exists {
		r.logger.Warn().Str("module", name).Msg("module already registered, replacing")
		r.removeFromType(old)
		r.removeFromOrder(name)
	}

	r.byName[name] = m
	r.byType[m.Type()] = append(r.byType[m.Type()], m)
	r.order = append(r.order, name)

	r.logger.Info().Str("module", name).Str("type", string(m.Type())).Msg("registered module")
}

// Unregister removes a module from both indexes. It returns false when
// no module with that name is registered.
func (r *Registry) Unregister(name string) bool {
	m, exists := r.byName[name]
	if !exists {
		return false
	}

	delete(r.byName, name)
	r.removeFromType(m)
	r.removeFromOrder(name)

	r.logger.Info().Str("module", name).Msg("unregistered module")
	return true
}

// Get returns the module registered under name, if any.
func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// ModulesByType returns all modules of the given category in
// registration order. This order is the selection tie-break.
func (r *Registry) ModulesByType(t ModuleType) []Module {
	return r.byType[t]
}

// Modules returns every registered module in registration order.
func (r *Registry) Modules() []Module {
	out := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// List returns a read-only introspection snapshot of the catalog.
func (r *Registry) List() map[string]ModuleInfo {
	out := make(map[string]ModuleInfo, len(r.byName))
	for name, m := range r.byName {
		out[name] = ModuleInfo{
			Name:         name,
			Type:         m.Type(),
			Capabilities: m.Capabilities(),
		}
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.byName)
}

// Clear drops every registered module. Intended for tests.
func (r *Registry) Clear() {
	r.byName = make(map[string]Module)
	r.byType = make(map[ModuleType][]Module)
	r.order = nil
}

func (r *Registry) removeFromType(m Module) {
	mods := r.byType[m.Type()]
	for i, candidate := range mods {
		if candidate.Name() == m.Name() {
			r.byType[m.Type()] = append(mods[:i:i], mods[i+1:]...)
			return
		}
	}
}

func (r *Registry) removeFromOrder(name string) {
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			return
		}
	}
}
