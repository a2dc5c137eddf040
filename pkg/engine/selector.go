// pkg/engine/selector.go
package engine

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/task"
)

// Selector picks a module sequence for a task from the Registry.
//
// The tie-break everywhere is "first registered, first matched": there
// is no fitness scoring, so with a fixed registry and fixed inputs the
// selection is fully deterministic.
type Selector struct {
	registry      *Registry
	defaultFormat string
	logger        zerolog.Logger
}

// NewSelector creates a Selector over the given registry.
func NewSelector(registry *Registry) *Selector {
	return &Selector{
		registry:      registry,
		defaultFormat: "csv",
		logger:        log.With().Str("component", "ModuleSelector").Logger(),
	}
}

// SetDefaultExportFormat overrides the exporter format used when the
// task does not request one. Empty input is ignored.
func (s *Selector) SetDefaultExportFormat(format string) {
	if format != "" {
		s.defaultFormat = format
	}
}

// SelectByCapability returns the first module, in registration order,
// whose descriptor has the given boolean capability set. It returns nil
// when no module matches; that is a normal outcome, not an error.
func (s *Selector) SelectByCapability(flag CapabilityFlag) Module {
	for _, m := range s.registry.Modules() {
		if m.Capabilities().Has(flag) {
			s.logger.Debug().Str("module", m.Name()).Str("capability", string(flag)).Msg("selected module by capability")
			return m
		}
	}
	s.logger.Warn().Str("capability", string(flag)).Msg("no module found for capability")
	return nil
}

// SelectModules picks modules for the task in execution order: sourcing,
// processing, visualization, then output.
func (s *Selector) SelectModules(cls *task.Classification, params *task.Parameters) []Module {
	var selected []Module

	if m := s.selectSourcingModule(cls, params); m != nil {
		selected = append(selected, m)
	}
	selected = append(selected, s.selectProcessingModules(params)...)
	if m := s.selectVisualizationModule(params); m != nil {
		selected = append(selected, m)
	}
	if m := s.selectOutputModule(params); m != nil {
		selected = append(selected, m)
	}

	names := make([]string, len(selected))
	for i, m := range selected {
		names[i] = m.Name()
	}
	s.logger.Info().Strs("modules", names).Msg("module selection complete")

	return selected
}

// CanExecuteTask reports whether the registry holds enough modules to
// run the task at all.
func (s *Selector) CanExecuteTask(cls *task.Classification, params *task.Parameters) bool {
	selected := s.SelectModules(cls, params)
	if len(selected) == 0 {
		s.logger.Warn().Msg("no modules selected, cannot execute task")
		return false
	}

	if len(params.DataSources) > 0 {
		hasSourcing := false
		for _, m := range selected {
			if m.Type().IsSourcing() {
				hasSourcing = true
				break
			}
		}
		if !hasSourcing {
			s.logger.Warn().Msg("data sources present but no sourcing module selected")
			return false
		}
	}

	return true
}

func (s *Selector) selectSourcingModule(cls *task.Classification, params *task.Parameters) Module {
	if len(params.DataSources) == 0 {
		return nil
	}

	source := params.DataSources[0]

	if source.Type == task.SourceAPI {
		for _, m := range s.registry.ModulesByType(SourceAPIModuleType) {
			if m.Capabilities().CanHandleAPI {
				return m
			}
		}
	}

	if source.Type == task.SourceURL {
		// The classification flag is the primary signal; per-URL
		// overrides from extraction can also force a dynamic scraper.
		needsJS := cls.RequiresJS
		for _, u := range params.URLs {
			if u.RequiresJS {
				needsJS = true
				break
			}
		}

		if needsJS {
			for _, m := range s.registry.ModulesByType(SourceScraperModuleType) {
				if m.Capabilities().CanScrapeDynamic {
					return m
				}
			}
			s.logger.Warn().Msg("javascript needed but no dynamic scraper available")
		}

		for _, m := range s.registry.ModulesByType(SourceScraperModuleType) {
			if m.Capabilities().CanScrapeStatic {
				return m
			}
		}
	}

	s.logger.Warn().Str("source_type", string(source.Type)).Msg("no suitable sourcing module found")
	return nil
}

func (s *Selector) selectProcessingModules(params *task.Parameters) []Module {
	var selected []Module

	if len(params.Filters) > 0 {
		for _, m := range s.registry.ModulesByType(ProcessorModuleType) {
			caps := m.Capabilities()
			if caps.CanFilter || caps.CanTransformData {
				selected = append(selected, m)
				break
			}
		}
	}

	if len(params.Aggregations) > 0 {
		for _, m := range s.registry.ModulesByType(ProcessorModuleType) {
			if m.Capabilities().CanAggregate {
				if !containsModule(selected, m.Name()) {
					selected = append(selected, m)
				}
				break
			}
		}
	}

	return selected
}

func (s *Selector) selectVisualizationModule(params *task.Parameters) Module {
	if len(params.Visualizations) == 0 {
		return nil
	}

	viz := params.Visualizations[0]

	if viz.Type == "map" {
		for _, m := range s.registry.ModulesByType(VisualizerModuleType) {
			if m.Capabilities().CanCreateMaps {
				return m
			}
		}
	}

	if viz.Type == "chart" {
		for _, m := range s.registry.ModulesByType(VisualizerModuleType) {
			if m.Capabilities().CanCreateCharts {
				return m
			}
		}
	}

	return nil
}

func (s *Selector) selectOutputModule(params *task.Parameters) Module {
	format := s.defaultFormat // applies when the task does not name one
	if params.Output != nil {
		format = params.Output.Format
	}

	for _, m := range s.registry.ModulesByType(ExporterModuleType) {
		caps := m.Capabilities()
		switch {
		case format == "csv" && caps.CanExportCSV:
			return m
		case format == "excel" && caps.CanExportExcel:
			return m
		case format == "json" && caps.CanExportJSON:
			return m
		}
	}

	s.logger.Warn().Str("format", format).Msg("no exporter for requested format")
	return nil
}

func containsModule(mods []Module, name string) bool {
	for _, m := range mods {
		if m.Name() == name {
			return true
		}
	}
	return false
}
