// pkg/modules/modules.go
// Package modules wires the stock module families into a registry.
package modules

import (
	"github.com/taskora-ai/taskora/pkg/config"
	"github.com/taskora-ai/taskora/pkg/engine"
	"github.com/taskora-ai/taskora/pkg/modules/export"
	"github.com/taskora-ai/taskora/pkg/modules/process"
	"github.com/taskora-ai/taskora/pkg/modules/source"
	"github.com/taskora-ai/taskora/pkg/modules/visualize"
)

// RegisterDefaults registers the stock modules into the registry.
// Registration order matters: within one type, earlier modules win
// capability ties, so the cheap static fetcher precedes the
// browser-backed dynamic one. The dynamic fetcher is registered only
// when a render service is configured.
func RegisterDefaults(registry *engine.Registry, cfg config.Config) {
	registry.Register(source.NewStaticFetcher())
	if cfg.Engine.RenderServiceURL != "" {
		registry.Register(source.NewDynamicFetcher(cfg.Engine.RenderServiceURL))
	}
	registry.Register(source.NewAPIClient())

	registry.Register(process.NewTransformer())

	registry.Register(visualize.NewChartBuilder())

	registry.Register(export.NewCSVExporter(cfg.Output.Dir))
	registry.Register(export.NewJSONExporter(cfg.Output.Dir))
}
