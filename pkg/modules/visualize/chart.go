// pkg/modules/visualize/chart.go
// Package visualize implements the visualization module family. The
// chart builder emits a renderer-agnostic chart specification rather
// than drawing pixels itself.
package visualize

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskora-ai/taskora/pkg/engine"
)

// ChartBuilder turns tabular data into a chart specification.
type ChartBuilder struct {
	logger zerolog.Logger
}

// NewChartBuilder creates the chart visualization module.
func NewChartBuilder() *ChartBuilder {
	return &ChartBuilder{
		logger: log.With().Str("component", "module.chart_builder").Logger(),
	}
}

func (m *ChartBuilder) Name() string                      { return "chart_builder" }
func (m *ChartBuilder) Type() engine.ModuleType           { return engine.VisualizerModuleType }
func (m *ChartBuilder) Capabilities() engine.Capability   { return engine.ChartCreatorCapability }
func (m *ChartBuilder) Init(ctx context.Context) error    { return nil }
func (m *ChartBuilder) Cleanup(ctx context.Context) error { return nil }

// Execute builds a chart spec from shared["last_result"]. Axis fields
// default to the first two keys of the first row when the step
// parameters leave them unset.
func (m *ChartBuilder) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	data := shared["last_result"]
	if data == nil {
		return nil, fmt.Errorf("chart_builder: no input data from previous step")
	}

	chartType := cast.ToString(params["chart_type"])
	if chartType == "" {
		chartType = "bar"
	}

	xAxis := cast.ToString(params["x_axis"])
	yAxis := cast.ToString(params["y_axis"])
	if xAxis == "" || yAxis == "" {
		x, y := inferAxes(data)
		if xAxis == "" {
			xAxis = x
		}
		if yAxis == "" {
			yAxis = y
		}
	}

	spec := map[string]any{
		"chart_type": chartType,
		"title":      cast.ToString(params["title"]),
		"x_axis":     xAxis,
		"y_axis":     yAxis,
		"data":       data,
	}

	m.logger.Debug().Str("chart_type", chartType).Str("x", xAxis).Str("y", yAxis).Msg("chart spec built")

	return &engine.Result{
		Success:  true,
		Data:     spec,
		Metadata: map[string]any{"chart_type": chartType},
	}, nil
}

// inferAxes picks the first string-valued key as x and the first
// numeric key as y from the first row.
func inferAxes(data any) (string, string) {
	rows := cast.ToSlice(data)
	if len(rows) == 0 {
		return "", ""
	}
	row, err := cast.ToStringMapE(rows[0])
	if err != nil {
		return "", ""
	}

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var x, y string
	for _, key := range keys {
		if _, err := cast.ToFloat64E(row[key]); err == nil {
			if y == "" {
				y = key
			}
		} else if x == "" {
			x = key
		}
	}
	return x, y
}
