// pkg/modules/export/csv.go
// Package export implements the exporter module family: CSV and JSON
// file writers.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskora-ai/taskora/pkg/engine"
)

// CSVExporter writes result rows to a CSV file.
type CSVExporter struct {
	dir    string
	logger zerolog.Logger
}

// NewCSVExporter creates the CSV exporter writing into dir.
func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{
		dir:    dir,
		logger: log.With().Str("component", "module.csv_exporter").Logger(),
	}
}

func (m *CSVExporter) Name() string                      { return "csv_exporter" }
func (m *CSVExporter) Type() engine.ModuleType           { return engine.ExporterModuleType }
func (m *CSVExporter) Capabilities() engine.Capability   { return engine.CSVExporterCapability }
func (m *CSVExporter) Cleanup(ctx context.Context) error { return nil }

func (m *CSVExporter) Init(ctx context.Context) error {
	if m.dir == "" {
		m.dir = "output"
	}
	return os.MkdirAll(m.dir, 0o755)
}

func (m *CSVExporter) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	rows, err := tabular(shared["last_result"])
	if err != nil {
		return nil, fmt.Errorf("csv_exporter: %w", err)
	}

	path := filepath.Join(m.dir, exportFilename(params, "csv"))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv_exporter: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := columnsOf(rows)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("csv_exporter: write header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = cast.ToString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv_exporter: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv_exporter: flush: %w", err)
	}

	m.logger.Info().Str("path", path).Int("rows", len(rows)).Msg("csv export written")

	return &engine.Result{
		Success: true,
		Data:    path,
		Metadata: map[string]any{
			"path":    path,
			"rows":    len(rows),
			"columns": len(header),
		},
	}, nil
}

// tabular coerces exported data into rows. Scalar data becomes a single
// one-column row.
func tabular(data any) ([]map[string]any, error) {
	switch v := data.(type) {
	case nil:
		return nil, fmt.Errorf("no input data from previous step")
	case []map[string]any:
		return v, nil
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if row, err := cast.ToStringMapE(item); err == nil {
				rows = append(rows, row)
			} else {
				rows = append(rows, map[string]any{"value": item})
			}
		}
		return rows, nil
	case map[string]any:
		return []map[string]any{v}, nil
	default:
		return []map[string]any{{"value": v}}, nil
	}
}

// columnsOf unions the keys of all rows in sorted order.
func columnsOf(rows []map[string]any) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func exportFilename(params map[string]any, ext string) string {
	name := cast.ToString(params["filename"])
	if name == "" {
		name = fmt.Sprintf("result_%s", time.Now().Format("20060102_150405"))
	}
	if filepath.Ext(name) == "" {
		name += "." + ext
	}
	return filepath.Base(name)
}
