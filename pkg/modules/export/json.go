// pkg/modules/export/json.go
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/engine"
)

// JSONExporter writes the result data to a JSON file.
type JSONExporter struct {
	dir    string
	logger zerolog.Logger
}

// NewJSONExporter creates the JSON exporter writing into dir.
func NewJSONExporter(dir string) *JSONExporter {
	return &JSONExporter{
		dir:    dir,
		logger: log.With().Str("component", "module.json_exporter").Logger(),
	}
}

func (m *JSONExporter) Name() string                      { return "json_exporter" }
func (m *JSONExporter) Type() engine.ModuleType           { return engine.ExporterModuleType }
func (m *JSONExporter) Capabilities() engine.Capability   { return engine.JSONExporterCapability }
func (m *JSONExporter) Cleanup(ctx context.Context) error { return nil }

func (m *JSONExporter) Init(ctx context.Context) error {
	if m.dir == "" {
		m.dir = "output"
	}
	return os.MkdirAll(m.dir, 0o755)
}

func (m *JSONExporter) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	data := shared["last_result"]
	if data == nil {
		return nil, fmt.Errorf("json_exporter: no input data from previous step")
	}

	path := filepath.Join(m.dir, exportFilename(params, "json"))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("json_exporter: create %q: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("json_exporter: encode: %w", err)
	}

	m.logger.Info().Str("path", path).Msg("json export written")

	return &engine.Result{
		Success:  true,
		Data:     path,
		Metadata: map[string]any{"path": path},
	}, nil
}
