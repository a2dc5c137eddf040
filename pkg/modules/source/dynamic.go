// pkg/modules/source/dynamic.go
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskora-ai/taskora/pkg/engine"
)

// DynamicFetcher retrieves JavaScript-rendered pages through an
// external browser rendering service. The service accepts a JSON body
// {"url": ...} and returns the rendered HTML.
type DynamicFetcher struct {
	renderURL string
	client    *http.Client
	logger    zerolog.Logger
}

// NewDynamicFetcher creates the dynamic sourcing module against the
// given rendering service endpoint.
func NewDynamicFetcher(renderURL string) *DynamicFetcher {
	return &DynamicFetcher{
		renderURL: renderURL,
		logger:    log.With().Str("component", "module.dynamic_fetcher").Logger(),
	}
}

func (m *DynamicFetcher) Name() string                      { return "dynamic_fetcher" }
func (m *DynamicFetcher) Type() engine.ModuleType           { return engine.SourceScraperModuleType }
func (m *DynamicFetcher) Capabilities() engine.Capability   { return engine.DynamicScraperCapability }
func (m *DynamicFetcher) Cleanup(ctx context.Context) error { return nil }

func (m *DynamicFetcher) Init(ctx context.Context) error {
	if m.renderURL == "" {
		return fmt.Errorf("dynamic_fetcher: no render service configured")
	}
	if m.client == nil {
		// Rendering includes full page load, so the budget is generous.
		m.client = &http.Client{Timeout: 2 * time.Minute}
	}
	return nil
}

func (m *DynamicFetcher) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	url := cast.ToString(params["url"])
	if url == "" {
		return nil, fmt.Errorf("dynamic_fetcher: missing url parameter")
	}

	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, fmt.Errorf("dynamic_fetcher: encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.renderURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("dynamic_fetcher: build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	m.logger.Info().Str("url", url).Msg("rendering page")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dynamic_fetcher: render %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dynamic_fetcher: render %q: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dynamic_fetcher: read rendered body: %w", err)
	}

	return &engine.Result{
		Success: true,
		Data:    string(body),
		Metadata: map[string]any{
			"url":      url,
			"rendered": true,
			"bytes":    len(body),
		},
	}, nil
}
