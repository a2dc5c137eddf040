// pkg/modules/source/api.go
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskora-ai/taskora/pkg/engine"
)

// APIClient calls JSON HTTP APIs.
type APIClient struct {
	client *http.Client
	apiKey string
	logger zerolog.Logger
}

// NewAPIClient creates the API sourcing module. The bearer token is
// taken from TASKORA_API_KEY when set.
func NewAPIClient() *APIClient {
	return &APIClient{
		logger: log.With().Str("component", "module.api_client").Logger(),
	}
}

func (m *APIClient) Name() string                      { return "api_client" }
func (m *APIClient) Type() engine.ModuleType           { return engine.SourceAPIModuleType }
func (m *APIClient) Capabilities() engine.Capability   { return engine.APIClientCapability }
func (m *APIClient) Cleanup(ctx context.Context) error { return nil }

func (m *APIClient) Init(ctx context.Context) error {
	if m.client == nil {
		m.client = &http.Client{Timeout: defaultTimeout}
	}
	m.apiKey = os.Getenv("TASKORA_API_KEY")
	return nil
}

func (m *APIClient) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	url := cast.ToString(params["url"])
	if url == "" {
		return nil, fmt.Errorf("api_client: missing url parameter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("api_client: build request for %q: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api_client: call %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("api_client: call %q: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api_client: read body: %w", err)
	}
	data, warnings := decodeBody(body, "json", resp.Header.Get("Content-Type"))

	return &engine.Result{
		Success:  true,
		Data:     data,
		Warnings: warnings,
		Metadata: map[string]any{
			"url":         url,
			"status":      resp.StatusCode,
			"api_latency": time.Since(start).String(),
		},
	}, nil
}
