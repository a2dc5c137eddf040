// pkg/modules/source/static.go
// Package source implements the sourcing module family: static HTTP
// scraping, render-service backed dynamic scraping, and JSON API calls.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/taskora-ai/taskora/pkg/engine"
)

const defaultTimeout = 30 * time.Second

// StaticFetcher retrieves static pages and documents over plain HTTP.
type StaticFetcher struct {
	client *http.Client
	logger zerolog.Logger
}

// NewStaticFetcher creates the static sourcing module.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{
		logger: log.With().Str("component", "module.static_fetcher").Logger(),
	}
}

func (m *StaticFetcher) Name() string                      { return "static_fetcher" }
func (m *StaticFetcher) Type() engine.ModuleType           { return engine.SourceScraperModuleType }
func (m *StaticFetcher) Capabilities() engine.Capability   { return engine.StaticScraperCapability }
func (m *StaticFetcher) Cleanup(ctx context.Context) error { return nil }

func (m *StaticFetcher) Init(ctx context.Context) error {
	if m.client == nil {
		m.client = &http.Client{Timeout: defaultTimeout}
	}
	return nil
}

// Execute fetches params["url"]. JSON responses are decoded; everything
// else is returned as raw text.
func (m *StaticFetcher) Execute(ctx context.Context, params map[string]any, shared map[string]any) (*engine.Result, error) {
	url := cast.ToString(params["url"])
	if url == "" {
		return nil, fmt.Errorf("static_fetcher: missing url parameter")
	}

	body, contentType, err := get(ctx, m.client, url)
	if err != nil {
		return nil, err
	}

	format := cast.ToString(params["format"])
	data, warnings := decodeBody(body, format, contentType)

	return &engine.Result{
		Success:  true,
		Data:     data,
		Warnings: warnings,
		Metadata: map[string]any{
			"url":          url,
			"content_type": contentType,
			"bytes":        len(body),
		},
	}, nil
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request for %q: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %q: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body of %q: %w", url, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func decodeBody(body []byte, format, contentType string) (any, []string) {
	isJSON := format == "json" || strings.Contains(contentType, "application/json")
	if !isJSON {
		return string(body), nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body), []string{fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	return decoded, nil
}
