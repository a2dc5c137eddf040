// pkg/fetch/fetcher.go
// Package fetch resolves raw task input into task content. Input is
// either a literal task statement, used as-is, or a URL whose body is
// retrieved over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskora-ai/taskora/pkg/config"
	"github.com/taskora-ai/taskora/pkg/engine"
)

// attachment-style links that usually need a preparation action before
// the task statement is complete.
var attachmentPattern = regexp.MustCompile(`(?i)href="[^"]+\.(pdf|zip|mp3|wav|png|jpe?g|xlsx?)"`)

var submitPattern = regexp.MustCompile(`(?i)(?:action|href)="([^"]*submit[^"]*)"`)

// HTTPFetcher implements engine.TaskFetcher over net/http.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      zerolog.Logger
}

// NewHTTPFetcher creates a fetcher from the fetch configuration.
func NewHTTPFetcher(cfg config.FetchConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	return &HTTPFetcher{
		client:      &http.Client{Timeout: timeout},
		userAgent:   cfg.UserAgent,
		maxBodySize: maxBody,
		logger:      log.With().Str("component", "TaskFetcher").Logger(),
	}
}

// Fetch resolves the task content. An explicit url takes precedence;
// otherwise input is fetched when it is itself a URL and used literally
// when it is not. Literal input is always self-contained.
func (f *HTTPFetcher) Fetch(ctx context.Context, input, taskURL string) (*engine.FetchedTask, error) {
	target := taskURL
	if target == "" && isURL(input) {
		target = input
	}

	if target == "" {
		return &engine.FetchedTask{
			Content:       input,
			SelfContained: true,
			Metadata:      map[string]any{"source": "literal"},
		}, nil
	}

	f.logger.Info().Str("url", target).Msg("fetching task content")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", target, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch task from %q: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch task from %q: unexpected status %s", target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read task body from %q: %w", target, err)
	}

	content := string(body)
	fetched := &engine.FetchedTask{
		Content:       content,
		SourceURL:     target,
		SelfContained: !attachmentPattern.MatchString(content),
		Metadata: map[string]any{
			"source":       "http",
			"content_type": resp.Header.Get("Content-Type"),
			"size":         len(body),
		},
	}

	if m := submitPattern.FindStringSubmatch(content); m != nil {
		fetched.SubmissionURL = resolveRef(target, m[1])
	}

	return fetched, nil
}

func isURL(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != "" && !strings.ContainsAny(s, " \n")
}

// resolveRef resolves a possibly relative link against the page URL.
func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
