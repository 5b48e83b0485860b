// Package engine implements the research engine gateway on top of the OpenAI Responses API.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/veille-api/internal/core"
	apperrors "github.com/target/veille-api/internal/errors"
)

const (
	responsesPath = "/responses"
	// maxReplyBytes caps how much of a reply is buffered; replies carry reasoning traces and sources.
	maxReplyBytes = 64 << 20
	// maxErrorSnippet bounds how much of an error body ends up in messages.
	maxErrorSnippet = 512
)

// Config captures how to reach the Responses API.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds a single call. Zero means no bound beyond the caller's context.
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// Client calls the Responses API with web search enabled and normalizes the reply.
// It never retries.
type Client struct {
	apiKey   string
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

var _ core.ResearchEngine = (*Client)(nil)

// NewClient builds a Responses API client. An empty API key is accepted; calls then fail
// with a configuration error.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("engine base url %q must be an absolute http(s) URL", cfg.BaseURL)
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout < 0 {
		timeout = 0
	}

	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		endpoint: base + responsesPath,
		timeout:  timeout,
		client:   hc,
		logger:   logger.With("component", "research_engine"),
	}, nil
}

// StatusError reports a non-2xx reply from the engine.
type StatusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("engine returned status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("engine returned status %d: %s", e.StatusCode, e.Message)
}

// Research performs one blocking research call.
func (c *Client) Research(ctx context.Context, req core.EngineRequest) (*core.EngineReply, error) {
	if c.apiKey == "" {
		return nil, apperrors.Configuration("engine credential is not configured")
	}

	callBody, err := buildRequest(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "build engine request")
	}
	body, err := json.Marshal(callBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode engine request")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.post(ctx, body)
	if err != nil {
		c.logger.WarnContext(ctx, "engine call failed",
			"model", req.Params.Model,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, apperrors.EngineCallFailed(err, "engine call failed")
	}

	text, err := ExtractText(raw)
	if err != nil {
		return nil, apperrors.EngineCallFailed(err, "engine call failed")
	}

	c.logger.InfoContext(ctx, "engine call completed",
		"model", req.Params.Model,
		"duration", time.Since(start),
		"reply_bytes", len(raw),
	)

	return &core.EngineReply{Text: text, Raw: json.RawMessage(raw)}, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if closeErr := resp.Body.Close(); closeErr != nil && readErr == nil {
		readErr = fmt.Errorf("close engine response body: %w", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseStatusError(resp.StatusCode, raw)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read engine response: %w", readErr)
	}
	return raw, nil
}

func parseStatusError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &StatusError{StatusCode: status, Type: envelope.Error.Type, Message: envelope.Error.Message}
	}

	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet] + "..."
	}
	if snippet == "" {
		snippet = http.StatusText(status)
	}
	return &StatusError{StatusCode: status, Message: snippet}
}

// IsStatus reports whether err carries an engine StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
