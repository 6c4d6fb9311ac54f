// Package apiclient talks to the apology service from the command line.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"sorrymonster/pkg/clients"
	"sorrymonster/pkg/models"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("apology service returned %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

type Client struct {
	baseURL      string
	token        string
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
	shouldRetry  func(resp *http.Response, err error) bool
	maxRetries   int
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// WithToken sends an Authorization header, which lifts the caller into the
// authenticated rate limit tier.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		if cfg.ShouldRetry == nil {
			cfg.ShouldRetry = clients.DefaultShouldRetry
		}
		c.httpExecutor = clients.NewHTTPExecutor(cfg)
		c.shouldRetry = cfg.ShouldRetry
		c.maxRetries = max(cfg.MaxRetries, 0)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	defaultConfig := clients.DefaultHTTPExecutorConfig()
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       clients.NewHTTPClient(3 * time.Minute),
		httpExecutor: clients.NewHTTPExecutor(defaultConfig),
		shouldRetry:  defaultConfig.ShouldRetry,
		maxRetries:   defaultConfig.MaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	var out models.GenerationResult
	if err := c.post(ctx, "/v1/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Interpret(ctx context.Context, req *models.InterpretRequest) (*models.InterpretResponse, error) {
	var out models.InterpretResponse
	if err := c.post(ctx, "/v1/interpret", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Moderate(ctx context.Context, text string) (*models.ModerationResult, error) {
	var out models.ModerationResult
	if err := c.post(ctx, "/v1/moderate", models.ModerationRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Lucky(ctx context.Context, req *models.LuckyRequest) (*models.LuckyResponse, error) {
	var out models.LuckyResponse
	if err := c.post(ctx, "/v1/lucky", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope models.ErrorResponse
		if raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(raw, &envelope) == nil {
			apiErr.Message = envelope.Error
			apiErr.Details = envelope.Details
			if envelope.Detail != "" {
				apiErr.Details = append(apiErr.Details, envelope.Detail)
			}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if c.httpExecutor == nil {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		return c.client.Do(req)
	}

	// The last attempt's response is handed back to the caller with its body
	// intact so the error envelope can still be decoded.
	attempt := 0
	return clients.ExecuteHTTP(ctx, c.httpExecutor, func() (*http.Response, error) {
		attempt++
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if attempt <= c.maxRetries && c.shouldRetry != nil && c.shouldRetry(resp, err) {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
		}
		return resp, err
	})
}
