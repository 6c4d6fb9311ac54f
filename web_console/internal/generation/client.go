package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sorrymonster/pkg/clients"
	"sorrymonster/pkg/models"
)

// ErrGenerationFailed is the only failure the console distinguishes. Transport
// errors, non-2xx statuses and undecodable bodies all wrap it.
var ErrGenerationFailed = errors.New("generation failed")

const upstreamName = "apology"

type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apology service returned status: %d", e.StatusCode)
}

// Client posts one GenerationRequest per call. It never retries.
type Client struct {
	baseURL  string
	client   *http.Client
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// WithMetrics records upstream_requests_total and upstream_request_duration_seconds.
func WithMetrics(requests *prometheus.CounterVec, duration *prometheus.HistogramVec) Option {
	return func(c *Client) {
		c.requests = requests
		c.duration = duration
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  clients.NewHTTPClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends req to {baseURL}/v1/generate.
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrGenerationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	c.observe(resp, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, &StatusError{StatusCode: resp.StatusCode})
	}

	var result models.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
	}
	return &result, nil
}

func (c *Client) observe(resp *http.Response, start time.Time) {
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	if c.requests != nil {
		c.requests.WithLabelValues(upstreamName, status).Inc()
	}
	if c.duration != nil {
		c.duration.WithLabelValues(upstreamName).Observe(time.Since(start).Seconds())
	}
}
