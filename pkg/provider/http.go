// Package provider implements the backtest collaborators used by the chart:
// a remote HTTP API, a local CSV based provider and a response cache.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/logger"
	"github.com/xhit/go-str2duration/v2"
)

// errRetryable marks failures worth another attempt
var errRetryable = errors.New("retryable")

// HTTPClient talks to the backtest API under <baseURL>/api/backtest
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	attempts int
	backoff  *backoff.Backoff
	log      logger.Logger
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithTimeout sets the per request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

// WithAttempts sets how many times a request is tried
func WithAttempts(attempts int) Option {
	return func(c *HTTPClient) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// WithBackoff sets the retry delay bounds
func WithBackoff(min, max time.Duration) Option {
	return func(c *HTTPClient) {
		c.backoff = &backoff.Backoff{Min: min, Max: max, Factor: 2}
	}
}

// NewHTTPClient creates a client for the API served at baseURL
func NewHTTPClient(baseURL string, log logger.Logger, options ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		attempts: 3,
		backoff: &backoff.Backoff{
			Min:    100 * time.Millisecond,
			Max:    1 * time.Second,
			Factor: 2,
		},
		log: log,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Compare runs the strategy together with a Buy & Hold benchmark
func (c *HTTPClient) Compare(ctx context.Context, req core.Request) (*core.Comparison, error) {
	var out core.Comparison
	if err := c.post(ctx, "compare", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Run runs the strategy alone
func (c *HTTPClient) Run(ctx context.Context, req core.Request) (*core.StrategyResult, error) {
	var out core.StrategyResult
	if err := c.post(ctx, "run", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scan runs the strategy over several markets
func (c *HTTPClient) Scan(ctx context.Context, req core.Request) (*core.ScanResult, error) {
	var out core.ScanResult
	if err := c.post(ctx, "scan", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Optimize searches for better strategy parameters
func (c *HTTPClient) Optimize(ctx context.Context, req core.Request) (*core.OptimizeResult, error) {
	var out core.OptimizeResult
	if err := c.post(ctx, "optimize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Train learns parameters from the oracle strategy
func (c *HTTPClient) Train(ctx context.Context, req core.Request) (*core.TrainResult, error) {
	var out core.TrainResult
	if err := c.post(ctx, "train", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Infer derives a strategy from the marked trades in req.Logic
func (c *HTTPClient) Infer(ctx context.Context, req core.Request) (*core.InferResult, error) {
	var out core.InferResult
	if err := c.post(ctx, "infer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) post(ctx context.Context, operation string, req core.Request, out any) error {
	if err := ValidateTimeframe(req.Timeframe); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	url := fmt.Sprintf("%s/api/backtest/%s", c.baseURL, operation)
	log := c.log.WithFields(map[string]any{"operation": operation, "market": req.Market})

	var content []byte
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff.ForAttempt(float64(attempt - 1))
			log.Warnf("retrying in %s (attempt %d/%d): %v", wait, attempt+1, c.attempts, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		content, err = c.do(ctx, url, body)
		if err == nil || !errors.Is(err, errRetryable) {
			break
		}
	}

	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}

	return decode(content, out)
}

func (c *HTTPClient) do(ctx context.Context, url string, body []byte) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", errRetryable, err)
	}

	switch {
	case response.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", errRetryable, response.StatusCode)
	case response.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrProvider, response.StatusCode, bytes.TrimSpace(content))
	}

	return content, nil
}

// decode unmarshals a provider body, turning {"error": "..."} replies into errors
func decode(content []byte, out any) error {
	var failure struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(content, &failure); err != nil {
		return fmt.Errorf("%w: malformed response: %v", core.ErrProvider, err)
	}
	if failure.Error != nil {
		return fmt.Errorf("%w: %s", core.ErrProvider, *failure.Error)
	}

	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("%w: unexpected response shape: %v", core.ErrProvider, err)
	}

	return nil
}

// ValidateTimeframe checks that timeframe is a duration such as "1h" or "1d"
func ValidateTimeframe(timeframe string) error {
	if timeframe == "" {
		return fmt.Errorf("%w: empty", core.ErrInvalidTimeframe)
	}

	d, err := str2duration.ParseDuration(timeframe)
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: %q", core.ErrInvalidTimeframe, timeframe)
	}

	return nil
}
