// Package places implements the maps namespace on top of the Google Maps
// Platform web services.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL of the maps web services
	DefaultBaseURL = "https://maps.googleapis.com/maps/api"

	// DefaultTimeout is the HTTP timeout of a single attempt
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second)
	DefaultRateLimit = 10
)

// RetryStrategy controls retries of transient failures
type RetryStrategy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultRetryStrategy = RetryStrategy{
	MaxAttempts:     3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// Client talks to the maps web services and implements ports.Maps
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	logger        arbor.ILogger
	limiter       *rate.Limiter
	retry         RetryStrategy
	sessionTokens bool

	ctx    context.Context
	cancel context.CancelFunc
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

func WithRetry(strategy RetryStrategy) ClientOption {
	return func(c *Client) {
		c.retry = strategy
	}
}

// WithSessionTokens groups the autocomplete calls of each service instance
// into one billing session
func WithSessionTokens(enabled bool) ClientOption {
	return func(c *Client) {
		c.sessionTokens = enabled
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		retry:   DefaultRetryStrategy,
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = arbor.NewLogger()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	return c
}

// Close aborts calls still in flight; their callbacks report UNKNOWN_ERROR
func (c *Client) Close() {
	c.cancel()
}

// APIError represents a non-200 HTTP answer
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("maps API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a GET request and returns the body, retrying transport errors
// and 5xx answers
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	c.logger.Debug().
		Str("url", c.baseURL+path).
		Msg("Maps API request")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.InitialInterval
	bo.MaxInterval = c.retry.MaxInterval

	attempts := c.retry.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}
			if resp.StatusCode >= http.StatusInternalServerError {
				return nil, apiErr
			}
			return nil, backoff.Permanent(apiErr)
		}
		return body, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(attempts))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, err
	}

	return body, nil
}
