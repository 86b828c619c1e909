// Package backend fetches backtest documents from the backtesting API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"backtest-review/internal/domain"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Options holds options for creating a new Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
	// HTTPClient overrides the client built from Timeout, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the backtesting API with rate limiting and retries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetry   time.Duration
	maxBody    int64
}

// NewClient creates a new backend client.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetry:   opts.MaxRetryTimeout,
		maxBody:    maxBodyBytes,
	}, nil
}

// FetchBacktestDetail retrieves GET /backtests/{id}?user_id={uid}.
func (c *Client) FetchBacktestDetail(ctx context.Context, userID, backtestID string) (*domain.BacktestDetail, error) {
	endpoint := c.endpoint("/backtests/"+url.PathEscape(backtestID), url.Values{"user_id": {userID}})

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	detail, err := domain.DecodeBacktestDetail(body)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

// get performs a GET with rate limiting and exponential backoff. Transport
// errors and retryable statuses are retried; other API errors are returned at once.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request %s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		// One byte past the limit tells a full body from a cut one.
		data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if int64(len(data)) > c.maxBody {
			return backoff.Permanent(fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody))
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if resp.StatusCode == http.StatusNoContent ||
			!strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
			return backoff.Permanent(ErrEmptyResponse)
		}

		body = data
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetry

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return body, nil
}
