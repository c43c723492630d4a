package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/airqd/airqd/internal/logger"
	"github.com/airqd/airqd/models"
	"github.com/sony/gobreaker"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
)

// Client fetches and normalizes per-location readings from the provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	baseDelay  time.Duration
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a Client against the given feed base URL.
func NewClient(baseURL, token string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		token:      token,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		breaker:    cb,
	}
}

// Fetch performs one provider call for the location and returns the
// normalized snapshot plus the forecast record, if the payload carried one.
func (c *Client) Fetch(ctx context.Context, loc models.Location) (models.Snapshot, *models.ForecastRecord, error) {
	u := fmt.Sprintf("%s/%s/?token=%s", c.baseURL, url.PathEscape(loc.StationRef), url.QueryEscape(c.token))

	raw, err := c.get(ctx, u)
	if err != nil {
		return models.Snapshot{}, nil, err
	}

	return Normalize(loc, raw, time.Now().UTC())
}

// get runs the request with bounded exponential-backoff retries on
// transient failures. Permanent failures and an open breaker surface
// immediately.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		body, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}

		lastErr = err
		if attempt == c.maxRetries {
			break
		}

		logger.Warn("request to %s failed (attempt %d/%d): %v, retrying in %v", url, attempt, c.maxRetries, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &PermanentError{Err: err}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TransientError{Err: ctx.Err()}
			}
			// Timeouts and connection resets land here.
			return nil, &TransientError{Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return io.ReadAll(resp.Body)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &TransientError{Err: fmt.Errorf("rate limited: %s", resp.Status)}
		case resp.StatusCode >= 500:
			return nil, &TransientError{Err: fmt.Errorf("server error: %s", resp.Status)}
		default:
			return nil, &PermanentError{StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &PermanentError{Err: fmt.Errorf("unexpected result type %T", result)}
	}
	return body, nil
}
