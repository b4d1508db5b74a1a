package pse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2

	userAgent = "psesync/1.0 (https://github.com/mzaleski/psesync)"
)

// Payload is the raw result of one fetch: the response body plus where and
// when it came from. Consumed exactly once by the transformer.
type Payload struct {
	Body        []byte
	URL         string
	RetrievedAt time.Time
}

// Client fetches report data from the PSE reports API.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new PSE API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// BuildURL expands a feed URL template for the given business date
// (YYYY-MM-DD). {business_date} gets the date as-is (JSON API),
// {business_date_compact} gets YYYYMMDD (legacy CSV-style templates).
func BuildURL(template, businessDate string) string {
	url := strings.ReplaceAll(template, "{business_date}", businessDate)
	url = strings.ReplaceAll(url, "{business_date_compact}", strings.ReplaceAll(businessDate, "-", ""))
	return url
}

// FetchDay downloads the report for one business date. Rate limits, 5xx
// responses and transport errors are retried with exponential backoff;
// everything else fails immediately.
func (c *Client) FetchDay(ctx context.Context, urlTemplate, businessDate string) (*Payload, error) {
	url := BuildURL(urlTemplate, businessDate)

	var payload *Payload
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		payload, lastErr = c.doFetch(ctx, url)
		if lastErr == nil {
			return payload, nil
		}

		// Only retry on rate limits, server errors or transport failures
		if !isRetryableError(lastErr) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doFetch(ctx context.Context, url string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Payload{
		Body:        body,
		URL:         url,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// transportError wraps network-level failures so the retry loop can tell
// them apart from non-retryable HTTP statuses.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.err)
}

func (e *transportError) Unwrap() error {
	return e.err
}

func calculateRetryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if err == ErrRateLimited {
		return true
	}
	if _, ok := err.(*ServerError); ok {
		return true
	}
	if _, ok := err.(*transportError); ok {
		return true
	}
	return false
}
