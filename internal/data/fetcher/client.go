package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
	"github.com/andreero0/nestsync-timeline/internal/util"
)

// APIError is returned when the upstream API answers with an error status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// recordsResponse is the wire shape of a paginated records page.
type recordsResponse struct {
	Records []model.RawRecord `json:"records"`
}

// Client is the HTTP implementation of RecordFetcher.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates an HTTP record fetcher. The timeout applies per
// request; a fetch resolves to a TimeoutError rather than hanging.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

// FetchRecords performs the paginated GET and decodes the page. Retries
// automatically on HTTP 5xx or 429 with exponential back-off, honoring
// Retry-After. Failures classify as TimeoutError or NetworkError.
func (c *Client) FetchRecords(ctx context.Context, query Query) ([]model.RawRecord, error) {
	requestID := uuid.NewString()
	urlStr := c.buildURL(query)

	util.LogDebugf("GET %s (request %s)", urlStr, requestID)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", requestID)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = classifyTransportError(err)
			if attempt < c.maxRetries && !isTimeout(err) {
				wait := backoffDelay(attempt)
				util.LogDebugf("Attempt %d failed (%v); retrying in %v", attempt, err, wait)
				if !sleepCtx(ctx, wait) {
					return nil, lastErr
				}
				continue
			}
			return nil, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, &model.NetworkError{Op: "read response", Err: readErr}
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &model.NetworkError{Op: "fetch records", Err: &APIError{StatusCode: resp.StatusCode, Message: string(body)}}
			if attempt < c.maxRetries {
				wait := backoffDelay(attempt)
				if resp.StatusCode == http.StatusTooManyRequests {
					if ra := resp.Header.Get("Retry-After"); ra != "" {
						if secs, err := strconv.Atoi(ra); err == nil {
							wait = time.Duration(secs) * time.Second
						}
					}
				}
				util.LogDebugf("Attempt %d failed (HTTP %d); retrying in %v", attempt, resp.StatusCode, wait)
				if !sleepCtx(ctx, wait) {
					return nil, lastErr
				}
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode >= 400 {
			return nil, &model.NetworkError{Op: "fetch records", Err: &APIError{StatusCode: resp.StatusCode, Message: string(body)}}
		}

		var page recordsResponse
		if err := sonic.Unmarshal(body, &page); err != nil {
			return nil, &model.NetworkError{Op: "decode response", Err: err}
		}

		util.LogDebugf("Response: HTTP %d, %d records (request %s)", resp.StatusCode, len(page.Records), requestID)
		return page.Records, nil
	}

	return nil, lastErr
}

// buildURL assembles the query string for a page request.
func (c *Client) buildURL(query Query) string {
	q := url.Values{}
	q.Set("childId", query.ChildID)
	q.Set("limit", strconv.Itoa(query.Limit))
	q.Set("offset", strconv.Itoa(query.Offset))
	if query.Kind != "" {
		q.Set("kind", query.Kind)
	}
	if query.DaysBack > 0 {
		q.Set("daysBack", strconv.Itoa(query.DaysBack))
	}
	return fmt.Sprintf("%s/records?%s", c.baseURL, q.Encode())
}

// backoffDelay doubles per attempt: 1s, 2s, 4s.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * time.Second
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyTransportError maps a transport failure into the error taxonomy.
func classifyTransportError(err error) error {
	if isTimeout(err) {
		return &model.TimeoutError{Op: "fetch records", Err: err}
	}
	return &model.NetworkError{Op: "fetch records", Err: err}
}
