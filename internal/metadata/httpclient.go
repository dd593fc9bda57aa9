package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// retryClient wraps an http.Client with a short bounded retry and a brief
// backoff between attempts. Retries never extend past context cancellation.
type retryClient struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

func newRetryClient(timeout time.Duration, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *retryClient {
	return &retryClient{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// getJSON fetches url and decodes the response body into v.
func (c *retryClient) getJSON(ctx context.Context, url string, v any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, v)
}

// postJSON sends body as JSON to url and decodes the response into v.
func (c *retryClient) postJSON(ctx context.Context, url string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, payload, v)
}

func (c *retryClient) doJSON(ctx context.Context, method, url string, body []byte, v any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doOnce(ctx, method, url, body, v)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}
		c.logger.Debug("Request attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return lastErr
}

func (c *retryClient) doOnce(ctx context.Context, method, url string, body []byte, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
