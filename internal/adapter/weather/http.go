// Package weather fetches the daily observation from Weatherbit (conditions)
// and NREL (solar resource).
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
	"github.com/couchcryptid/irrigation-scheduler/internal/retry"
)

const defaultRetryDelay = time.Second

// apiClient is the transport shared by the Weatherbit and NREL clients.
type apiClient struct {
	source     string
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func newAPIClient(source, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) apiClient {
	return apiClient{
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		retryDelay: defaultRetryDelay,
		logger:     logger,
		metrics:    metrics,
	}
}

// getJSON issues a GET and decodes the JSON body into out. Transport errors,
// 429 and 5xx responses get one retry; other statuses fail immediately.
func (c *apiClient) getJSON(ctx context.Context, fullURL string, out any) error {
	start := time.Now()
	err := retry.Once(ctx, c.retryDelay, func() error {
		return c.doRequest(ctx, fullURL, out)
	}, func(err error, wait time.Duration) {
		c.logger.Warn("weather request failed, retrying", "source", c.source, "error", err, "wait", wait)
	})
	c.metrics.WeatherAPIDuration.WithLabelValues(c.source).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.WeatherRequests.WithLabelValues(c.source, outcome).Inc()
	return err
}

func (c *apiClient) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%s API error: status %d: %s", c.source, resp.StatusCode, body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return err
		}
		return retry.Permanent(err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode %s response: %w", c.source, err))
	}
	return nil
}
