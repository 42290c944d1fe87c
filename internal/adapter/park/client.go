// Package park fetches attraction and show pages from the park website and
// reduces them to the normalized text the extractor works on.
package park

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	userAgent = "Mozilla/5.0 (compatible; ride-height-service/1.0)"
	// maxPageBytes caps the body read from a single page.
	maxPageBytes = 4 << 20
)

// Client fetches park pages one at a time, spaced by a rate limiter.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a page client. interval is the minimum spacing between
// requests; timeout bounds each request.
func NewClient(timeout, interval time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// PageText fetches pageURL and returns its normalized visible text.
func (c *Client) PageText(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return "", fmt.Errorf("fetch page %s: status %d", pageURL, resp.StatusCode)
	}

	text, err := HTMLToText(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("parse page %s: %w", pageURL, err)
	}

	c.logger.Debug("page fetched", "url", pageURL, "duration", time.Since(start), "chars", len(text))
	return NormalizeText(text), nil
}
