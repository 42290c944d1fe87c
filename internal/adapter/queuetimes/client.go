// Package queuetimes reads live ride status from the queue-times.com park feed.
package queuetimes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

const (
	// SourceURL is the human-facing page credited in snapshots.
	SourceURL = "https://queue-times.com/parks/160"
	// Attribution is required by the feed's terms of use.
	Attribution = "Powered by Queue-Times.com"

	userAgent = "ride-height-service/1.0"
)

// Client fetches the park's queue-times JSON.
type Client struct {
	url        string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a feed client for the park JSON at url.
func NewClient(url string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		clock:  clock,
		logger: logger,
	}
}

// Fetch reads the feed and returns one entry per ride name. Rides listed both
// under a land and at the top level keep the top-level entry.
func (c *Client) Fetch(ctx context.Context) (domain.LiveFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.LiveFeed{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LiveFeed{}, fmt.Errorf("queue times request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.LiveFeed{}, fmt.Errorf("queue times API error: status %d: %s", resp.StatusCode, body)
	}

	var feed response
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return domain.LiveFeed{}, fmt.Errorf("decode response: %w", err)
	}

	out := domain.LiveFeed{
		Entries:     make(map[string]domain.FeedEntry),
		FetchedAt:   c.clock.Now().UTC(),
		Source:      SourceURL,
		Attribution: Attribution,
	}
	add := func(r ride) {
		if r.Name == "" {
			return
		}
		out.Entries[r.Name] = r.entry()
	}
	for _, land := range feed.Lands {
		for _, r := range land.Rides {
			add(r)
		}
	}
	for _, r := range feed.Rides {
		add(r)
	}

	c.logger.Debug("queue times fetched", "rides", len(out.Entries))
	return out, nil
}

// Queue-times API response types.

type response struct {
	Lands []land `json:"lands"`
	Rides []ride `json:"rides"`
}

type land struct {
	Name  string `json:"name"`
	Rides []ride `json:"rides"`
}

type ride struct {
	Name        string `json:"name"`
	IsOpen      bool   `json:"is_open"`
	WaitTime    *int   `json:"wait_time"`
	LastUpdated string `json:"last_updated"`
}

func (r ride) entry() domain.FeedEntry {
	e := domain.FeedEntry{IsOpen: r.IsOpen}
	if r.WaitTime != nil && *r.WaitTime >= 0 {
		w := *r.WaitTime
		e.WaitMinutes = &w
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.LastUpdated); err == nil {
		e.ReportedAt = ts.UTC()
	}
	return e
}
