package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/observability"
	"github.com/couchcryptid/ride-height-service/internal/snapshot"
)

// Cycle names, used in logs, metric labels and Kafka headers.
const (
	CycleScrape = "scrape"
	CycleLive   = "live"
)

// Provenance names recorded in the snapshot's sources list.
const (
	SourceAttractions = "Efteling Official (Attractions)"
	SourceShows       = "Efteling Official (Shows)"
)

const maxPublishAttempts = 3

// PageFetcher returns the normalized text of a web page.
type PageFetcher interface {
	PageText(ctx context.Context, url string) (string, error)
}

// Transformer turns a catalog base record into a fully attributed record.
type Transformer interface {
	Transform(ctx context.Context, base domain.AttractionRecord) domain.AttractionRecord
}

// FeedFetcher reads the live queue-status feed.
type FeedFetcher interface {
	Fetch(ctx context.Context) (domain.LiveFeed, error)
}

// SnapshotStore is the persistent snapshot owner.
type SnapshotStore interface {
	Load() (domain.Snapshot, error)
	Lock() (func(), error)
	Replace(snap domain.Snapshot) error
}

// SnapshotSink receives every snapshot the pipeline writes.
type SnapshotSink interface {
	Set(snap domain.Snapshot)
}

// Publisher forwards a written snapshot downstream and reports how many
// messages it produced.
type Publisher interface {
	Publish(ctx context.Context, cycle string, snap domain.Snapshot) (int, error)
}

// Stages are the collaborators of a Pipeline. Sink and Publisher are optional.
type Stages struct {
	Transformer Transformer
	Feed        FeedFetcher
	Store       SnapshotStore
	Sink        SnapshotSink
	Publisher   Publisher
}

// Settings are the catalog data and schedule a Pipeline runs with.
type Settings struct {
	Attractions    []domain.AttractionRecord
	Shows          []domain.ShowRecord
	Identities     domain.IdentityTable
	TrackedHeights []int
	AttractionsURL string
	ShowsURL       string
	ScrapeInterval time.Duration
	LiveInterval   time.Duration
}

// Pipeline runs the scrape and live-status cycles against the snapshot store.
// All cycles of one Pipeline run on the calling goroutine, so a process never
// has more than one writer.
type Pipeline struct {
	stages   Stages
	settings Settings
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	scrapeNow chan struct{}
	liveNow   chan struct{}
}

// New creates a Pipeline with the given stages and observability.
func New(stages Stages, settings Settings, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if len(settings.TrackedHeights) == 0 {
		settings.TrackedHeights = domain.DefaultTrackedHeights
	}
	return &Pipeline{
		stages:    stages,
		settings:  settings,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		scrapeNow: make(chan struct{}, 1),
		liveNow:   make(chan struct{}, 1),
	}
}

// Scrape fetches every attraction page, builds a new snapshot and replaces
// the stored one. Unavailable pages degrade the affected records only. A
// cancelled context aborts the cycle before anything is written.
func (p *Pipeline) Scrape(ctx context.Context) (domain.Snapshot, error) {
	start := p.clock.Now()
	snap, err := p.scrape(ctx)
	p.observeCycle(CycleScrape, start, err)
	return snap, err
}

func (p *Pipeline) scrape(ctx context.Context) (domain.Snapshot, error) {
	unlock, err := p.stages.Store.Lock()
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer unlock()

	runID := uuid.NewString()
	p.logger.Info("scrape started", "run_id", runID, "attractions", len(p.settings.Attractions))

	records := make([]domain.AttractionRecord, 0, len(p.settings.Attractions))
	for _, base := range p.settings.Attractions {
		rec := p.stages.Transformer.Transform(ctx, base)
		if err := ctx.Err(); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scrape aborted: %w", err)
		}
		outcome := "success"
		if rec.ExtractionStatus != domain.StatusSuccess {
			outcome = "error"
		}
		p.metrics.PageFetches.WithLabelValues("attraction", outcome).Inc()
		p.metrics.ExtractionStatus.WithLabelValues(string(rec.ExtractionStatus)).Inc()
		records = append(records, rec)
	}

	snap := domain.NewSnapshot(runID, records, p.settings.Shows, p.settings.TrackedHeights, p.sources(records))
	p.reportFlagged(snap.Flagged)

	if err := p.stages.Store.Replace(snap); err != nil {
		return domain.Snapshot{}, err
	}
	p.commit(ctx, CycleScrape, snap)

	p.logger.Info("scrape complete",
		"run_id", runID,
		"successful", snap.ScrapeStats.Successful,
		"fallback", snap.ScrapeStats.Fallback,
		"failed", snap.ScrapeStats.Failed,
		"shows", snap.TotalShows,
	)
	return snap, nil
}

func (p *Pipeline) sources(records []domain.AttractionRecord) []domain.SourceInfo {
	stats := domain.CountStatuses(records)
	scraped := stats.Successful
	failed := len(records) - scraped
	status := "success"
	if scraped == 0 {
		status = "failed"
	}
	now := p.clock.Now().UTC()
	return []domain.SourceInfo{
		{
			Name:               SourceAttractions,
			URL:                p.settings.AttractionsURL,
			Status:             status,
			AttractionsScraped: &scraped,
			AttractionsFailed:  &failed,
			FetchedAt:          now,
		},
		{
			Name:      SourceShows,
			URL:       p.settings.ShowsURL,
			Status:    "success",
			FetchedAt: now,
		},
	}
}

// Live fetches the queue-status feed and merges it into the stored snapshot.
// A feed failure leaves the snapshot untouched.
func (p *Pipeline) Live(ctx context.Context) (domain.Snapshot, error) {
	start := p.clock.Now()
	snap, err := p.live(ctx)
	p.observeCycle(CycleLive, start, err)
	return snap, err
}

func (p *Pipeline) live(ctx context.Context) (domain.Snapshot, error) {
	feed, err := p.stages.Feed.Fetch(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch live feed: %w", err)
	}

	unlock, err := p.stages.Store.Lock()
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer unlock()

	current, err := p.stages.Store.Load()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("live merge: %w", err)
	}

	merged, report := domain.MergeLiveStatus(current, feed, p.settings.Identities, p.settings.TrackedHeights)
	if len(report.Unmatched) > 0 {
		p.logger.Info("feed entries without attraction", "names", report.Unmatched)
	}
	p.reportFlagged(report.Flagged)

	if err := p.stages.Store.Replace(merged); err != nil {
		return domain.Snapshot{}, err
	}
	p.metrics.UnmatchedFeedEntries.Set(float64(len(report.Unmatched)))
	p.metrics.OpenAttractions.Set(float64(report.Open))
	p.commit(ctx, CycleLive, merged)

	p.logger.Info("live merge complete",
		"matched", report.Matched,
		"unknown", report.Unknown,
		"open", report.Open,
		"unmatched", len(report.Unmatched),
		"park_open", merged.WaitTimesInfo.ParkOpen,
	)
	return merged, nil
}

// commit hands a written snapshot to the sink and the publisher.
func (p *Pipeline) commit(ctx context.Context, cycle string, snap domain.Snapshot) {
	p.metrics.InconsistentRecords.Set(float64(len(snap.Flagged)))
	if p.stages.Sink != nil {
		p.stages.Sink.Set(snap)
	}
	if p.stages.Publisher != nil {
		p.publish(ctx, cycle, snap)
	}
}

// publish retries with exponential backoff. The snapshot is already stored,
// so a publish failure is logged and does not fail the cycle.
func (p *Pipeline) publish(ctx context.Context, cycle string, snap domain.Snapshot) {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for attempt := 1; ; attempt++ {
		n, err := p.stages.Publisher.Publish(ctx, cycle, snap)
		if err == nil {
			p.metrics.MessagesProduced.Add(float64(n))
			return
		}
		p.logger.Error("publish snapshot failed", "cycle", cycle, "attempt", attempt, "error", err)
		if attempt == maxPublishAttempts || !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) reportFlagged(flagged []domain.FlaggedRecord) {
	for _, f := range flagged {
		p.logger.Warn("attraction excluded from categorization", "attraction", f.Name, "reason", f.Reason)
	}
}

func (p *Pipeline) observeCycle(cycle string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.Cycles.WithLabelValues(cycle, outcome).Inc()
	p.metrics.CycleDuration.WithLabelValues(cycle).Observe(p.clock.Since(start).Seconds())
}

// TriggerScrape schedules a scrape cycle on the running pipeline. It returns
// false when one is already pending.
func (p *Pipeline) TriggerScrape() bool {
	return trigger(p.scrapeNow)
}

// TriggerLive schedules a live-status cycle on the running pipeline. It
// returns false when one is already pending.
func (p *Pipeline) TriggerLive() bool {
	return trigger(p.liveNow)
}

func trigger(ch chan struct{}) bool {
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run executes the refresh schedule until the context is cancelled. When no
// snapshot exists yet a scrape runs first; a live merge follows immediately.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"scrape_interval", p.settings.ScrapeInterval,
		"live_interval", p.settings.LiveInterval,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.bootstrap(ctx)

	scrapeTicker := p.clock.NewTicker(p.settings.ScrapeInterval)
	defer scrapeTicker.Stop()
	liveTicker := p.clock.NewTicker(p.settings.LiveInterval)
	defer liveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-scrapeTicker.Chan():
			p.runCycle(ctx, CycleScrape)
		case <-p.scrapeNow:
			p.runCycle(ctx, CycleScrape)
		case <-liveTicker.Chan():
			p.runCycle(ctx, CycleLive)
		case <-p.liveNow:
			p.runCycle(ctx, CycleLive)
		}
	}
}

func (p *Pipeline) bootstrap(ctx context.Context) {
	_, err := p.stages.Store.Load()
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot):
		p.logger.Info("no snapshot found, running initial scrape")
		p.runCycle(ctx, CycleScrape)
	case err != nil:
		p.logger.Error("stored snapshot unreadable, running initial scrape", "error", err)
		p.runCycle(ctx, CycleScrape)
	}
	p.runCycle(ctx, CycleLive)
}

// runCycle runs one cycle and logs its failure. Cycles never stop the runner.
func (p *Pipeline) runCycle(ctx context.Context, cycle string) {
	var err error
	switch cycle {
	case CycleScrape:
		_, err = p.Scrape(ctx)
	case CycleLive:
		_, err = p.Live(ctx)
	}
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, snapshot.ErrWriterBusy):
		p.logger.Warn("cycle skipped, snapshot writer busy", "cycle", cycle)
	default:
		p.logger.Error("cycle failed", "cycle", cycle, "error", err)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
