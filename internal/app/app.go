// Package app wires configuration, catalog, adapters and the pipeline into a
// runnable service. It is shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	kafkaadapter "github.com/couchcryptid/ride-height-service/internal/adapter/kafka"
	"github.com/couchcryptid/ride-height-service/internal/adapter/park"
	"github.com/couchcryptid/ride-height-service/internal/adapter/queuetimes"
	"github.com/couchcryptid/ride-height-service/internal/catalog"
	"github.com/couchcryptid/ride-height-service/internal/config"
	"github.com/couchcryptid/ride-height-service/internal/observability"
	"github.com/couchcryptid/ride-height-service/internal/pipeline"
	"github.com/couchcryptid/ride-height-service/internal/snapshot"
)

// Service holds the wired components.
type Service struct {
	Catalog  *catalog.Catalog
	Store    *snapshot.Store
	View     *snapshot.View
	Pipeline *pipeline.Pipeline

	writer *kafkaadapter.Writer
}

// Build loads the catalog and wires every component from cfg. The Kafka
// writer is only created when KAFKA_ENABLED is set.
func Build(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*Service, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	store := snapshot.NewStore(cfg.SnapshotPath, logger)
	view := snapshot.NewView(store, cfg.HeightCacheSize, logger, metrics)

	pages := park.NewClient(cfg.FetchTimeout, cfg.FetchInterval, logger)
	feed := queuetimes.NewClient(cfg.QueueTimesURL, cfg.FetchTimeout, clock, logger)

	svc := &Service{Catalog: cat, Store: store, View: view}
	stages := pipeline.Stages{
		Transformer: pipeline.NewTransformer(pages, cat.FallbackTable(), logger),
		Feed:        feed,
		Store:       store,
		Sink:        view,
	}
	if cfg.KafkaEnabled {
		svc.writer = kafkaadapter.NewWriter(cfg, logger)
		stages.Publisher = svc.writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	settings := pipeline.Settings{
		Attractions:    cat.BaseRecords(cfg.AttractionsBaseURL),
		Shows:          cat.ShowRecords(cfg.ShowsBaseURL),
		Identities:     cat.IdentityTable(),
		TrackedHeights: cfg.TrackedHeights,
		AttractionsURL: cfg.AttractionsBaseURL,
		ShowsURL:       cfg.ShowsBaseURL,
		ScrapeInterval: cfg.ScrapeInterval,
		LiveInterval:   cfg.LiveInterval,
	}
	svc.Pipeline = pipeline.New(stages, settings, clock, logger, metrics)
	return svc, nil
}

// LoadView publishes the stored snapshot to the view. A missing snapshot is
// not an error.
func (s *Service) LoadView() error {
	if err := s.View.Reload(); err != nil && !errors.Is(err, snapshot.ErrNoSnapshot) {
		return err
	}
	return nil
}

// Run watches the snapshot file and runs the refresh pipeline until ctx is
// cancelled. It returns only after both have stopped, so a cycle never
// outlives the call.
func (s *Service) Run(ctx context.Context) error {
	var (
		wg                    sync.WaitGroup
		watchErr, pipelineErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.View.Watch(ctx); err != nil {
			watchErr = fmt.Errorf("snapshot watcher: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.Pipeline.Run(ctx); err != nil {
			pipelineErr = fmt.Errorf("pipeline: %w", err)
		}
	}()
	wg.Wait()
	return errors.Join(watchErr, pipelineErr)
}

// Close releases the Kafka writer, if any. Call it after Run has returned.
func (s *Service) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
