package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ride-height-service/internal/config"
	"github.com/couchcryptid/ride-height-service/internal/domain"
)

// Writer publishes snapshot attraction records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one message per attraction in snap in a single
// WriteMessages call. Messages are keyed by attraction name so every update
// for an attraction lands on the same partition.
func (w *Writer) Publish(ctx context.Context, cycle string, snap domain.Snapshot) (int, error) {
	if len(snap.Attractions) == 0 {
		return 0, nil
	}
	at := snapshotAt(snap)
	msgs := make([]kafkago.Message, len(snap.Attractions))
	for i := range snap.Attractions {
		msg, err := serializeToMessage(snap.Attractions[i], cycle, snap.RunID, at)
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish %s snapshot: %w", cycle, err)
	}
	w.logger.Debug("snapshot published", "cycle", cycle, "messages", len(msgs))
	return len(msgs), nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// snapshotAt is the time the snapshot content was last changed.
func snapshotAt(snap domain.Snapshot) time.Time {
	if snap.WaitTimesInfo != nil && snap.WaitTimesInfo.MergedAt.After(snap.LastUpdated) {
		return snap.WaitTimesInfo.MergedAt
	}
	return snap.LastUpdated
}

// serializeToMessage marshals an AttractionRecord into a Kafka message.
func serializeToMessage(rec domain.AttractionRecord, cycle, runID string, at time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize attraction record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "extraction_status", Value: []byte(rec.ExtractionStatus)},
			{Key: "cycle", Value: []byte(cycle)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "snapshot_at", Value: []byte(at.UTC().Format(time.RFC3339))},
		},
	}, nil
}
