package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/seaice-catalog/internal/config"
	"github.com/couchcryptid/seaice-catalog/internal/domain"
)

// Writer publishes committed chart records to the change feed topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured feed topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes records in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, records []domain.ChartRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	w.logger.Debug("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// change is the feed message body.
type change struct {
	Key string `json:"key"`
	domain.ChartRecord
	Epoch string `json:"epoch"`
}

// serializeToMessage marshals a ChartRecord into a Kafka message keyed by
// the record's identity so updates to one chart stay on one partition.
func serializeToMessage(rec domain.ChartRecord) (kafkago.Message, error) {
	data, err := json.Marshal(change{
		Key:         rec.Key(),
		ChartRecord: rec,
		Epoch:       rec.Epoch.Format(domain.EpochLayout),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize chart record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(rec.Source.String())},
			{Key: "region", Value: []byte(rec.Region)},
		},
	}, nil
}
