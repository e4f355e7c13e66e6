package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/config"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces ephemeris snapshots to a Kafka topic.
// It implements publisher.RecordSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes multiple ephemeris records to the
// sink topic in a single WriteMessages call for efficiency.
func (w *Writer) PublishBatch(ctx context.Context, records []domain.EphemerisRecord) error {
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
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EphemerisRecord into a Kafka message keyed
// by the object so all snapshots of one object land on one partition.
func serializeToMessage(record domain.EphemerisRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ephemeris record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(record.Object)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "designation", Value: []byte(record.Object.Designation)},
			{Key: "retrieved_at", Value: []byte(record.RetrievedAt.Format(time.RFC3339))},
		},
	}, nil
}

func messageKey(obj domain.CelestialObject) string {
	if obj.ShortCode != "" {
		return obj.ShortCode
	}
	return obj.Designation
}
