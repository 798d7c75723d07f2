package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/disaster-risk-service/internal/config"
	"github.com/couchcryptid/disaster-risk-service/internal/domain"
)

// Writer publishes watched-location forecasts to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured forecast topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the forecasts in a single WriteMessages call.
// Messages are keyed by location name so each location stays on one partition.
func (w *Writer) LoadBatch(ctx context.Context, forecasts []domain.LocationForecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(forecasts))
	for i := range forecasts {
		msg, err := serializeToMessage(forecasts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d forecast messages: %w", len(msgs), err)
	}
	w.logger.Debug("forecast batch published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LocationForecast into a Kafka message.
func serializeToMessage(lf domain.LocationForecast) (kafkago.Message, error) {
	data, err := json.Marshal(lf)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast for %s: %w", lf.Name, err)
	}
	return kafkago.Message{
		Key:   []byte(lf.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "synthetic", Value: []byte(strconv.FormatBool(lf.Forecast.Synthetic))},
			{Key: "generated_at", Value: []byte(lf.Forecast.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
