//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcKafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/disaster-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-risk-service/internal/config"
	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/forecast"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
	"github.com/couchcryptid/disaster-risk-service/internal/pipeline"
)

const testForecastTopic = "test-disaster-risk-forecasts"

// publishedForecast holds a deserialized message read from the forecast topic.
type publishedForecast struct {
	Forecast domain.LocationForecast
	Key      string
	Headers  map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tcKafka.Run(ctx, "confluentinc/confluent-local:7.6.0")
	require.NoError(t, err, "start kafka")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err, "get brokers")
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka")
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic")
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testForecastTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// readForecast reads a single message from the consumer and deserializes it.
func readForecast(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedForecast {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from forecast topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var lf domain.LocationForecast
	require.NoError(t, json.Unmarshal(msg.Value, &lf), "unmarshal forecast message")

	return publishedForecast{Forecast: lf, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaTopic:         testForecastTopic,
		BatchSize:          10,
		BatchFlushInterval: 100 * time.Millisecond,
	}
}

// TestKafkaWriterRoundTrip verifies that kafka.Writer publishes forecasts keyed by
// location name with the synthetic and generated_at headers.
func TestKafkaWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testForecastTopic)

	writer := kafka.NewWriter(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	generated := time.Date(2024, time.June, 10, 3, 30, 0, 0, time.UTC)
	batch := []domain.LocationForecast{
		{Name: "mumbai", Forecast: domain.Forecast{
			Location:    "Mumbai, Maharashtra, India",
			Coordinate:  domain.Coordinate{Lat: 19.076, Lon: 72.8777},
			Predictions: domain.FallbackSeries(generated),
			Synthetic:   true,
			GeneratedAt: generated,
		}},
		{Name: "chennai", Forecast: domain.Forecast{
			Location:    "Chennai, Tamil Nadu, India",
			Coordinate:  domain.Coordinate{Lat: 13.0827, Lon: 80.2707},
			Predictions: domain.FallbackSeries(generated),
			GeneratedAt: generated,
		}},
	}
	require.NoError(t, writer.LoadBatch(ctx, batch))

	consumer := newConsumer(t, broker)
	first := readForecast(ctx, t, consumer)
	second := readForecast(ctx, t, consumer)

	assert.Equal(t, "mumbai", first.Key)
	assert.Equal(t, "true", first.Headers["synthetic"])
	assert.Equal(t, "2024-06-10T03:30:00Z", first.Headers["generated_at"])
	assert.Equal(t, "Mumbai, Maharashtra, India", first.Forecast.Forecast.Location)
	assert.Equal(t, 80, first.Forecast.Forecast.Predictions[3].Risk)

	assert.Equal(t, "chennai", second.Key)
	assert.Equal(t, "false", second.Headers["synthetic"])
	assert.Equal(t, domain.Coordinate{Lat: 13.0827, Lon: 80.2707}, second.Forecast.Forecast.Coordinate)
}

// TestPipelinePublishesWatchedLocations runs one watch cycle end to end. Without a
// weather provider every location gets the sample series, which is still published.
func TestPipelinePublishesWatchedLocations(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testForecastTopic)

	writer := kafka.NewWriter(testConfig(broker), discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	agg := forecast.NewAggregator(nil, nil, discardLogger(), metrics, forecast.Options{Zone: time.UTC})
	locations := []domain.NamedLocation{
		{Name: "kolkata", Coordinate: domain.Coordinate{Lat: 22.5726, Lon: 88.3639}},
		{Name: "guwahati", Coordinate: domain.Coordinate{Lat: 26.1445, Lon: 91.7362}},
	}
	p := pipeline.New(agg, writer, locations, discardLogger(), metrics, pipeline.Options{Interval: time.Hour})

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newConsumer(t, broker)
	received := map[string]publishedForecast{}
	for range locations {
		pf := readForecast(ctx, t, consumer)
		received[pf.Key] = pf
	}

	require.Contains(t, received, "kolkata")
	require.Contains(t, received, "guwahati")
	for name, pf := range received {
		assert.Equal(t, "true", pf.Headers["synthetic"], name)
		assert.Equal(t, name, pf.Forecast.Name)
		assert.Equal(t, forecast.AdvisoryLiveUnavailable, pf.Forecast.Forecast.Advisory, name)
		assert.Equal(t, domain.UnknownLocation, pf.Forecast.Forecast.Location, name)
	}

	require.Eventually(t, func() bool { return p.CheckReadiness(ctx) == nil }, 10*time.Second, 50*time.Millisecond)

	pipelineCancel()
	require.NoError(t, <-errCh)
}
