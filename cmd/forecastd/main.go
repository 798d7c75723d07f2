package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/disaster-risk-service/internal/adapter/geocache"
	"github.com/couchcryptid/disaster-risk-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/disaster-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-risk-service/internal/adapter/mapbox"
	"github.com/couchcryptid/disaster-risk-service/internal/adapter/nominatim"
	"github.com/couchcryptid/disaster-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/disaster-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/disaster-risk-service/internal/config"
	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/forecast"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
	"github.com/couchcryptid/disaster-risk-service/internal/pipeline"
)

// historyRetention is how long recorded days are kept before startup pruning removes them.
const historyRetention = 30 * 24 * time.Hour

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	weather := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherTimeout, cfg.OpenWeatherRPS, logger, metrics)
	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY not set, forecasts will use the sample series")
	}

	geocoder := newGeocoder(cfg, logger, metrics)

	opts := forecast.Options{
		Fallback: domain.Coordinate{Lat: cfg.FallbackLat, Lon: cfg.FallbackLon},
		Zone:     cfg.Timezone,
		Timeout:  cfg.ForecastTimeout,
	}
	readiness := []sharedobs.ReadinessChecker{}

	if cfg.HistoryDBPath != "" {
		store, err := sqlite.Open(ctx, cfg.HistoryDBPath, metrics)
		if err != nil {
			logger.Error("open history store", "path", cfg.HistoryDBPath, "error", err)
			os.Exit(1) //nolint:gocritic // startup exits before meaningful defers
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("history store close error", "error", err)
			}
		}()
		cutoff := domain.DateKey(domain.Now().In(cfg.Timezone).Add(-historyRetention))
		if n, err := store.Prune(ctx, cutoff); err != nil {
			logger.Warn("prune history failed", "error", err)
		} else {
			logger.Info("history store ready", "path", cfg.HistoryDBPath, "pruned", n)
		}
		opts.History = store
		readiness = append(readiness, store)
	}

	aggregator := forecast.NewAggregator(weather, geocoder, logger, metrics, opts)

	var loader pipeline.BatchLoader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	locations := make([]domain.NamedLocation, len(cfg.WatchLocations))
	for i, wl := range cfg.WatchLocations {
		locations[i] = domain.NamedLocation{Name: wl.Name, Coordinate: domain.Coordinate{Lat: wl.Lat, Lon: wl.Lon}}
	}
	p := pipeline.New(aggregator, loader, locations, logger, metrics, pipeline.Options{
		Interval:    cfg.WatchInterval,
		Concurrency: cfg.WatchConcurrency,
	})
	readiness = append(readiness, p)

	srv := httpadapter.NewServer(cfg.HTTPAddr, aggregator, p, httpadapter.AllReady(readiness...), metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start watch pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newGeocoder builds the configured geocoder wrapped in an LRU cache, or nil when
// geocoding is disabled.
func newGeocoder(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.Geocoder {
	var inner domain.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderMapbox:
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeTimeout, logger, metrics)
	case config.GeocoderNominatim:
		inner = nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, logger, metrics)
	default:
		metrics.GeocodeEnabled.Set(0)
		logger.Info("geocoding disabled")
		return nil
	}

	metrics.GeocodeEnabled.Set(1)
	logger.Info("geocoding enabled", "provider", cfg.Geocoder, "cache_size", cfg.GeocodeCacheSize)
	return geocache.NewCachedGeocoder(inner, cfg.GeocodeCacheSize, metrics)
}
