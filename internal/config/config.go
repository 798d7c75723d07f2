package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoder backends selectable with GEOCODER.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
	GeocoderNone      = "none"
)

// WatchLocation is one entry of WATCH_LOCATIONS.
type WatchLocation struct {
	Name string
	Lat  float64
	Lon  float64
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Forecast aggregation.
	ForecastTimeout time.Duration
	FallbackLat     float64
	FallbackLon     float64
	Timezone        *time.Location

	// OpenWeatherMap provider.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherRPS     float64
	WeatherTimeout     time.Duration

	// Geocoding.
	Geocoder           string
	MapboxToken        string
	GeocodeTimeout     time.Duration
	NominatimBaseURL   string
	NominatimUserAgent string
	GeocodeCacheSize   int

	// Kafka sink for watched-location forecasts.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaTopic         string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Watch pipeline.
	WatchLocations   []WatchLocation
	WatchInterval    time.Duration
	WatchConcurrency int

	// Day history store; empty disables it.
	HistoryDBPath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	forecastTimeout, err := parseDuration("FORECAST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	watchInterval, err := parseDuration("WATCH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	fallbackLat, err := parseFloat("FALLBACK_LAT", 28.6139)
	if err != nil {
		return nil, err
	}
	fallbackLon, err := parseFloat("FALLBACK_LON", 77.2090)
	if err != nil {
		return nil, err
	}
	if fallbackLat < -90 || fallbackLat > 90 || fallbackLon < -180 || fallbackLon > 180 {
		return nil, errors.New("invalid FALLBACK_LAT/FALLBACK_LON: out of range")
	}

	rps, err := parseFloat("OPENWEATHER_RPS", 1)
	if err != nil || rps <= 0 {
		return nil, errors.New("invalid OPENWEATHER_RPS: must be a positive number")
	}

	zone, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	watch, err := ParseWatchLocations(os.Getenv("WATCH_LOCATIONS"))
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	defaultGeocoder := GeocoderNominatim
	if mapboxToken != "" {
		defaultGeocoder = GeocoderMapbox
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ForecastTimeout: forecastTimeout,
		FallbackLat:     fallbackLat,
		FallbackLon:     fallbackLon,
		Timezone:        zone,

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		OpenWeatherRPS:     rps,
		WeatherTimeout:     weatherTimeout,

		Geocoder:           strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", defaultGeocoder)),
		MapboxToken:        mapboxToken,
		GeocodeTimeout:     geocodeTimeout,
		NominatimBaseURL:   sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "disaster-risk-service/1.0"),
		GeocodeCacheSize:   parsePositiveInt("GEOCODE_CACHE_SIZE", 1000),

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "disaster-risk-forecasts"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		WatchLocations:   watch,
		WatchInterval:    watchInterval,
		WatchConcurrency: parsePositiveInt("WATCH_CONCURRENCY", 4),

		HistoryDBPath: os.Getenv("HISTORY_DB_PATH"),
	}

	switch cfg.Geocoder {
	case GeocoderNominatim, GeocoderNone:
	case GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: must be nominatim, mapbox or none", cfg.Geocoder)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// ParseWatchLocations parses "name:lat:lon" entries separated by commas.
func ParseWatchLocations(value string) ([]WatchLocation, error) {
	var out []WatchLocation
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 || strings.TrimSpace(fields[0]) == "" {
			return nil, fmt.Errorf("invalid WATCH_LOCATIONS entry %q: want name:lat:lon", part)
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid WATCH_LOCATIONS entry %q: bad coordinate", part)
		}
		name := strings.TrimSpace(fields[0])
		if seen[name] {
			return nil, fmt.Errorf("invalid WATCH_LOCATIONS: duplicate name %q", name)
		}
		seen[name] = true
		out = append(out, WatchLocation{Name: name, Lat: lat, Lon: lon})
	}
	return out, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
