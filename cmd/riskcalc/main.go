// Command riskcalc computes a seven-day disaster-risk series offline from saved
// OpenWeatherMap payloads. "Today" is pinned to the observation time of the current
// weather payload unless -now is given, so the output is reproducible.
//
// Usage:
//
//	go run ./cmd/riskcalc \
//	  -current testdata/current.json \
//	  -forecast testdata/forecast.json \
//	  -lat 19.076 -lon 72.8777
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/disaster-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/forecast"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// staticProvider replays parsed payloads as a domain.WeatherProvider.
type staticProvider struct {
	current domain.WeatherSample
	series  domain.ForecastSeries
}

func (p staticProvider) CurrentWeather(_ context.Context, _, _ float64) (domain.WeatherSample, error) {
	return p.current, nil
}

func (p staticProvider) Forecast(_ context.Context, _, _ float64) (domain.ForecastSeries, error) {
	return p.series, nil
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("riskcalc", flag.ContinueOnError)
	currentPath := fs.String("current", "", "path to a saved /weather response")
	forecastPath := fs.String("forecast", "", "path to a saved /forecast response")
	lat := fs.Float64("lat", domain.FallbackCoordinate.Lat, "latitude")
	lon := fs.Float64("lon", domain.FallbackCoordinate.Lon, "longitude")
	now := fs.String("now", "", "RFC 3339 time to treat as now (default: the current observation time)")
	zone := fs.String("zone", "UTC", "IANA zone used when the payload has no UTC offset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *currentPath == "" || *forecastPath == "" {
		fs.Usage()
		return fmt.Errorf("missing required flags: -current, -forecast")
	}

	provider, err := loadPayloads(*currentPath, *forecastPath)
	if err != nil {
		return err
	}

	pinned := provider.current.Timestamp
	if *now != "" {
		pinned, err = time.Parse(time.RFC3339, *now)
		if err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
	}
	loc, err := time.LoadLocation(*zone)
	if err != nil {
		return fmt.Errorf("load -zone: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(pinned))
	defer domain.SetClock(nil)

	logger := sharedobs.NewLogger("warn", "text")
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	agg := forecast.NewAggregator(provider, nil, logger, metrics, forecast.Options{Zone: loc})

	f := agg.Forecast(context.Background(), &domain.Coordinate{Lat: *lat, Lon: *lon})
	if f.Synthetic {
		log.Printf("live computation failed, printing the sample series: %s", f.Advisory)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func loadPayloads(currentPath, forecastPath string) (staticProvider, error) {
	data, err := os.ReadFile(currentPath)
	if err != nil {
		return staticProvider{}, fmt.Errorf("read current weather: %w", err)
	}
	current, err := openweather.ParseCurrent(data)
	if err != nil {
		return staticProvider{}, err
	}

	data, err = os.ReadFile(forecastPath)
	if err != nil {
		return staticProvider{}, fmt.Errorf("read forecast: %w", err)
	}
	series, err := openweather.ParseForecast(data)
	if err != nil {
		return staticProvider{}, fmt.Errorf("parse forecast: %w", err)
	}
	return staticProvider{current: current, series: series}, nil
}
