package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNoSamples is returned when a provider payload decodes but carries no usable samples.
var ErrNoSamples = errors.New("weather provider returned no samples")

// ForecastSeries is the provider's multi-step forecast for one point.
type ForecastSeries struct {
	Samples []WeatherSample
	// Zone is the location's local zone as reported by the provider, or nil when unknown.
	Zone *time.Location
}

// WeatherProvider fetches raw weather data for a coordinate.
type WeatherProvider interface {
	// CurrentWeather returns the conditions observed now.
	CurrentWeather(ctx context.Context, lat, lon float64) (WeatherSample, error)

	// Forecast returns the sub-daily forecast, typically up to five days ahead.
	Forecast(ctx context.Context, lat, lon float64) (ForecastSeries, error)
}
