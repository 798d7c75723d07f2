package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
)

// DefaultTimeout bounds a single Forecast call.
const DefaultTimeout = 10 * time.Second

// Advisory messages attached to a Forecast.
const (
	AdvisoryNoPosition      = "Location unavailable; showing the forecast for the default location."
	AdvisoryInvalidPosition = "Coordinates out of range; showing the forecast for the default location."
	AdvisoryLiveUnavailable = "Live weather data is unavailable; showing sample data."
)

var (
	// ErrNoProvider is returned by the live path when no weather provider is configured.
	ErrNoProvider = errors.New("no weather provider configured")
	// ErrGeocodingDisabled is returned by Locate when no geocoder is configured.
	ErrGeocodingDisabled = errors.New("geocoding is disabled")
	// ErrPlaceNotFound is returned by Locate when the geocoder has no match.
	ErrPlaceNotFound = errors.New("place not found")
)

// Options tunes an Aggregator. Zero values select the defaults.
type Options struct {
	// Fallback replaces a missing or invalid caller position.
	Fallback domain.Coordinate
	// Zone buckets samples when the provider does not report the location's offset.
	Zone *time.Location
	// Timeout bounds each Forecast call.
	Timeout time.Duration
	// History supplies recorded past days and receives today's aggregate. Optional.
	History domain.DayHistory
}

// Aggregator computes disaster-risk forecasts from a weather provider.
type Aggregator struct {
	weather  domain.WeatherProvider
	geocoder domain.Geocoder
	history  domain.DayHistory
	fallback domain.Coordinate
	zone     *time.Location
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAggregator creates an Aggregator. weather and geocoder may be nil; a nil weather
// provider always yields the fallback series and a nil geocoder always yields
// domain.UnknownLocation.
func NewAggregator(weather domain.WeatherProvider, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Aggregator {
	a := &Aggregator{
		weather:  weather,
		geocoder: geocoder,
		history:  opts.History,
		fallback: opts.Fallback,
		zone:     opts.Zone,
		timeout:  opts.Timeout,
		logger:   logger,
		metrics:  metrics,
	}
	if a.fallback == (domain.Coordinate{}) || !a.fallback.Valid() {
		a.fallback = domain.FallbackCoordinate
	}
	if a.zone == nil {
		a.zone = time.Local
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	return a
}

// Forecast returns the seven-day window for pos. A nil pos means the caller's position
// is unknown. It never fails; see the package documentation.
func (a *Aggregator) Forecast(ctx context.Context, pos *domain.Coordinate) domain.Forecast {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	coord, advisory := a.resolve(pos)
	f := domain.Forecast{
		Coordinate:  coord,
		GeneratedAt: domain.Now(),
	}
	f.Location = domain.LocationLabel(ctx, a.geocoder, coord, a.logger)

	rows, err := a.live(ctx, coord)
	if err != nil {
		a.logger.Warn("live forecast unavailable, using fallback series",
			"lat", coord.Lat,
			"lon", coord.Lon,
			"error", err,
		)
		a.metrics.ForecastsTotal.WithLabelValues("fallback").Inc()
		f.Predictions = domain.FallbackSeries(domain.Now().In(a.zone))
		f.Synthetic = true
		advisory = joinAdvisory(advisory, AdvisoryLiveUnavailable)
	} else {
		a.metrics.ForecastsTotal.WithLabelValues("live").Inc()
		f.Predictions = rows
	}
	f.Advisory = advisory

	a.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
	return f
}

// Locate forward-geocodes a free-form place name.
func (a *Aggregator) Locate(ctx context.Context, place string) (domain.Coordinate, string, error) {
	if a.geocoder == nil {
		return domain.Coordinate{}, "", ErrGeocodingDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.geocoder.ForwardGeocode(ctx, place)
	if err != nil {
		return domain.Coordinate{}, "", fmt.Errorf("locate %q: %w", place, err)
	}
	if result.FormattedAddress == "" && result.Lat == 0 && result.Lon == 0 {
		return domain.Coordinate{}, "", ErrPlaceNotFound
	}
	return result.Coordinate(), result.FormattedAddress, nil
}

func (a *Aggregator) resolve(pos *domain.Coordinate) (domain.Coordinate, string) {
	switch {
	case pos == nil:
		return a.fallback, AdvisoryNoPosition
	case !pos.Valid():
		a.logger.Warn("invalid coordinate, using fallback", "lat", pos.Lat, "lon", pos.Lon)
		return a.fallback, AdvisoryInvalidPosition
	default:
		return *pos, ""
	}
}

// live builds the window from provider data. Any provider error aborts it.
func (a *Aggregator) live(ctx context.Context, coord domain.Coordinate) ([domain.WindowSize]domain.DisasterPrediction, error) {
	var rows [domain.WindowSize]domain.DisasterPrediction
	if a.weather == nil {
		return rows, ErrNoProvider
	}

	current, err := a.weather.CurrentWeather(ctx, coord.Lat, coord.Lon)
	if err != nil {
		return rows, fmt.Errorf("current weather: %w", err)
	}
	series, err := a.weather.Forecast(ctx, coord.Lat, coord.Lon)
	if err != nil {
		return rows, fmt.Errorf("forecast: %w", err)
	}

	zone := series.Zone
	if zone == nil {
		zone = a.zone
	}
	today := domain.Now().In(zone)
	todayKey := domain.DateKey(today)

	samples := make([]domain.WeatherSample, 0, len(series.Samples)+1)
	samples = append(samples, current)
	samples = append(samples, series.Samples...)
	buckets := domain.BucketByDay(samples, zone)

	todayBucket, ok := buckets[todayKey]
	if !ok {
		return rows, fmt.Errorf("no samples for today (%s)", todayKey)
	}
	todayAgg := todayBucket.Aggregate()
	key := domain.HistoryKey(coord)

	for i := range domain.WindowSize {
		day := domain.WindowDay(today, i)
		date := domain.DateKey(day)

		var b domain.DayBucket
		switch {
		case i < domain.TodayIndex:
			b = a.pastDay(ctx, key, todayAgg, i-domain.TodayIndex, date, coord)
		default:
			measured, ok := buckets[date]
			if !ok {
				// Beyond the provider horizon: the nearest earlier row always exists.
				a.metrics.BackfilledDays.Inc()
				rows[i] = domain.BackfillPrediction(rows[i-1], i, day, domain.NewNoise(domain.SeedFor(date, coord)))
				continue
			}
			b = measured
		}
		rows[i] = domain.NewPrediction(i, day, b.Aggregate(), domain.AssessRisk(b))
	}

	a.recordToday(ctx, key, todayAgg)
	return rows, nil
}

func (a *Aggregator) pastDay(ctx context.Context, key string, today domain.DayAggregate, offset int, date string, coord domain.Coordinate) domain.DayBucket {
	if a.history != nil {
		agg, ok, err := a.history.LookupDay(ctx, key, date)
		switch {
		case err != nil:
			a.logger.Warn("history lookup failed, synthesizing day", "key", key, "date", date, "error", err)
		case ok:
			a.metrics.PastDays.WithLabelValues("history").Inc()
			agg.Date = date
			return agg.Bucket()
		}
	}

	a.metrics.PastDays.WithLabelValues("synthesized").Inc()
	b := domain.SynthesizePastDay(today, offset, date, domain.NewNoise(domain.SeedFor(date, coord))).Bucket()
	b.Synthetic = true
	return b
}

func (a *Aggregator) recordToday(ctx context.Context, key string, today domain.DayAggregate) {
	if a.history == nil {
		return
	}
	if err := a.history.RecordDay(ctx, key, today); err != nil {
		a.logger.Warn("history record failed", "key", key, "date", today.Date, "error", err)
	}
}

func joinAdvisory(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
