package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "disaster_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the forecast service.
type Metrics struct {
	// Forecast aggregation.
	ForecastsTotal   *prometheus.CounterVec // labels: source={live,fallback}
	ForecastDuration prometheus.Histogram
	PastDays         *prometheus.CounterVec // labels: source={history,synthesized}
	BackfilledDays   prometheus.Counter

	// Weather provider.
	WeatherRequests    *prometheus.CounterVec   // labels: endpoint={current,forecast}, outcome={success,error}
	WeatherAPIDuration *prometheus.HistogramVec // labels: endpoint

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge

	// History store.
	HistoryOperations    *prometheus.CounterVec   // labels: operation={lookup,record}, outcome={hit,miss,success,error}
	HistoryQueryDuration *prometheus.HistogramVec // labels: operation

	// Watch pipeline.
	PipelineRunning    prometheus.Gauge
	WatchCycles        prometheus.Counter
	WatchCycleDuration prometheus.Histogram
	WatchLocations     prometheus.Gauge
	MessagesProduced   prometheus.Counter
	PublishErrors      prometheus.Counter

	// HTTP API.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewMetricsWith registers all service metrics with reg. One-shot tools pass a private
// registry so nothing is exported.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		ForecastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Forecasts produced, by whether live weather or the fallback series was used.",
		}, []string{"source"}),
		ForecastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_duration_seconds",
			Help:      "Duration of a complete forecast computation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PastDays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "past_days_total",
			Help:      "Past window days filled from recorded history or synthesized.",
		}, []string{"source"}),
		BackfilledDays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfilled_days_total",
			Help:      "Future window days beyond the provider horizon filled from the previous day.",
		}),
		WeatherRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather provider requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		WeatherAPIDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		GeocodeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when reverse geocoding is enabled, 0 otherwise.",
		}),
		HistoryOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_operations_total",
			Help:      "Day history store operations by outcome.",
		}, []string{"operation", "outcome"}),
		HistoryQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_query_duration_seconds",
			Help:      "Day history store query duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"operation"}),
		PipelineRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the watch pipeline is active, 0 when shut down.",
		}),
		WatchCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_cycles_total",
			Help:      "Completed watch cycles.",
		}),
		WatchCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "watch_cycle_duration_seconds",
			Help:      "Duration of a complete forecast-and-publish watch cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		WatchLocations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_locations",
			Help:      "Number of locations forecast each watch cycle.",
		}),
		MessagesProduced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total forecast messages written to the sink topic.",
		}),
		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish a forecast batch.",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"method", "path"}),
	}
}
