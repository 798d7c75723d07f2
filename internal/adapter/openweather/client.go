package openweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// ErrMissingAPIKey is returned for every request when no API key is configured.
var ErrMissingAPIKey = errors.New("openweather: API key not configured")

// Client implements domain.WeatherProvider using the OpenWeatherMap API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

var _ domain.WeatherProvider = (*Client)(nil)

// NewClient creates an OpenWeatherMap client limited to rps requests per second.
func NewClient(apiKey, baseURL string, timeout time.Duration, rps float64, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
		metrics: metrics,
	}
}

// CurrentWeather returns the conditions observed now at lat, lon.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.WeatherSample, error) {
	body, err := c.get(ctx, "weather", lat, lon)
	if err != nil {
		return domain.WeatherSample{}, err
	}
	return ParseCurrent(body)
}

// Forecast returns the 5-day / 3-hour forecast at lat, lon.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (domain.ForecastSeries, error) {
	body, err := c.get(ctx, "forecast", lat, lon)
	if err != nil {
		return domain.ForecastSeries{}, err
	}
	return ParseForecast(body)
}

func (c *Client) get(ctx context.Context, endpoint string, lat, lon float64) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit wait: %w", endpoint, err)
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 4, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WeatherAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("weather provider returned error status",
			"endpoint", endpoint,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("openweather API error: %s: status %d: %s", endpoint, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	c.metrics.WeatherRequests.WithLabelValues(endpoint, "success").Inc()
	return body, nil
}
