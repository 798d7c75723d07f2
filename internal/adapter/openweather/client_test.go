package openweather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const currentPayload = `{
	"dt": 1718002800,
	"main": {"temp": 31.2, "pressure": 1002, "humidity": 74},
	"wind": {"speed": 4.6},
	"weather": [{"id": 501, "main": "Rain"}],
	"rain": {"1h": 2.5},
	"timezone": 19800
}`

const forecastPayload = `{
	"list": [
		{"dt": 1718010000, "main": {"temp": 29, "pressure": 1003, "humidity": 80}, "wind": {"speed": 5}, "weather": [{"id": 502}], "rain": {"3h": 12.4}},
		{"dt": 1718020800, "main": {"temp": 27, "pressure": 1004, "humidity": 85}, "wind": {"speed": 6}, "weather": [{"id": 800}]}
	],
	"city": {"name": "New Delhi", "timezone": 19800}
}`

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestClient_CurrentWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "28.6139", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.2090", r.URL.Query().Get("lon"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(currentPayload))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	s, err := c.CurrentWeather(context.Background(), 28.6139, 77.2090)
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1718002800, 0).UTC(), s.Timestamp)
	assert.Equal(t, 31.2, s.Temperature)
	assert.Equal(t, 4.6, s.WindSpeed)
	assert.Equal(t, 74.0, s.Humidity)
	assert.Equal(t, 1002.0, s.Pressure)
	assert.Equal(t, 501, s.ConditionCode)
	assert.Equal(t, 2.5, s.PrecipitationMM)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("weather", "success")))
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(forecastPayload))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	series, err := c.Forecast(context.Background(), 28.6139, 77.2090)
	require.NoError(t, err)

	require.Len(t, series.Samples, 2)
	assert.Equal(t, 502, series.Samples[0].ConditionCode)
	assert.Equal(t, 12.4, series.Samples[0].PrecipitationMM)
	assert.Equal(t, 0.0, series.Samples[1].PrecipitationMM)
	require.NotNil(t, series.Zone)
	_, offset := time.Unix(1718010000, 0).In(series.Zone).Zone()
	assert.Equal(t, 19800, offset)
	assert.Equal(t, "UTC+05:30", series.Zone.String())
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.CurrentWeather(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("weather", "error")))
}

func TestClient_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), 1, 2)
	require.Error(t, err)
}

func TestClient_EmptyForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": [], "city": {}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), 1, 2)
	assert.ErrorIs(t, err, domain.ErrNoSamples)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.CurrentWeather(context.Background(), 1, 2)
	require.Error(t, err)
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := NewClient("", "", time.Second, 1, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	_, err := c.CurrentWeather(context.Background(), 1, 2)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestParseCurrent_MissingTimestamp(t *testing.T) {
	_, err := ParseCurrent([]byte(`{"main": {"temp": 20}}`))
	require.Error(t, err)
}

func TestParseForecast_RainPrefersThreeHour(t *testing.T) {
	series, err := ParseForecast([]byte(`{"list": [{"dt": 1, "rain": {"1h": 1.5, "3h": 4}, "weather": []}]}`))
	require.NoError(t, err)
	require.Len(t, series.Samples, 1)
	assert.Equal(t, 4.0, series.Samples[0].PrecipitationMM)
	assert.Equal(t, 0, series.Samples[0].ConditionCode)
	assert.Nil(t, series.Zone)
}

func TestZoneFor_NegativeOffset(t *testing.T) {
	offset := -12600
	assert.Equal(t, "UTC-03:30", zoneFor(&offset).String())
}
