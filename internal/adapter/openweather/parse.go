package openweather

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
)

// observation is the shape shared by /weather and each /forecast list entry.
type observation struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		ID int `json:"id"`
	} `json:"weather"`
	Rain *struct {
		OneHour   *float64 `json:"1h"`
		ThreeHour *float64 `json:"3h"`
	} `json:"rain"`
}

type currentResponse struct {
	observation
	Timezone *int `json:"timezone"`
}

type forecastResponse struct {
	List []observation `json:"list"`
	City struct {
		Timezone *int `json:"timezone"`
	} `json:"city"`
}

var errMissingTimestamp = errors.New("observation has no timestamp")

// ParseCurrent decodes a /weather payload into a sample.
func ParseCurrent(data []byte) (domain.WeatherSample, error) {
	var resp currentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.WeatherSample{}, fmt.Errorf("decode current weather: %w", err)
	}
	return resp.sample()
}

// ParseForecast decodes a /forecast payload. The zone is set from city.timezone when present.
func ParseForecast(data []byte) (domain.ForecastSeries, error) {
	var resp forecastResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.ForecastSeries{}, fmt.Errorf("decode forecast: %w", err)
	}
	if len(resp.List) == 0 {
		return domain.ForecastSeries{}, domain.ErrNoSamples
	}

	series := domain.ForecastSeries{
		Samples: make([]domain.WeatherSample, 0, len(resp.List)),
		Zone:    zoneFor(resp.City.Timezone),
	}
	for i, obs := range resp.List {
		s, err := obs.sample()
		if err != nil {
			return domain.ForecastSeries{}, fmt.Errorf("forecast entry %d: %w", i, err)
		}
		series.Samples = append(series.Samples, s)
	}
	return series, nil
}

func (o observation) sample() (domain.WeatherSample, error) {
	if o.Dt == 0 {
		return domain.WeatherSample{}, errMissingTimestamp
	}

	s := domain.WeatherSample{
		Timestamp:   time.Unix(o.Dt, 0).UTC(),
		Temperature: o.Main.Temp,
		WindSpeed:   o.Wind.Speed,
		Humidity:    o.Main.Humidity,
		Pressure:    o.Main.Pressure,
	}
	if len(o.Weather) > 0 {
		s.ConditionCode = o.Weather[0].ID
	}
	if o.Rain != nil {
		switch {
		case o.Rain.ThreeHour != nil:
			s.PrecipitationMM = *o.Rain.ThreeHour
		case o.Rain.OneHour != nil:
			s.PrecipitationMM = *o.Rain.OneHour
		}
	}
	return s, nil
}

// zoneFor turns a UTC offset in seconds into a fixed zone; nil offset means unknown.
func zoneFor(offset *int) *time.Location {
	if offset == nil {
		return nil
	}
	sign, secs := '+', *offset
	if secs < 0 {
		sign, secs = '-', -secs
	}
	return time.FixedZone(fmt.Sprintf("UTC%c%02d:%02d", sign, secs/3600, secs%3600/60), *offset)
}
