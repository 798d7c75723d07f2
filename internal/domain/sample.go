package domain

import (
	"fmt"
	"math"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FallbackCoordinate is used when the caller's position is unavailable (New Delhi, India).
var FallbackCoordinate = Coordinate{Lat: 28.6139, Lon: 77.2090}

// Valid reports whether both components are finite and within WGS-84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// NamedLocation is a coordinate with a stable, human-chosen name.
type NamedLocation struct {
	Name       string     `json:"name"`
	Coordinate Coordinate `json:"coordinate"`
}

// WeatherSample is one observation: either current conditions or a single forecast step.
type WeatherSample struct {
	Timestamp       time.Time `json:"timestamp"`
	Temperature     float64   `json:"temperature"`      // °C
	WindSpeed       float64   `json:"wind_speed"`       // m/s
	Humidity        float64   `json:"humidity"`         // %
	Pressure        float64   `json:"pressure"`         // hPa
	ConditionCode   int       `json:"condition_code"`   // OpenWeatherMap condition id
	PrecipitationMM float64   `json:"precipitation_mm"` // rainfall during the sample interval
}
