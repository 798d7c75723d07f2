package domain

import "context"

// UnknownLocation is the label used when reverse geocoding yields nothing.
const UnknownLocation = "Unknown location"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Coordinate returns the result's position.
func (r GeocodingResult) Coordinate() Coordinate {
	return Coordinate{Lat: r.Lat, Lon: r.Lon}
}

// Geocoder turns coordinates into human-readable labels and place names into coordinates.
type Geocoder interface {
	// ForwardGeocode converts a free-form place query to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
