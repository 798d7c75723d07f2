package domain

import (
	"context"
	"log/slog"
)

// LocationLabel reverse-geocodes c into a display label. A nil geocoder, a failed
// lookup or an empty answer all yield UnknownLocation (graceful degradation).
func LocationLabel(ctx context.Context, geocoder Geocoder, c Coordinate, logger *slog.Logger) string {
	if geocoder == nil {
		return UnknownLocation
	}

	result, err := geocoder.ReverseGeocode(ctx, c.Lat, c.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
		return UnknownLocation
	}

	switch {
	case result.FormattedAddress != "":
		return result.FormattedAddress
	case result.PlaceName != "":
		return result.PlaceName
	default:
		return UnknownLocation
	}
}
