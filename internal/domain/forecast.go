package domain

import "time"

// Forecast is the complete answer for one coordinate: the location label and exactly
// seven prediction rows.
type Forecast struct {
	Location    string                         `json:"location"`
	Coordinate  Coordinate                     `json:"coordinate"`
	Predictions [WindowSize]DisasterPrediction `json:"predictions"`
	// Synthetic is true when the rows are the fixed demonstration series rather than
	// derived from live weather.
	Synthetic   bool      `json:"synthetic"`
	Advisory    string    `json:"advisory,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Day returns the row at index, or false when index is outside the window.
func (f Forecast) Day(index int) (DisasterPrediction, bool) {
	if index < 0 || index >= WindowSize {
		return DisasterPrediction{}, false
	}
	return f.Predictions[index], true
}

// Today returns the row for today.
func (f Forecast) Today() DisasterPrediction {
	return f.Predictions[TodayIndex]
}

// LocationForecast pairs a watched location's name with its latest forecast.
type LocationForecast struct {
	Name     string   `json:"name"`
	Forecast Forecast `json:"forecast"`
}
