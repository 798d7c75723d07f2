package domain

import (
	"math"
	"time"
)

// WindowSize is the number of rows in every forecast; TodayIndex is the row for today.
const (
	WindowSize = 7
	TodayIndex = 2
)

// WindowNames labels each row of the window relative to today.
var WindowNames = [WindowSize]string{
	"2 Days Ago", "Yesterday", "Today", "Tomorrow", "In 2 Days", "In 3 Days", "In 4 Days",
}

const displayDateLayout = "Mon, Jan 2"

// DisasterPrediction is one row of the seven-day risk series.
type DisasterPrediction struct {
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Risk         int     `json:"risk"`
	RiskLevel    string  `json:"risk_level"`
	Rainfall     float64 `json:"rainfall"`       // mm
	WindSpeed    float64 `json:"wind_speed"`     // m/s
	WindSpeedKmh float64 `json:"wind_speed_kmh"` // display unit
	Temperature  float64 `json:"temperature"`    // °C
	Humidity     float64 `json:"humidity"`       // %
	Predicted    bool    `json:"predicted"`
	WarningType  *string `json:"warning_type"`
}

// WindowDay returns the calendar day for a window index, given today.
func WindowDay(today time.Time, index int) time.Time {
	return today.AddDate(0, 0, index-TodayIndex)
}

// NewPrediction builds the row at index from a day's aggregate and its assessment.
func NewPrediction(index int, day time.Time, agg DayAggregate, a RiskAssessment) DisasterPrediction {
	p := DisasterPrediction{
		Name:        WindowNames[index],
		Date:        day.Format(displayDateLayout),
		Risk:        a.Score,
		Rainfall:    round1(math.Max(agg.Rainfall, 0)),
		WindSpeed:   round1(math.Max(agg.WindSpeed, 0)),
		Temperature: round1(agg.Temperature),
		Humidity:    math.Round(clamp(agg.Humidity, 0, 100)),
		Predicted:   index > TodayIndex,
		WarningType: a.Warning,
	}
	return p.withDerived()
}

func (p DisasterPrediction) withDerived() DisasterPrediction {
	p.RiskLevel = RiskLevel(p.Risk)
	p.WindSpeedKmh = round1(p.WindSpeed * 3.6)
	return p
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
