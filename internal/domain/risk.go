package domain

import "math"

// Warning labels attached to a day's risk score.
const (
	WarningThunderstorm       = "Thunderstorm"
	WarningDrizzle            = "Drizzle"
	WarningRain               = "Rain"
	WarningHeavyRain          = "Heavy Rain"
	WarningSnow               = "Snow"
	WarningHeavySnow          = "Heavy Snow"
	WarningReducedVisibility  = "Reduced Visibility"
	WarningHail               = "Hail"
	WarningHighWinds          = "High Winds"
	WarningHurricane          = "Hurricane"
	WarningTornado            = "Tornado"
	WarningExtremeWeather     = "Extreme Weather"
	WarningFloodRisk          = "Flood Risk"
	WarningExtremeHeat        = "Extreme Heat"
	WarningFreezingConditions = "Freezing Conditions"
)

// RiskAssessment is the scored outcome for one day bucket.
type RiskAssessment struct {
	Score   int
	Warning *string
}

// AssessRisk scores a bucket from its dominant condition, total rainfall, and mean
// wind, temperature, and pressure. The first contribution to name a warning keeps it.
func AssessRisk(b DayBucket) RiskAssessment {
	var (
		score   float64
		warning string
	)
	warn := func(label string) {
		if warning == "" {
			warning = label
		}
	}

	points, label := conditionContribution(b.DominantCode())
	score += points
	if label != "" {
		warn(label)
	}

	switch rain := b.TotalRainfall(); {
	case rain > 50:
		score += 25
		warn(WarningFloodRisk)
	case rain > 20:
		score += 15
	case rain > 10:
		score += 5
	}

	switch wind := mean(b.WindSpeeds()); {
	case wind > 20:
		score += 25
		warn(WarningHighWinds)
	case wind > 13.8:
		score += 15
	case wind > 8:
		score += 5
	}

	switch temp := mean(b.Temperatures()); {
	case temp > 35:
		score += 20
		warn(WarningExtremeHeat)
	case temp < 0:
		score += 20
		warn(WarningFreezingConditions)
	}

	if mean(b.Pressures()) < 990 {
		score += 15
	}

	result := RiskAssessment{Score: ClampRisk(score)}
	if warning != "" {
		result.Warning = &warning
	}
	return result
}

// conditionContribution maps a condition code to its risk points and warning label.
// Clear and cloudy skies add points without a label; unknown codes add nothing.
func conditionContribution(code int) (float64, string) {
	switch {
	case code >= 200 && code < 300:
		return 60, WarningThunderstorm
	case code >= 300 && code < 400:
		return 20, WarningDrizzle
	case code >= 500 && code < 600:
		if code >= 502 {
			return 50, WarningHeavyRain
		}
		return 30, WarningRain
	case code >= 600 && code < 700:
		if code >= 602 {
			return 55, WarningHeavySnow
		}
		return 35, WarningSnow
	case code >= 700 && code < 800:
		return 25, WarningReducedVisibility
	case code == 800:
		return 10, ""
	case code > 800 && code < 900:
		return 15, ""
	case code >= 900:
		return extremeContribution(code)
	default:
		return 0, ""
	}
}

func extremeContribution(code int) (float64, string) {
	switch code {
	case 900:
		return 95, WarningTornado
	case 901, 902, 962:
		return 90, WarningHurricane
	case 905, 957:
		return 60, WarningHighWinds
	case 906:
		return 50, WarningHail
	default:
		return 70, WarningExtremeWeather
	}
}

// ClampRisk rounds a raw score and clamps it to 0–100.
func ClampRisk(v float64) int {
	r := math.Round(v)
	switch {
	case math.IsNaN(r), r < 0:
		return 0
	case r > 100:
		return 100
	default:
		return int(r)
	}
}

// RiskLevel buckets a score into the dashboard's badge levels.
func RiskLevel(risk int) string {
	switch {
	case risk < 30:
		return "Low"
	case risk < 60:
		return "Moderate"
	default:
		return "High"
	}
}
