// Package domain models weather samples and the disaster-risk forecast derived from them.
//
// # Data Source
//
// Samples come from a weather provider exposing current conditions at a point and a
// multi-step forecast (OpenWeatherMap: 3-hour steps over 5 days). Each sample carries
// the provider's numeric condition code, temperature, wind, humidity, pressure, and the
// rainfall that fell during the sample's interval.
//
// # Condition Codes
//
// Codes follow the OpenWeatherMap taxonomy, grouped by hundreds:
//
//	2xx  thunderstorm
//	3xx  drizzle
//	5xx  rain            (502 and above is heavy rain)
//	6xx  snow            (602 and above is heavy snow)
//	7xx  atmosphere      (mist, smoke, haze, fog, dust, ash)
//	800  clear
//	801–899 clouds
//	900+ extreme         (900 tornado, 901/902/962 hurricane, 905/957 high winds, 906 hail)
//
// # Day Buckets
//
// Samples are grouped by calendar date in the location's local time. The provider's
// UTC offset is used when known, otherwise the configured zone. A bucket's dominant
// condition is its most frequent code; ties resolve to the lowest code.
//
// # Risk Score
//
// Each day's score is a sum of independent contributions, rounded and clamped to 0–100:
//
//	condition   +10 clear … +95 tornado (see [conditionContribution])
//	rainfall    >10mm +5 | >20mm +15 | >50mm +25
//	mean wind   >8 m/s +5 | >13.8 m/s +15 | >20 m/s +25
//	mean temp   >35°C +20 | <0°C +20
//	pressure    mean <990 hPa +15
//
// The warning label is first-write-wins: the condition label beats rainfall, rainfall
// beats wind, wind beats temperature.
//
// # Prediction Window
//
// A forecast is always exactly seven rows: two days back, today, four days ahead. The
// provider never reports the past, so the two preceding days come from recorded history
// when available and are synthesized from today's aggregate otherwise. Future days past
// the provider's horizon are backfilled from the nearest earlier row. When the provider
// cannot be reached at all, a fixed demonstration series is returned and the forecast is
// flagged synthetic.
package domain
