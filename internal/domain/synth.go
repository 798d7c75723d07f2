package domain

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"
)

// Noise produces bounded pseudo-random deltas for synthesized days.
type Noise struct {
	r *rand.Rand
}

// NewNoise returns a Noise source seeded deterministically.
func NewNoise(seed uint64) *Noise {
	return &Noise{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SeedFor derives a seed from a date key and coordinate, so repeated runs for the same
// place and day synthesize the same values.
func SeedFor(date string, c Coordinate) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s", date, c)
	return h.Sum64()
}

// Delta returns a value uniformly distributed in [-limit, limit].
func (n *Noise) Delta(limit float64) float64 {
	return (n.r.Float64()*2 - 1) * limit
}

type pastDayProfile struct {
	tempDelta     float64
	rainScale     float64
	rainNoise     float64
	windScale     float64
	humidityScale float64
}

// pastDayProfiles is keyed by day offset from today.
var pastDayProfiles = map[int]pastDayProfile{
	-2: {tempDelta: 2, rainScale: 0.5, rainNoise: 2, windScale: 0.7, humidityScale: 0.9},
	-1: {tempDelta: 1.5, rainScale: 0.8, rainNoise: 2, windScale: 0.8, humidityScale: 0.95},
}

// SynthesizePastDay estimates an unrecorded past day by perturbing today's aggregate.
// offset is -2 or -1; any other offset returns today's aggregate re-dated.
func SynthesizePastDay(today DayAggregate, offset int, date string, n *Noise) DayAggregate {
	day := today
	day.Date = date

	profile, ok := pastDayProfiles[offset]
	if !ok {
		return day
	}

	day.Temperature = today.Temperature + n.Delta(profile.tempDelta)
	day.Rainfall = math.Max(0, today.Rainfall*profile.rainScale+n.Delta(profile.rainNoise))
	day.WindSpeed = math.Max(0, today.WindSpeed*profile.windScale)
	day.Humidity = clamp(today.Humidity*profile.humidityScale, 0, 100)
	return day
}

// BackfillPrediction fills a window slot the provider did not cover by perturbing the
// nearest earlier row. The warning is not carried over.
func BackfillPrediction(prev DisasterPrediction, index int, day time.Time, n *Noise) DisasterPrediction {
	p := DisasterPrediction{
		Name:        WindowNames[index],
		Date:        day.Format(displayDateLayout),
		Risk:        ClampRisk(float64(prev.Risk) + math.Round(n.Delta(10))),
		Rainfall:    round1(math.Max(0, prev.Rainfall+n.Delta(2.5))),
		WindSpeed:   round1(math.Max(0, prev.WindSpeed+n.Delta(1))),
		Temperature: round1(prev.Temperature + n.Delta(1)),
		Humidity:    math.Round(clamp(prev.Humidity+n.Delta(5), 0, 100)),
		Predicted:   index > TodayIndex,
	}
	return p.withDerived()
}

var fallbackSeries = [WindowSize]struct {
	risk        int
	rainfall    float64
	windSpeed   float64
	temperature float64
	humidity    float64
	warning     string
}{
	{15, 5, 3, 22, 50, ""},
	{25, 20, 5, 20, 65, ""},
	{65, 45, 8, 19, 85, WarningHeavyRain},
	{80, 60, 12, 18, 90, WarningFloodRisk},
	{45, 30, 9, 21, 75, ""},
	{30, 15, 6, 23, 60, ""},
	{20, 5, 4, 24, 55, ""},
}

// FallbackSeries returns the fixed demonstration series, dated relative to today.
func FallbackSeries(today time.Time) [WindowSize]DisasterPrediction {
	var out [WindowSize]DisasterPrediction
	for i, row := range fallbackSeries {
		p := DisasterPrediction{
			Name:        WindowNames[i],
			Date:        WindowDay(today, i).Format(displayDateLayout),
			Risk:        row.risk,
			Rainfall:    row.rainfall,
			WindSpeed:   row.windSpeed,
			Temperature: row.temperature,
			Humidity:    row.humidity,
			Predicted:   i > TodayIndex,
		}
		if row.warning != "" {
			w := row.warning
			p.WarningType = &w
		}
		out[i] = p.withDerived()
	}
	return out
}
