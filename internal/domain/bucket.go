package domain

import (
	"slices"
	"sort"
	"time"
)

// DateLayout is the key format for day buckets.
const DateLayout = "2006-01-02"

// DateKey returns the bucket key for t in its own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DayBucket groups the samples that fall on one local calendar date.
type DayBucket struct {
	Date      string
	Samples   []WeatherSample
	Synthetic bool
}

// DayAggregate is the derived summary of a bucket.
type DayAggregate struct {
	Date          string  `json:"date"`
	Rainfall      float64 `json:"rainfall"`
	WindSpeed     float64 `json:"wind_speed"`
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	ConditionCode int     `json:"condition_code"`
}

// BucketByDay groups samples by calendar date in loc. Samples within a bucket are
// ordered by timestamp. A nil loc means UTC.
func BucketByDay(samples []WeatherSample, loc *time.Location) map[string]DayBucket {
	if loc == nil {
		loc = time.UTC
	}

	ordered := slices.Clone(samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	buckets := make(map[string]DayBucket)
	for _, s := range ordered {
		key := DateKey(s.Timestamp.In(loc))
		b := buckets[key]
		b.Date = key
		b.Samples = append(b.Samples, s)
		buckets[key] = b
	}
	return buckets
}

// TotalRainfall sums the precipitation of every sample.
func (b DayBucket) TotalRainfall() float64 {
	var total float64
	for _, s := range b.Samples {
		total += s.PrecipitationMM
	}
	return total
}

// ConditionCodes returns the condition code of each sample in order.
func (b DayBucket) ConditionCodes() []int {
	codes := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		codes[i] = s.ConditionCode
	}
	return codes
}

func (b DayBucket) Temperatures() []float64 {
	return b.values(func(s WeatherSample) float64 { return s.Temperature })
}

func (b DayBucket) WindSpeeds() []float64 {
	return b.values(func(s WeatherSample) float64 { return s.WindSpeed })
}

func (b DayBucket) Humidities() []float64 {
	return b.values(func(s WeatherSample) float64 { return s.Humidity })
}

func (b DayBucket) Pressures() []float64 {
	return b.values(func(s WeatherSample) float64 { return s.Pressure })
}

func (b DayBucket) values(field func(WeatherSample) float64) []float64 {
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = field(s)
	}
	return out
}

// DominantCode returns the most frequent condition code. Ties go to the lowest code.
// Returns 0 for an empty bucket.
func (b DayBucket) DominantCode() int {
	counts := make(map[int]int)
	for _, code := range b.ConditionCodes() {
		counts[code]++
	}

	keys := make([]int, 0, len(counts))
	for code := range counts {
		keys = append(keys, code)
	}
	sort.Ints(keys)

	dominant, best := 0, 0
	for _, code := range keys {
		if counts[code] > best {
			dominant, best = code, counts[code]
		}
	}
	return dominant
}

// Aggregate summarizes the bucket into totals and means.
func (b DayBucket) Aggregate() DayAggregate {
	return DayAggregate{
		Date:          b.Date,
		Rainfall:      b.TotalRainfall(),
		WindSpeed:     mean(b.WindSpeeds()),
		Temperature:   mean(b.Temperatures()),
		Humidity:      mean(b.Humidities()),
		Pressure:      mean(b.Pressures()),
		ConditionCode: b.DominantCode(),
	}
}

// Bucket expands an aggregate back into a single-sample bucket so it can be scored
// like any measured day.
func (a DayAggregate) Bucket() DayBucket {
	ts, _ := time.Parse(DateLayout, a.Date)
	return DayBucket{
		Date: a.Date,
		Samples: []WeatherSample{{
			Timestamp:       ts.Add(12 * time.Hour),
			Temperature:     a.Temperature,
			WindSpeed:       a.WindSpeed,
			Humidity:        a.Humidity,
			Pressure:        a.Pressure,
			ConditionCode:   a.ConditionCode,
			PrecipitationMM: a.Rainfall,
		}},
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
