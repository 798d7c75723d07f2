package domain

import (
	"context"
	"fmt"
)

// DayHistory stores measured day aggregates so that later runs can show the real
// values for past days instead of synthesizing them.
type DayHistory interface {
	// LookupDay returns the aggregate recorded for key on date, if any.
	LookupDay(ctx context.Context, key, date string) (DayAggregate, bool, error)

	// RecordDay stores agg under key, replacing any earlier record for the same date.
	RecordDay(ctx context.Context, key string, agg DayAggregate) error
}

// HistoryKey groups nearby coordinates (about 1 km) under one history key.
func HistoryKey(c Coordinate) string {
	return fmt.Sprintf("%.2f,%.2f", c.Lat, c.Lon)
}
