package forecast

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
)

// ErrDayOutOfRange is returned by Select for an index outside the window.
var ErrDayOutOfRange = errors.New("day index out of range")

// Forecaster produces a forecast for an optional position.
type Forecaster interface {
	Forecast(ctx context.Context, pos *domain.Coordinate) domain.Forecast
}

// Token identifies one Begin call. Only the newest token may commit.
type Token uint64

// Snapshot is a consistent copy of a View.
type Snapshot struct {
	Forecast domain.Forecast           `json:"forecast"`
	Selected int                       `json:"selected_day"`
	Day      domain.DisasterPrediction `json:"day"`
}

// View holds the currently displayed forecast and the selected day. It is safe for
// concurrent use.
type View struct {
	mu         sync.Mutex
	generation uint64
	current    *domain.Forecast
	selected   int
}

// NewView returns an empty view with Today selected.
func NewView() *View {
	return &View{selected: domain.TodayIndex}
}

// Begin starts a new computation and invalidates any still in flight.
func (v *View) Begin() Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	return Token(v.generation)
}

// Commit stores f if t is still the newest token. Reports whether f was stored.
func (v *View) Commit(t Token, f domain.Forecast) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if uint64(t) != v.generation {
		return false
	}
	v.current = &f
	return true
}

// Select changes the selected day. The selection survives later commits.
func (v *View) Select(index int) error {
	if index < 0 || index >= domain.WindowSize {
		return ErrDayOutOfRange
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = index
	return nil
}

// Snapshot returns the current state, or false when nothing has been committed yet.
func (v *View) Snapshot() (Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return Snapshot{Selected: v.selected}, false
	}
	return Snapshot{
		Forecast: *v.current,
		Selected: v.selected,
		Day:      v.current.Predictions[v.selected],
	}, true
}

// Refresh recomputes the forecast and commits it unless ctx was cancelled or a newer
// refresh started meanwhile. Reports whether the result was committed.
func (v *View) Refresh(ctx context.Context, f Forecaster, pos *domain.Coordinate) (domain.Forecast, bool) {
	token := v.Begin()
	result := f.Forecast(ctx, pos)
	if ctx.Err() != nil {
		return result, false
	}
	return result, v.Commit(token, result)
}
