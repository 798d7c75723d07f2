package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/forecast"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
)

// Publish retry bounds. A batch that still fails after maxPublishAttempts is dropped;
// the next cycle produces a fresh one.
const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	maxPublishAttempts = 5
)

// ErrUnknownLocation is returned by View for a name that is not watched.
var ErrUnknownLocation = errors.New("unknown watch location")

// BatchLoader writes a cycle's forecasts to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, forecasts []domain.LocationForecast) error
}

// Options tunes a Pipeline. Zero values select the defaults.
type Options struct {
	Interval    time.Duration
	Concurrency int
	Clock       clockwork.Clock
}

// Pipeline periodically forecasts the watched locations and publishes the results.
type Pipeline struct {
	forecaster  forecast.Forecaster
	loader      BatchLoader
	locations   []domain.NamedLocation
	views       map[string]*forecast.View
	clock       clockwork.Clock
	interval    time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline. loader may be nil, in which case results are only kept in
// the per-location views.
func New(f forecast.Forecaster, l BatchLoader, locations []domain.NamedLocation, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	p := &Pipeline{
		forecaster:  f,
		loader:      l,
		locations:   locations,
		views:       make(map[string]*forecast.View, len(locations)),
		clock:       opts.Clock,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		logger:      logger,
		metrics:     metrics,
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.interval <= 0 {
		p.interval = 15 * time.Minute
	}
	if p.concurrency <= 0 {
		p.concurrency = 1
	}
	for _, loc := range locations {
		p.views[loc.Name] = forecast.NewView()
	}
	if len(locations) == 0 {
		p.ready.Store(true)
	}
	return p
}

// Locations returns the watched locations in configuration order.
func (p *Pipeline) Locations() []domain.NamedLocation {
	return p.locations
}

// View returns the view for a watched location.
func (p *Pipeline) View(name string) (*forecast.View, error) {
	v, ok := p.views[name]
	if !ok {
		return nil, ErrUnknownLocation
	}
	return v, nil
}

// CheckReadiness returns nil once the first watch cycle has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("watch pipeline has not completed a cycle yet")
	}
	return nil
}

// Run forecasts every location immediately and then once per interval until the
// context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.locations) == 0 {
		p.logger.Info("no watch locations configured, pipeline idle")
		return nil
	}

	p.logger.Info("pipeline started",
		"locations", len(p.locations),
		"interval", p.interval,
		"concurrency", p.concurrency,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.metrics.WatchLocations.Set(float64(len(p.locations)))

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for p.runCycle(ctx) {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// runCycle forecasts all locations and publishes the batch. Returns false if the
// pipeline should stop.
func (p *Pipeline) runCycle(ctx context.Context) bool {
	start := time.Now()

	batch := p.forecastAll(ctx)
	if ctx.Err() != nil {
		return false
	}
	if !p.publish(ctx, batch) {
		return false
	}

	p.metrics.WatchCycles.Inc()
	p.metrics.WatchCycleDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Debug("watch cycle complete", "forecasts", len(batch), "duration", time.Since(start))
	return true
}

// forecastAll refreshes each location's view with bounded concurrency and returns
// the committed results in configuration order.
func (p *Pipeline) forecastAll(ctx context.Context) []domain.LocationForecast {
	results := make([]domain.LocationForecast, len(p.locations))
	committed := make([]bool, len(p.locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, loc := range p.locations {
		g.Go(func() error {
			coord := loc.Coordinate
			f, ok := p.views[loc.Name].Refresh(gctx, p.forecaster, &coord)
			if !ok {
				return nil
			}
			if f.Synthetic {
				p.logger.Warn("watch location served fallback data", "location", loc.Name, "advisory", f.Advisory)
			}
			results[i] = domain.LocationForecast{Name: loc.Name, Forecast: f}
			committed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	batch := make([]domain.LocationForecast, 0, len(results))
	for i, r := range results {
		if committed[i] {
			batch = append(batch, r)
		}
	}
	return batch
}

// publish hands the batch to the loader, backing off exponentially between failed
// attempts. Returns false if the context was cancelled while waiting.
func (p *Pipeline) publish(ctx context.Context, batch []domain.LocationForecast) bool {
	if p.loader == nil || len(batch) == 0 {
		return true
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			p.metrics.MessagesProduced.Add(float64(len(batch)))
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish batch failed", "error", err, "attempt", attempt, "batch_size", len(batch))
		if attempt >= maxPublishAttempts {
			p.logger.Error("dropping forecast batch", "batch_size", len(batch))
			return true
		}
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
}
