// Package sqlite persists measured day aggregates in a local SQLite database so past
// window days can show what was actually forecast for them.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // register the "sqlite" database/sql driver

	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/observability"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements domain.DayHistory on SQLite.
type Store struct {
	db      *sql.DB
	metrics *observability.Metrics
}

var _ domain.DayHistory = (*Store)(nil)

// Open opens (creating if needed) the database at path, applies migrations and
// verifies connectivity.
func Open(ctx context.Context, path string, metrics *observability.Metrics) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under the watch fan-out.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, metrics: metrics}, nil
}

// RunMigrations applies all pending SQL migrations embedded in the binary.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LookupDay returns the aggregate recorded for key on date.
func (s *Store) LookupDay(ctx context.Context, key, date string) (domain.DayAggregate, bool, error) {
	start := time.Now()
	defer s.observe("lookup", start)

	agg := domain.DayAggregate{Date: date}
	err := s.db.QueryRowContext(ctx, `
		SELECT rainfall, wind_speed, temperature, humidity, pressure, condition_code
		FROM day_history
		WHERE location_key = ? AND day = ?`, key, date,
	).Scan(&agg.Rainfall, &agg.WindSpeed, &agg.Temperature, &agg.Humidity, &agg.Pressure, &agg.ConditionCode)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.metrics.HistoryOperations.WithLabelValues("lookup", "miss").Inc()
		return domain.DayAggregate{}, false, nil
	case err != nil:
		s.metrics.HistoryOperations.WithLabelValues("lookup", "error").Inc()
		return domain.DayAggregate{}, false, fmt.Errorf("lookup day %s for %s: %w", date, key, err)
	}
	s.metrics.HistoryOperations.WithLabelValues("lookup", "hit").Inc()
	return agg, true, nil
}

// RecordDay upserts agg under key.
func (s *Store) RecordDay(ctx context.Context, key string, agg domain.DayAggregate) error {
	start := time.Now()
	defer s.observe("record", start)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_history
			(location_key, day, rainfall, wind_speed, temperature, humidity, pressure, condition_code, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (location_key, day) DO UPDATE SET
			rainfall       = excluded.rainfall,
			wind_speed     = excluded.wind_speed,
			temperature    = excluded.temperature,
			humidity       = excluded.humidity,
			pressure       = excluded.pressure,
			condition_code = excluded.condition_code,
			recorded_at    = excluded.recorded_at`,
		key, agg.Date, agg.Rainfall, agg.WindSpeed, agg.Temperature, agg.Humidity, agg.Pressure, agg.ConditionCode,
		domain.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.metrics.HistoryOperations.WithLabelValues("record", "error").Inc()
		return fmt.Errorf("record day %s for %s: %w", agg.Date, key, err)
	}
	s.metrics.HistoryOperations.WithLabelValues("record", "success").Inc()
	return nil
}

// Prune deletes records for days before cutoff (a DateLayout key) and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff string) (int64, error) {
	start := time.Now()
	defer s.observe("prune", start)

	res, err := s.db.ExecContext(ctx, `DELETE FROM day_history WHERE day < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history before %s: %w", cutoff, err)
	}
	return res.RowsAffected()
}

func (s *Store) observe(op string, start time.Time) {
	s.metrics.HistoryQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
