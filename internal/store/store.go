// Package store persists reference data, vehicle snapshots, stop visits
// and per-day route stats in SQLite.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nanolookc/transport-map/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS routes (
	route_id    INTEGER PRIMARY KEY,
	agency_id   INTEGER,
	short_name  TEXT,
	long_name   TEXT,
	color       TEXT,
	route_type  INTEGER,
	description TEXT
);

CREATE TABLE IF NOT EXISTS trips (
	trip_id      TEXT PRIMARY KEY,
	route_id     INTEGER,
	headsign     TEXT,
	direction_id INTEGER,
	block_id     TEXT,
	shape_id     TEXT
);

CREATE TABLE IF NOT EXISTS stops (
	stop_id       INTEGER PRIMARY KEY,
	name          TEXT,
	lat           REAL,
	lon           REAL,
	location_type INTEGER,
	code          TEXT
);

CREATE TABLE IF NOT EXISTS stop_times (
	trip_id       TEXT,
	stop_id       INTEGER,
	stop_sequence INTEGER,
	PRIMARY KEY (trip_id, stop_sequence)
);

CREATE TABLE IF NOT EXISTS shape_points (
	shape_id TEXT,
	lat      REAL,
	lon      REAL,
	sequence INTEGER
);

CREATE TABLE IF NOT EXISTS vehicle_snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	vehicle_id  TEXT,
	label       TEXT,
	lat         REAL,
	lon         REAL,
	reported_at INTEGER,
	speed       REAL,
	route_id    INTEGER,
	trip_id     TEXT,
	fetched_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_vehicle_snapshots_fetched ON vehicle_snapshots (fetched_at);

CREATE TABLE IF NOT EXISTS stop_visits (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	stop_id         INTEGER,
	route_id        INTEGER,
	trip_id         TEXT,
	vehicle_id      TEXT,
	observed_at     INTEGER,
	fetched_at      INTEGER,
	lat             REAL,
	lon             REAL,
	exit_distance_m REAL
);
CREATE INDEX IF NOT EXISTS idx_stop_visits_stop_observed ON stop_visits (stop_id, observed_at);
CREATE INDEX IF NOT EXISTS idx_stop_visits_observed ON stop_visits (observed_at);

CREATE TABLE IF NOT EXISTS route_daily_stats (
	day        TEXT,
	route_id   INTEGER,
	first_seen INTEGER,
	last_seen  INTEGER,
	PRIMARY KEY (day, route_id)
);
`

// Store wraps the SQLite database
type Store struct {
	db *sqlx.DB
}

// Open opens the database at path and bootstraps the schema.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite handles one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// replaceTable runs delete-then-bulk-insert in a single transaction.
func (s *Store) replaceTable(ctx context.Context, table, insertQ string, n int, args func(i int) []interface{}) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		tx.Rollback()
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := tx.ExecContext(ctx, insertQ, args(i)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// ReplaceRoutes replaces the routes table wholesale.
func (s *Store) ReplaceRoutes(ctx context.Context, routes []models.Route) error {
	const q = `INSERT INTO routes (route_id, agency_id, short_name, long_name, color, route_type, description)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	return s.replaceTable(ctx, "routes", q, len(routes), func(i int) []interface{} {
		r := routes[i]
		return []interface{}{r.ID, r.AgencyID, r.ShortName, r.LongName, r.Color, r.Type, r.Description}
	})
}

// ReplaceTrips replaces the trips table wholesale.
func (s *Store) ReplaceTrips(ctx context.Context, trips []models.Trip) error {
	const q = `INSERT INTO trips (trip_id, route_id, headsign, direction_id, block_id, shape_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	return s.replaceTable(ctx, "trips", q, len(trips), func(i int) []interface{} {
		t := trips[i]
		return []interface{}{t.ID, t.RouteID, t.Headsign, t.DirectionID, t.BlockID, t.ShapeID}
	})
}

// ReplaceStops replaces the stops table wholesale.
func (s *Store) ReplaceStops(ctx context.Context, stops []models.Stop) error {
	const q = `INSERT INTO stops (stop_id, name, lat, lon, location_type, code)
	           VALUES (?, ?, ?, ?, ?, ?)`
	return s.replaceTable(ctx, "stops", q, len(stops), func(i int) []interface{} {
		st := stops[i]
		return []interface{}{st.ID, st.Name, st.Latitude, st.Longitude, st.LocationType, st.Code}
	})
}

// ReplaceStopTimes replaces the stop_times table wholesale.
func (s *Store) ReplaceStopTimes(ctx context.Context, stopTimes []models.StopTime) error {
	const q = `INSERT INTO stop_times (trip_id, stop_id, stop_sequence) VALUES (?, ?, ?)`
	return s.replaceTable(ctx, "stop_times", q, len(stopTimes), func(i int) []interface{} {
		st := stopTimes[i]
		return []interface{}{st.TripID, st.StopID, st.StopSequence}
	})
}

// ReplaceShapePoints replaces the shape_points table wholesale.
func (s *Store) ReplaceShapePoints(ctx context.Context, points []models.ShapePoint) error {
	const q = `INSERT INTO shape_points (shape_id, lat, lon, sequence) VALUES (?, ?, ?, ?)`
	return s.replaceTable(ctx, "shape_points", q, len(points), func(i int) []interface{} {
		p := points[i]
		return []interface{}{p.ShapeID, p.Latitude, p.Longitude, p.Sequence}
	})
}

// InsertSnapshots appends one poll cycle's vehicle snapshots.
func (s *Store) InsertSnapshots(ctx context.Context, snapshots []models.VehicleSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const q = `INSERT INTO vehicle_snapshots (vehicle_id, label, lat, lon, reported_at, speed, route_id, trip_id, fetched_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, v := range snapshots {
		if _, err := tx.ExecContext(ctx, q,
			v.VehicleID, v.Label, v.Latitude, v.Longitude, v.ReportedAt.Unix(),
			v.Speed, v.RouteID, v.TripID, v.FetchedAt.Unix(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}
	return tx.Commit()
}

// InsertVisits appends stop-visit events.
func (s *Store) InsertVisits(ctx context.Context, visits []models.StopVisit) error {
	if len(visits) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const q = `INSERT INTO stop_visits (stop_id, route_id, trip_id, vehicle_id, observed_at, fetched_at, lat, lon, exit_distance_m)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, v := range visits {
		if _, err := tx.ExecContext(ctx, q,
			v.StopID, v.RouteID, v.TripID, v.VehicleID, v.ObservedAt.Unix(),
			v.FetchedAt.Unix(), v.Latitude, v.Longitude, v.ExitDistanceM,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert stop visit: %w", err)
		}
	}
	return tx.Commit()
}

// MergeRouteDailyStats widens the (day, route) stats row with the given
// fetch time. Existing extremes are never overwritten with interior values.
func (s *Store) MergeRouteDailyStats(ctx context.Context, day string, routeID int64, fetchedAt time.Time) error {
	const q = `INSERT INTO route_daily_stats (day, route_id, first_seen, last_seen)
	           VALUES (?, ?, ?, ?)
	           ON CONFLICT (day, route_id) DO UPDATE SET
	               first_seen = MIN(first_seen, excluded.first_seen),
	               last_seen  = MAX(last_seen, excluded.last_seen)`
	ts := fetchedAt.Unix()
	_, err := s.db.ExecContext(ctx, q, day, routeID, ts, ts)
	return err
}

type visitRow struct {
	ID            int64   `db:"id"`
	StopID        int64   `db:"stop_id"`
	RouteID       int64   `db:"route_id"`
	TripID        string  `db:"trip_id"`
	VehicleID     string  `db:"vehicle_id"`
	ObservedAt    int64   `db:"observed_at"`
	FetchedAt     int64   `db:"fetched_at"`
	Lat           float64 `db:"lat"`
	Lon           float64 `db:"lon"`
	ExitDistanceM float64 `db:"exit_distance_m"`
}

// VisitsForStopSince returns a stop's visits with observed time at or after
// the cutoff, oldest first.
func (s *Store) VisitsForStopSince(ctx context.Context, stopID int64, since time.Time) ([]models.StopVisit, error) {
	const q = `SELECT id, stop_id, route_id, trip_id, vehicle_id, observed_at, fetched_at, lat, lon, exit_distance_m
	           FROM stop_visits
	           WHERE stop_id = ? AND observed_at >= ?
	           ORDER BY observed_at`
	var rows []visitRow
	if err := s.db.SelectContext(ctx, &rows, q, stopID, since.Unix()); err != nil {
		return nil, err
	}
	visits := make([]models.StopVisit, 0, len(rows))
	for _, r := range rows {
		visits = append(visits, models.StopVisit{
			ID:            r.ID,
			StopID:        r.StopID,
			RouteID:       r.RouteID,
			TripID:        r.TripID,
			VehicleID:     r.VehicleID,
			ObservedAt:    time.Unix(r.ObservedAt, 0),
			FetchedAt:     time.Unix(r.FetchedAt, 0),
			Latitude:      r.Lat,
			Longitude:     r.Lon,
			ExitDistanceM: r.ExitDistanceM,
		})
	}
	return visits, nil
}

type statsRow struct {
	Day       string `db:"day"`
	RouteID   int64  `db:"route_id"`
	FirstSeen int64  `db:"first_seen"`
	LastSeen  int64  `db:"last_seen"`
}

// RouteDailyStats returns all daily stats rows for a route, oldest day first.
func (s *Store) RouteDailyStats(ctx context.Context, routeID int64) ([]models.RouteDailyStats, error) {
	const q = `SELECT day, route_id, first_seen, last_seen
	           FROM route_daily_stats
	           WHERE route_id = ?
	           ORDER BY day`
	var rows []statsRow
	if err := s.db.SelectContext(ctx, &rows, q, routeID); err != nil {
		return nil, err
	}
	stats := make([]models.RouteDailyStats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, models.RouteDailyStats{
			Day:       r.Day,
			RouteID:   r.RouteID,
			FirstSeen: time.Unix(r.FirstSeen, 0),
			LastSeen:  time.Unix(r.LastSeen, 0),
		})
	}
	return stats, nil
}

// DeleteOlderThan removes snapshots and visits older than the cutoff and
// returns the number of rows deleted from each table.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (snapshots, visits int64, err error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vehicle_snapshots WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, 0, err
	}
	snapshots, _ = res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM stop_visits WHERE observed_at < ?`, cutoff.Unix())
	if err != nil {
		return snapshots, 0, err
	}
	visits, _ = res.RowsAffected()
	return snapshots, visits, nil
}

// SnapshotCountSince reports how many snapshots were fetched at or after the
// cutoff. Used by audit tooling and tests.
func (s *Store) SnapshotCountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM vehicle_snapshots WHERE fetched_at >= ?`, since.Unix())
	return n, err
}
