package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoProximity is returned when a run stored no proximity results
var ErrNoProximity = errors.New("no proximity results for run")

// PopularStation is one stored top-N row
type PopularStation struct {
	Window         string
	Rank           int
	TerminalNumber string
	RideCount      int
	Latitude       *float64
	Longitude      *float64
	Address        string
}

// ProximityStation is the stored proximity result for one station
type ProximityStation struct {
	StationID      string
	Near           bool
	NearestRefID   *string
	DistanceMeters *float64
	RideCount      int
}

// ProximitySummary is the stored cohort comparison of a run
type ProximitySummary struct {
	ThresholdMeters float64
	NearStations    int
	NotNearStations int
	NearMean        float64
	NotNearMean     float64
	Ratio           float64
}

// Proximity is everything stored for a run's proximity analysis
type Proximity struct {
	Summary  ProximitySummary
	Stations []ProximityStation
}

func (db *DB) ensureRun(ctx context.Context, runID string) error {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", runID).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// SavePopular replaces the top-N rows of one window. windowIndex keeps
// windows in their configured order when read back.
func (db *DB) SavePopular(ctx context.Context, runID, window string, windowIndex int, rows []PopularStation) error {
	db.LockWrite()
	defer db.UnlockWrite()

	if err := db.ensureRun(ctx, runID); err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM popular_stations WHERE run_id = ? AND window_name = ?", runID, window,
	); err != nil {
		return fmt.Errorf("failed to clear popular stations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO popular_stations (
			run_id, window_name, window_index, rank, terminal_number,
			ride_count, latitude, longitude, address
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare popular statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID, window, windowIndex, p.Rank, p.TerminalNumber,
			p.RideCount, p.Latitude, p.Longitude, p.Address,
		); err != nil {
			return fmt.Errorf("failed to insert popular station %s: %w", p.TerminalNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit popular stations: %w", err)
	}
	return nil
}

// GetPopular returns the stored top-N rows of a run. An empty window
// returns every window, in configured order.
func (db *DB) GetPopular(ctx context.Context, runID, window string) ([]PopularStation, error) {
	if err := db.ensureRun(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT window_name, rank, terminal_number, ride_count, latitude, longitude, address
		FROM popular_stations
		WHERE run_id = ?`
	args := []any{runID}
	if window != "" {
		query += " AND window_name = ?"
		args = append(args, window)
	}
	query += " ORDER BY window_index, rank"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular stations: %w", err)
	}
	defer rows.Close()

	out := []PopularStation{}
	for rows.Next() {
		var p PopularStation
		if err := rows.Scan(&p.Window, &p.Rank, &p.TerminalNumber, &p.RideCount, &p.Latitude, &p.Longitude, &p.Address); err != nil {
			return nil, fmt.Errorf("failed to scan popular station: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating popular stations: %w", err)
	}
	return out, nil
}

// SaveProximity replaces the proximity results of a run
func (db *DB) SaveProximity(ctx context.Context, runID string, summary ProximitySummary, stations []ProximityStation) error {
	db.LockWrite()
	defer db.UnlockWrite()

	if err := db.ensureRun(ctx, runID); err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM proximity_stations WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear proximity stations: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO proximity_summary (
			run_id, threshold_meters, near_stations, not_near_stations,
			near_mean, not_near_mean, ratio
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			threshold_meters = excluded.threshold_meters,
			near_stations = excluded.near_stations,
			not_near_stations = excluded.not_near_stations,
			near_mean = excluded.near_mean,
			not_near_mean = excluded.not_near_mean,
			ratio = excluded.ratio`,
		runID, summary.ThresholdMeters, summary.NearStations, summary.NotNearStations,
		summary.NearMean, summary.NotNearMean, summary.Ratio,
	); err != nil {
		return fmt.Errorf("failed to upsert proximity summary: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO proximity_stations (
			run_id, station_id, near, nearest_ref_id, distance_meters, ride_count
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare proximity statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range stations {
		near := 0
		if s.Near {
			near = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, s.StationID, near, s.NearestRefID, s.DistanceMeters, s.RideCount); err != nil {
			return fmt.Errorf("failed to insert proximity station %s: %w", s.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit proximity: %w", err)
	}
	return nil
}

// GetProximity returns the stored proximity results of a run. Near
// stations come first, each cohort ordered by distance.
func (db *DB) GetProximity(ctx context.Context, runID string) (*Proximity, error) {
	if err := db.ensureRun(ctx, runID); err != nil {
		return nil, err
	}

	p := &Proximity{Stations: []ProximityStation{}}
	err := db.conn.QueryRowContext(ctx, `
		SELECT threshold_meters, near_stations, not_near_stations, near_mean, not_near_mean, ratio
		FROM proximity_summary WHERE run_id = ?`, runID,
	).Scan(
		&p.Summary.ThresholdMeters,
		&p.Summary.NearStations,
		&p.Summary.NotNearStations,
		&p.Summary.NearMean,
		&p.Summary.NotNearMean,
		&p.Summary.Ratio,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProximity
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query proximity summary: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT station_id, near, nearest_ref_id, distance_meters, ride_count
		FROM proximity_stations
		WHERE run_id = ?
		ORDER BY near DESC, distance_meters IS NULL, distance_meters, station_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proximity stations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ProximityStation
		var near int
		if err := rows.Scan(&s.StationID, &near, &s.NearestRefID, &s.DistanceMeters, &s.RideCount); err != nil {
			return nil, fmt.Errorf("failed to scan proximity station: %w", err)
		}
		s.Near = near == 1
		p.Stations = append(p.Stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proximity stations: %w", err)
	}
	return p, nil
}
