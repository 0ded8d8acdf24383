package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = errors.New("run not found")

// Run statuses
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// NewRun describes the inputs of a run being started
type NewRun struct {
	DataDir         string
	FileLimit       int
	TopN            int
	ThresholdMeters float64
	StartedAt       time.Time
}

// RunTotals are the loader and join counts recorded when a run finishes
type RunTotals struct {
	FilesLoaded  int
	RidesLoaded  int
	RidesDropped int
}

// Run is a stored analysis run
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      *time.Time
	Status          string
	DataDir         string
	FileLimit       int
	TopN            int
	ThresholdMeters float64
	FilesLoaded     int
	RidesLoaded     int
	RidesDropped    int
	ErrorMessage    *string
	Windows         []string
}

// CreateRun inserts a run in the running state and returns its id
func (db *DB) CreateRun(ctx context.Context, r NewRun) (string, error) {
	runID := uuid.New().String()
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	db.LockWrite()
	defer db.UnlockWrite()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at_utc, status, data_dir, file_limit, top_n, threshold_meters)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, formatTime(r.StartedAt), StatusRunning, r.DataDir, r.FileLimit, r.TopN, r.ThresholdMeters,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// FinishRun marks a run complete and records its totals
func (db *DB) FinishRun(ctx context.Context, runID string, totals RunTotals) error {
	return db.closeRun(ctx, runID, StatusComplete, totals, nil)
}

// FailRun marks a run failed with the error that stopped it
func (db *DB) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := runErr.Error()
	return db.closeRun(ctx, runID, StatusFailed, RunTotals{}, &msg)
}

func (db *DB) closeRun(ctx context.Context, runID, status string, totals RunTotals, errMsg *string) error {
	db.LockWrite()
	defer db.UnlockWrite()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET
			finished_at_utc = ?,
			status = ?,
			files_loaded = ?,
			rides_loaded = ?,
			rides_dropped = ?,
			error_message = ?
		WHERE run_id = ?`,
		formatTime(time.Now()), status, totals.FilesLoaded, totals.RidesLoaded, totals.RidesDropped, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `
	run_id, started_at_utc, finished_at_utc, status, data_dir, file_limit,
	top_n, threshold_meters, files_loaded, rides_loaded, rides_dropped, error_message`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var startedStr string
	var finishedStr *string
	err := row.Scan(
		&r.ID,
		&startedStr,
		&finishedStr,
		&r.Status,
		&r.DataDir,
		&r.FileLimit,
		&r.TopN,
		&r.ThresholdMeters,
		&r.FilesLoaded,
		&r.RidesLoaded,
		&r.RidesDropped,
		&r.ErrorMessage,
	)
	if err != nil {
		return r, err
	}
	if t := parseTimeString(&startedStr); t != nil {
		r.StartedAt = *t
	}
	r.FinishedAt = parseTimeString(finishedStr)
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT" + runColumns + " FROM runs ORDER BY started_at_utc DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with the names of its windows
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT"+runColumns+" FROM runs WHERE run_id = ?", runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT window_name FROM popular_stations
		WHERE run_id = ?
		GROUP BY window_name
		ORDER BY MIN(window_index)`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run windows: %w", err)
	}
	defer rows.Close()

	r.Windows = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		r.Windows = append(r.Windows, name)
	}
	return &r, rows.Err()
}

// PruneRuns deletes all but the keep most recent runs and their results
func (db *DB) PruneRuns(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}

	db.LockWrite()
	defer db.UnlockWrite()

	stale := `SELECT run_id FROM runs ORDER BY started_at_utc DESC, rowid DESC LIMIT -1 OFFSET ?`
	queries := []struct {
		name  string
		query string
	}{
		{"popular_stations", "DELETE FROM popular_stations WHERE run_id IN (" + stale + ")"},
		{"proximity_stations", "DELETE FROM proximity_stations WHERE run_id IN (" + stale + ")"},
		{"proximity_summary", "DELETE FROM proximity_summary WHERE run_id IN (" + stale + ")"},
		{"runs", "DELETE FROM runs WHERE run_id IN (" + stale + ")"},
	}

	totalDeleted := 0
	for _, q := range queries {
		result, err := db.conn.ExecContext(ctx, q.query, keep)
		if err != nil {
			return fmt.Errorf("failed to prune %s: %w", q.name, err)
		}
		rows, _ := result.RowsAffected()
		totalDeleted += int(rows)
	}

	if totalDeleted > 0 {
		log.Printf("Cleanup: deleted %d records beyond the %d most recent runs", totalDeleted, keep)
	}
	return nil
}
