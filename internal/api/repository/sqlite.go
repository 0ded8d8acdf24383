// Package repository adapts the run store to the API models.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/caseybackes/galvanize-capstone-one/internal/api/models"
	"github.com/caseybackes/galvanize-capstone-one/internal/db"
)

// SQLiteRunRepository reads stored runs from the SQLite run store
type SQLiteRunRepository struct {
	db *db.DB
}

// NewSQLiteRunRepository creates a new SQLiteRunRepository
func NewSQLiteRunRepository(store *db.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: store}
}

func notFound(err error) error {
	if errors.Is(err, db.ErrRunNotFound) || errors.Is(err, db.ErrNoProximity) {
		return fmt.Errorf("%w: %v", models.ErrNotFound, err)
	}
	return err
}

// Ping checks the database connection
func (r *SQLiteRunRepository) Ping(ctx context.Context) error {
	return r.db.Conn().PingContext(ctx)
}

func toRun(run db.Run) models.Run {
	return models.Run{
		ID:              run.ID,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		Status:          run.Status,
		DataDir:         run.DataDir,
		FileLimit:       run.FileLimit,
		TopN:            run.TopN,
		ThresholdMeters: run.ThresholdMeters,
		FilesLoaded:     run.FilesLoaded,
		RidesLoaded:     run.RidesLoaded,
		RidesDropped:    run.RidesDropped,
		Error:           run.ErrorMessage,
		Windows:         run.Windows,
	}
}

// ListRuns returns the most recent runs first
func (r *SQLiteRunRepository) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	runs, err := r.db.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Run, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRun(run))
	}
	return out, nil
}

// GetRun returns a single run
func (r *SQLiteRunRepository) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	run, err := r.db.GetRun(ctx, runID)
	if err != nil {
		return nil, notFound(err)
	}
	m := toRun(*run)
	return &m, nil
}

// GetPopular returns the top-N rows of a run
func (r *SQLiteRunRepository) GetPopular(ctx context.Context, runID, window string) ([]models.PopularStation, error) {
	rows, err := r.db.GetPopular(ctx, runID, window)
	if err != nil {
		return nil, notFound(err)
	}
	out := make([]models.PopularStation, 0, len(rows))
	for _, p := range rows {
		out = append(out, models.PopularStation{
			Window:         p.Window,
			Rank:           p.Rank,
			TerminalNumber: p.TerminalNumber,
			RideCount:      p.RideCount,
			Latitude:       p.Latitude,
			Longitude:      p.Longitude,
			Address:        p.Address,
		})
	}
	return out, nil
}

// GetProximity returns the proximity results of a run
func (r *SQLiteRunRepository) GetProximity(ctx context.Context, runID string) (*models.Proximity, error) {
	p, err := r.db.GetProximity(ctx, runID)
	if err != nil {
		return nil, notFound(err)
	}

	out := &models.Proximity{
		Summary: models.ProximitySummary{
			ThresholdMeters: p.Summary.ThresholdMeters,
			NearStations:    p.Summary.NearStations,
			NotNearStations: p.Summary.NotNearStations,
			NearMean:        p.Summary.NearMean,
			NotNearMean:     p.Summary.NotNearMean,
			Ratio:           p.Summary.Ratio,
		},
		Stations: make([]models.ProximityStation, 0, len(p.Stations)),
	}
	for _, s := range p.Stations {
		out.Stations = append(out.Stations, models.ProximityStation{
			StationID:      s.StationID,
			Near:           s.Near,
			NearestRefID:   s.NearestRefID,
			DistanceMeters: s.DistanceMeters,
			RideCount:      s.RideCount,
		})
	}
	return out, nil
}
