package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caseybackes/galvanize-capstone-one/internal/config"
	"github.com/caseybackes/galvanize-capstone-one/internal/db"
	"github.com/caseybackes/galvanize-capstone-one/internal/export"
	"github.com/caseybackes/galvanize-capstone-one/internal/metrics"
	"github.com/caseybackes/galvanize-capstone-one/internal/popularity"
	"github.com/caseybackes/galvanize-capstone-one/internal/proximity"
	"github.com/caseybackes/galvanize-capstone-one/internal/report"
	"github.com/caseybackes/galvanize-capstone-one/internal/stations"
	"github.com/caseybackes/galvanize-capstone-one/internal/static/refpoints"
	"github.com/caseybackes/galvanize-capstone-one/internal/storage"
	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
	"github.com/caseybackes/galvanize-capstone-one/internal/window"
)

// windowResult is what one time window produced
type windowResult struct {
	window window.Window
	rides  []trips.Ride
	top    []popularity.StationPopularity
	counts map[string]int
}

func run(cfg *config.Config, opts options) (err error) {
	ctx := context.Background()
	rec := metrics.NewRecorder()

	var store *db.DB
	runID := "unsaved"
	if cfg.DatabasePath != "" {
		store, err = db.Connect(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		runID, err = store.CreateRun(ctx, db.NewRun{
			DataDir:         cfg.DataDir,
			FileLimit:       cfg.FileLimit,
			TopN:            cfg.TopN,
			ThresholdMeters: cfg.NearThresholdMeters,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err == nil {
				return
			}
			if ferr := store.FailRun(ctx, runID, err); ferr != nil {
				log.Printf("Warning: failed to mark run %s as failed: %v", runID, ferr)
			}
		}()
	}

	// Load
	done := rec.Stage("load")
	table, files, err := trips.LoadDir(cfg.DataDir, cfg.FileLimit)
	if err != nil {
		return err
	}
	rides, err := trips.FromTable(table)
	if err != nil {
		return err
	}
	done()
	rec.Loaded(files, len(rides))

	// Enrich
	done = rec.Stage("enrich")
	idx, err := stations.Load(cfg.StationsFile)
	if err != nil {
		return err
	}
	enriched := stations.Enrich(rides, idx)
	done()
	rec.Dropped(enriched.Dropped)
	if enriched.Dropped > 0 {
		log.Printf("Warning: dropped %d rides with unknown start stations", enriched.Dropped)
	}

	// Windows
	windows := window.Defaults()
	if cfg.WindowsFile != "" {
		if windows, err = window.LoadFile(cfg.WindowsFile); err != nil {
			return err
		}
	}

	done = rec.Stage("aggregate")
	results := make([]windowResult, 0, len(windows))
	for _, w := range windows {
		subset, err := w.Apply(enriched.Rides, window.StartTime)
		if err != nil {
			return fmt.Errorf("failed to apply window %s: %w", w.Name, err)
		}
		results = append(results, windowResult{
			window: w,
			rides:  subset,
			top:    popularity.TopN(subset, cfg.TopN, idx),
			counts: popularity.CountMap(subset),
		})
		rec.WindowRides(w.Name, len(subset))
	}
	done()

	summary := report.Summary{
		Files:     files,
		Rows:      table.Nrow(),
		Rides:     len(enriched.Rides),
		Dropped:   enriched.Dropped,
		Unmatched: enriched.Unmatched,
		Stations:  idx.Len(),
	}
	for _, r := range results {
		summary.WindowCounts = append(summary.WindowCounts, report.WindowCount{Window: r.window.Name, Rides: len(r.rides)})
	}
	report.PrintSummary(os.Stdout, summary)

	names := make([]string, len(results))
	tops := make(map[string][]popularity.StationPopularity, len(results))
	counts := make(map[string]map[string]int, len(results))
	for i, r := range results {
		names[i] = r.window.Name
		tops[r.window.Name] = r.top
		counts[r.window.Name] = r.counts

		report.PrintPopular(os.Stdout, r.window.Name, r.top)
		terminals := popularity.Terminals(r.top)
		report.PrintHistograms(os.Stdout, r.window.Name, terminals, popularity.HourlyHistograms(r.rides, terminals))

		if store != nil {
			if err := store.SavePopular(ctx, runID, r.window.Name, i, popularRows(r)); err != nil {
				return err
			}
		}
	}

	if opts.barchart {
		report.PrintStackedBars(os.Stdout, names, counts, tops)
	}

	report.PrintBikeReports(os.Stdout, popularity.TopBikes(enriched.Rides, cfg.TopN))

	// Proximity
	var refs []proximity.Point
	if cfg.ReferenceFile != "" {
		done = rec.Stage("proximity")
		refs, err = refpoints.Load(ctx, cfg.ReferenceFile)
		if err != nil {
			return err
		}
		res, err := proximity.Analyze(proximity.StationPoints(idx), refs, cfg.NearThresholdMeters)
		if err != nil {
			return err
		}
		rideCounts := popularity.CountMap(enriched.Rides)
		cmp := proximity.Compare(res, rideCounts)
		done()
		rec.NearStations(len(res.Near))

		refNames := make(map[string]string, len(refs))
		for _, p := range refs {
			refNames[p.ID] = p.Name
		}
		report.PrintProximity(os.Stdout, res, cmp, refNames)

		if store != nil {
			if err := store.SaveProximity(ctx, runID, proximitySummary(res, cmp), proximityRows(res, rideCounts)); err != nil {
				return err
			}
		}
	}

	if opts.stationStats != "" {
		stats := metrics.NewStationStats(enriched.Rides, opts.stationStats)
		log.Printf("Stats: station %s has rides on %d dates", opts.stationStats, stats.Days())
		report.PrintStationStats(os.Stdout, opts.stationStats, opts.weekday, stats.Info(opts.weekday))
	}

	// Exports
	if opts.geoplot || opts.testgeo {
		done = rec.Stage("geomap")
		if err := writeMaps(cfg.OutputDir, runID, results, refs, idx, opts); err != nil {
			return err
		}
		done()
	}

	if opts.parquet {
		done = rec.Stage("parquet")
		if err := writeParquet(ctx, cfg, opts.bucket, runID, names, tops); err != nil {
			return err
		}
		done()
	}

	if store != nil {
		if err := store.FinishRun(ctx, runID, db.RunTotals{
			FilesLoaded:  files,
			RidesLoaded:  len(rides),
			RidesDropped: enriched.Dropped,
		}); err != nil {
			return err
		}
		log.Printf("Store: saved run %s", runID)

		if opts.keepRuns > 0 {
			if err := store.PruneRuns(ctx, opts.keepRuns); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return nil
}

func popularRows(r windowResult) []db.PopularStation {
	rows := make([]db.PopularStation, 0, len(r.top))
	for _, p := range r.top {
		row := db.PopularStation{
			Window:         r.window.Name,
			Rank:           p.Rank,
			TerminalNumber: p.TerminalNumber,
			RideCount:      p.RideCount,
			Address:        p.Address,
		}
		if p.Location != nil {
			lat, lon := p.Location.Latitude, p.Location.Longitude
			row.Latitude = &lat
			row.Longitude = &lon
		}
		rows = append(rows, row)
	}
	return rows
}

func proximitySummary(res *proximity.Result, cmp proximity.CohortComparison) db.ProximitySummary {
	return db.ProximitySummary{
		ThresholdMeters: res.ThresholdMeters,
		NearStations:    cmp.NearStations,
		NotNearStations: cmp.NotNearStations,
		NearMean:        cmp.NearMean,
		NotNearMean:     cmp.NotNearMean,
		Ratio:           cmp.Ratio,
	}
}

func proximityRows(res *proximity.Result, rideCounts map[string]int) []db.ProximityStation {
	rows := make([]db.ProximityStation, 0, len(res.Near)+len(res.NotNear))
	add := func(id string, near bool) {
		row := db.ProximityStation{StationID: id, Near: near, RideCount: rideCounts[id]}
		if n, ok := res.Nearest[id]; ok {
			ref, dist := n.ReferenceID, n.DistanceMeters
			row.NearestRefID = &ref
			row.DistanceMeters = &dist
		}
		rows = append(rows, row)
	}
	for _, id := range res.Near {
		add(id, true)
	}
	for _, id := range res.NotNear {
		add(id, false)
	}
	return rows
}

func writeMaps(outDir, runID string, results []windowResult, refs []proximity.Point, idx *stations.Index, opts options) error {
	manifest := export.NewManifest(runID)
	manifest.Viewport = export.ComputeViewport(idx.All())

	for _, r := range results {
		fc := export.BuildGeoMap(r.top, r.rides, export.GeoMapOptions{
			Window:   r.window.Name,
			Hardstop: opts.hardstop,
			TopOnly:  opts.testgeo,
			Transit:  refs,
		})
		name := "geomap_" + strings.ToLower(r.window.Name) + ".geojson"
		data, err := export.WriteGeoMap(filepath.Join(outDir, name), fc)
		if err != nil {
			return err
		}
		manifest.Add(name, "geomap", data)
	}
	return manifest.Write(outDir)
}

func writeParquet(ctx context.Context, cfg *config.Config, bucket, runID string, windows []string, tops map[string][]popularity.StationPopularity) error {
	conn, err := storage.Open(ctx, "results", storage.Config{
		Type:            cfg.StorageType,
		BucketName:      bucket,
		CredentialsFile: cfg.GCSCredentialsFile,
		BaseDir:         cfg.StorageBaseDir,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	records := export.PopularityRecords(runID, windows, tops)
	_, err = export.WritePopularityParquet(ctx, conn, bucket, "popularity/"+runID+".parquet", records)
	return err
}
