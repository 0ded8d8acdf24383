// Command analyze loads bikeshare trip history, ranks stations by time of
// day and compares usage of stations near transit against the rest.
package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caseybackes/galvanize-capstone-one/internal/config"
	"github.com/caseybackes/galvanize-capstone-one/internal/report"
)

type options struct {
	barchart     bool
	geoplot      bool
	testgeo      bool
	hardstop     int
	parquet      bool
	bucket       string
	stationStats string
	weekday      time.Weekday
	keepRuns     int
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	var opts options
	flag.BoolVar(&opts.barchart, "barchart", false, "Print a stacked bar chart of the top stations per window")
	flag.BoolVar(&opts.geoplot, "geoplot", false, "Write GeoJSON maps of popular stations and ride flows")
	flag.BoolVar(&opts.testgeo, "testgeo", false, "Write GeoJSON maps for the top station of each window only")
	flag.IntVar(&opts.hardstop, "hardstop", 1000, "Maximum number of rides drawn as flows per map (0 = all)")
	flag.IntVar(&cfg.FileLimit, "dflim", cfg.FileLimit, "Number of trip files to load (0 = all)")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory of trip history files")
	flag.StringVar(&cfg.StationsFile, "stations", cfg.StationsFile, "Station locations CSV")
	flag.StringVar(&cfg.ReferenceFile, "refs", cfg.ReferenceFile, "Transit reference points (GeoJSON, GTFS zip/dir, GTFS-RT .pb or URL); empty skips proximity")
	flag.StringVar(&cfg.WindowsFile, "windows", cfg.WindowsFile, "YAML file overriding the default time windows")
	flag.IntVar(&cfg.TopN, "top", cfg.TopN, "Number of stations per window")
	flag.Float64Var(&cfg.NearThresholdMeters, "threshold", cfg.NearThresholdMeters, "Distance in meters that counts as near transit")
	flag.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Output directory for maps and the manifest")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite run store (empty disables)")
	flag.IntVar(&opts.keepRuns, "keep-runs", 0, "Prune the run store to this many runs after saving (0 = keep all)")
	flag.BoolVar(&opts.parquet, "parquet", false, "Export popular stations as Parquet to object storage")
	flag.StringVar(&opts.bucket, "bucket", "bikeshare-results", "Bucket for the Parquet export")
	flag.StringVar(&opts.stationStats, "station-stats", "", "Terminal number to print hourly statistics for")
	weekday := flag.String("weekday", "Monday", "Weekday for --station-stats")
	flag.Parse()

	wd, ok := parseWeekday(*weekday)
	if !ok {
		log.Fatalf("Invalid --weekday %q", *weekday)
	}
	opts.weekday = wd

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	report.PrintArgs(os.Stdout, []report.Arg{
		{Name: "barchart", Value: opts.barchart},
		{Name: "geoplot", Value: opts.geoplot},
		{Name: "testgeo", Value: opts.testgeo},
		{Name: "dflim", Value: cfg.FileLimit},
		{Name: "data-dir", Value: cfg.DataDir},
		{Name: "stations", Value: cfg.StationsFile},
		{Name: "refs", Value: cfg.ReferenceFile},
		{Name: "top", Value: cfg.TopN},
		{Name: "threshold", Value: cfg.NearThresholdMeters},
		{Name: "out", Value: cfg.OutputDir},
	})

	if err := run(cfg, opts); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}
