// Package metrics holds run statistics: per-station usage samples and the
// Prometheus counters written at the end of an analysis run.
package metrics

import (
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects the metrics of one analysis run on its own registry
type Recorder struct {
	registry *prometheus.Registry

	filesLoaded  prometheus.Counter
	ridesLoaded  prometheus.Counter
	ridesDropped prometheus.Counter
	windowRides  *prometheus.GaugeVec
	nearStations prometheus.Gauge
	stageSeconds *prometheus.HistogramVec
}

// NewRecorder creates and registers the run metrics
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bikeshare",
			Name:      "files_loaded_total",
			Help:      "Trip history files read by the loader.",
		}),
		ridesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bikeshare",
			Name:      "rides_loaded_total",
			Help:      "Rides parsed from the trip history files.",
		}),
		ridesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bikeshare",
			Name:      "rides_dropped_total",
			Help:      "Rides dropped because the start station is unknown.",
		}),
		windowRides: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bikeshare",
			Name:      "window_rides",
			Help:      "Rides per time-of-day window.",
		}, []string{"window"}),
		nearStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bikeshare",
			Name:      "near_transit_stations",
			Help:      "Stations within the proximity threshold of a reference point.",
		}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bikeshare",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}

	r.registry.MustRegister(
		r.filesLoaded,
		r.ridesLoaded,
		r.ridesDropped,
		r.windowRides,
		r.nearStations,
		r.stageSeconds,
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Loaded records the loader output
func (r *Recorder) Loaded(files, rides int) {
	r.filesLoaded.Add(float64(files))
	r.ridesLoaded.Add(float64(rides))
}

// Dropped records rides excluded by the station join
func (r *Recorder) Dropped(n int) {
	r.ridesDropped.Add(float64(n))
}

// WindowRides records the size of a window's subset
func (r *Recorder) WindowRides(window string, n int) {
	r.windowRides.WithLabelValues(window).Set(float64(n))
}

// NearStations records the size of the near cohort
func (r *Recorder) NearStations(n int) {
	r.nearStations.Set(float64(n))
}

// Stage starts timing a pipeline stage; call the returned func when done
func (r *Recorder) Stage(name string) func() {
	start := time.Now()
	return func() {
		r.stageSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	log.Printf("Metrics: wrote %s", path)
	return nil
}
