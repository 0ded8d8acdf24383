// Package export writes analysis results as files: GeoJSON maps, Parquet
// tables and a manifest of what was written.
package export

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caseybackes/galvanize-capstone-one/internal/popularity"
	"github.com/caseybackes/galvanize-capstone-one/internal/proximity"
	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

// FeatureCollection is a GeoJSON FeatureCollection
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature with a point or line geometry
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds either Point coordinates ([lon, lat]) or LineString
// coordinates ([[lon, lat], ...])
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Feature kinds, carried in the "kind" property
const (
	KindPopular = "popular_station"
	KindFlow    = "flow"
	KindTransit = "transit"
)

// GeoMapOptions controls BuildGeoMap
type GeoMapOptions struct {
	Window string
	// Hardstop caps the number of rides turned into flow lines; 0 means all
	Hardstop int
	// TopOnly maps only the busiest station of the window
	TopOnly bool
	// Transit points are added as features when set
	Transit []proximity.Point
}

func pointGeometry(lat, lon float64) Geometry {
	return Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// BuildGeoMap maps the popular stations of a window and the flows of rides
// leaving them. Rides from one start station to one end station are merged
// into a single line carrying the ride count. Rides whose end station has no
// location are skipped.
func BuildGeoMap(top []popularity.StationPopularity, rides []trips.Ride, opts GeoMapOptions) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}

	if opts.TopOnly && len(top) > 1 {
		top = top[:1]
	}

	terminals := make(map[string]bool, len(top))
	for _, p := range top {
		terminals[p.TerminalNumber] = true
		if p.Location == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   "station-" + p.TerminalNumber,
			Properties: map[string]any{
				"kind":            KindPopular,
				"window":          opts.Window,
				"rank":            p.Rank,
				"terminal_number": p.TerminalNumber,
				"address":         p.Address,
				"rides":           p.RideCount,
			},
			Geometry: pointGeometry(p.Location.Latitude, p.Location.Longitude),
		})
	}

	type flowKey struct{ from, to string }
	type flow struct {
		start, end *trips.Location
		rides      int
	}
	flows := make(map[flowKey]*flow)
	var order []flowKey

	for i, r := range rides {
		if opts.Hardstop > 0 && i >= opts.Hardstop {
			break
		}
		start := strings.TrimSpace(r.StartStation)
		if !terminals[start] || r.StartLocation == nil || r.EndLocation == nil {
			continue
		}
		key := flowKey{from: start, to: strings.TrimSpace(r.EndStation)}
		f, ok := flows[key]
		if !ok {
			f = &flow{start: r.StartLocation, end: r.EndLocation}
			flows[key] = f
			order = append(order, key)
		}
		f.rides++
	}

	for _, key := range order {
		f := flows[key]
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   fmt.Sprintf("flow-%s-%s", key.from, key.to),
			Properties: map[string]any{
				"kind":   KindFlow,
				"window": opts.Window,
				"from":   key.from,
				"to":     key.to,
				"rides":  f.rides,
			},
			Geometry: Geometry{Type: "LineString", Coordinates: [][2]float64{
				{f.start.Longitude, f.start.Latitude},
				{f.end.Longitude, f.end.Latitude},
			}},
		})
	}

	for _, p := range opts.Transit {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			ID:   "transit-" + p.ID,
			Properties: map[string]any{
				"kind": KindTransit,
				"name": p.Name,
			},
			Geometry: pointGeometry(p.Lat, p.Lon),
		})
	}

	return fc
}

// WriteGeoMap writes a FeatureCollection and returns the bytes written
func WriteGeoMap(path string, fc FeatureCollection) ([]byte, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := writeJSON(path, fc)
	if err != nil {
		return nil, fmt.Errorf("failed to write GeoJSON %s: %w", path, err)
	}
	log.Printf("Export: wrote %d features to %s", len(fc.Features), path)
	return data, nil
}

func writeJSON(path string, v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return data, os.WriteFile(path, data, 0644)
}
