package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseybackes/galvanize-capstone-one/internal/popularity"
	"github.com/caseybackes/galvanize-capstone-one/internal/proximity"
	"github.com/caseybackes/galvanize-capstone-one/internal/stations"
	"github.com/caseybackes/galvanize-capstone-one/internal/storage"
	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

var (
	locA = &trips.Location{Latitude: 38.90, Longitude: -77.03, Address: "Alpha"}
	locB = &trips.Location{Latitude: 38.91, Longitude: -77.04, Address: "Bravo"}
	locC = &trips.Location{Latitude: 38.92, Longitude: -77.05, Address: "Charlie"}
)

func sampleTop() []popularity.StationPopularity {
	return []popularity.StationPopularity{
		{Rank: 1, TerminalNumber: "A", RideCount: 3, Location: locA, Address: "Alpha"},
		{Rank: 2, TerminalNumber: "X", RideCount: 2},
	}
}

func sampleRides() []trips.Ride {
	return []trips.Ride{
		{StartStation: "A", EndStation: "B", StartLocation: locA, EndLocation: locB},
		{StartStation: "A", EndStation: "B", StartLocation: locA, EndLocation: locB},
		{StartStation: "A", EndStation: "Z", StartLocation: locA},
		{StartStation: "C", EndStation: "A", StartLocation: locC, EndLocation: locA},
		{StartStation: "A", EndStation: "C", StartLocation: locA, EndLocation: locC},
	}
}

func featuresOfKind(fc FeatureCollection, kind string) []Feature {
	var out []Feature
	for _, f := range fc.Features {
		if f.Properties["kind"] == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestBuildGeoMap(t *testing.T) {
	fc := BuildGeoMap(sampleTop(), sampleRides(), GeoMapOptions{
		Window:  "Morning",
		Transit: []proximity.Point{{ID: "mstn_1", Name: "Metro Center", Lat: 38.898, Lon: -77.028}},
	})

	assert.Equal(t, "FeatureCollection", fc.Type)

	popular := featuresOfKind(fc, KindPopular)
	require.Len(t, popular, 1)
	assert.Equal(t, [2]float64{-77.03, 38.90}, popular[0].Geometry.Coordinates)

	flows := featuresOfKind(fc, KindFlow)
	require.Len(t, flows, 2)
	assert.Equal(t, "flow-A-B", flows[0].ID)
	assert.Equal(t, 2, flows[0].Properties["rides"])
	assert.Equal(t, "LineString", flows[0].Geometry.Type)
	assert.Equal(t, "flow-A-C", flows[1].ID)

	assert.Len(t, featuresOfKind(fc, KindTransit), 1)
}

func TestBuildGeoMap_Hardstop(t *testing.T) {
	fc := BuildGeoMap(sampleTop(), sampleRides(), GeoMapOptions{Hardstop: 1})

	flows := featuresOfKind(fc, KindFlow)
	require.Len(t, flows, 1)
	assert.Equal(t, 1, flows[0].Properties["rides"])
}

func TestBuildGeoMap_TopOnly(t *testing.T) {
	top := []popularity.StationPopularity{
		{Rank: 1, TerminalNumber: "C", RideCount: 5, Location: locC},
		{Rank: 2, TerminalNumber: "A", RideCount: 4, Location: locA},
	}
	fc := BuildGeoMap(top, sampleRides(), GeoMapOptions{TopOnly: true})

	assert.Len(t, featuresOfKind(fc, KindPopular), 1)
	flows := featuresOfKind(fc, KindFlow)
	require.Len(t, flows, 1)
	assert.Equal(t, "flow-C-A", flows[0].ID)
}

func TestWriteGeoMapIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps", "morning.geojson")
	data, err := WriteGeoMap(path, BuildGeoMap(sampleTop(), sampleRides(), GeoMapOptions{}))
	require.NoError(t, err)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(onDisk, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.Len(t, decoded.Features, 3)
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest("run-1")
	m.Add("maps/z.geojson", "geojson", []byte("b"))
	m.Add("maps/a.geojson", "geojson", []byte("a"))
	m.Viewport = ComputeViewport([]stations.Station{
		{Latitude: 38.8, Longitude: -77.1},
		{Latitude: 39.0, Longitude: -76.9},
	})
	require.NoError(t, m.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)

	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "maps/a.geojson", got.Files[0].Path)
	// sha256("a")
	assert.Equal(t, "ca978112ca1bbdcafac231b39a23dc4da786eff8147c4e72b9807785afee48bb", got.Files[0].Checksum)
	require.NotNil(t, got.Viewport)
	assert.InDelta(t, 38.9, got.Viewport.Center.Lat, 1e-9)
	assert.InDelta(t, -77.0, got.Viewport.Center.Lng, 1e-9)

	assert.Nil(t, ComputeViewport(nil))
}

func TestPopularityRecords(t *testing.T) {
	tops := map[string][]popularity.StationPopularity{
		"Morning": sampleTop(),
		"Evening": {{Rank: 1, TerminalNumber: "B", RideCount: 9, Location: locB}},
	}
	recs := PopularityRecords("run-1", []string{"Morning", "Evening"}, tops)
	require.Len(t, recs, 3)

	assert.Equal(t, "Morning", recs[0].Window)
	require.NotNil(t, recs[0].Latitude)
	assert.InDelta(t, 38.90, *recs[0].Latitude, 1e-9)
	assert.Nil(t, recs[1].Latitude)
	assert.Equal(t, "Evening", recs[2].Window)
	assert.Equal(t, int64(9), recs[2].RideCount)
}

func TestWritePopularityParquet(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	conn, err := storage.Open(ctx, "exports", storage.Config{Type: "local", BaseDir: base})
	require.NoError(t, err)

	recs := PopularityRecords("run-1", []string{"Morning"}, map[string][]popularity.StationPopularity{"Morning": sampleTop()})
	data, err := WritePopularityParquet(ctx, conn, "results", "popularity/run-1.parquet", recs)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(filepath.Join(base, "results", "popularity", "run-1.parquet"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	// Parquet files start and end with the PAR1 magic
	require.Greater(t, len(onDisk), 8)
	assert.True(t, bytes.HasPrefix(onDisk, []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(onDisk, []byte("PAR1")))
}
