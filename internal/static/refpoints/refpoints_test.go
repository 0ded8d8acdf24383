package refpoints

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

const metroGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"NAME": "Metro Center", "GIS_ID": "mstn_018"},
     "geometry": {"type": "Point", "coordinates": [-77.028099, 38.898303]}},
    {"type": "Feature", "properties": {"name": "Farragut North", "OBJECTID": 12},
     "geometry": {"type": "Point", "coordinates": [-77.039665, 38.903192]}},
    {"type": "Feature", "properties": {"NAME": "Red Line"},
     "geometry": {"type": "LineString", "coordinates": [[-77.0, 38.9], [-77.1, 38.95]]}}
  ]
}`

func sampleFeed() *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("1"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle:  &gtfs.VehicleDescriptor{Id: proto.String("7001"), Label: proto.String("Red 101")},
					Position: &gtfs.Position{Latitude: proto.Float32(38.9), Longitude: proto.Float32(-77.03)},
				},
			},
			{
				Id: proto.String("2"),
				Vehicle: &gtfs.VehiclePosition{
					StopId:   proto.String("A01"),
					Position: &gtfs.Position{Latitude: proto.Float32(38.8), Longitude: proto.Float32(-77.0)},
				},
			},
			{Id: proto.String("3"), Vehicle: &gtfs.VehiclePosition{}},
			{Id: proto.String("4")},
		},
	}
}

func writeFeed(t *testing.T) string {
	t.Helper()
	data, err := proto.Marshal(sampleFeed())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "vehicles.pb")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Metro_Stations_in_DC.geojson")
	require.NoError(t, os.WriteFile(path, []byte(metroGeoJSON), 0644))

	points, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "mstn_018", points[0].ID)
	assert.Equal(t, "Metro Center", points[0].Name)
	assert.InDelta(t, 38.898303, points[0].Lat, 1e-9)
	assert.InDelta(t, -77.028099, points[0].Lon, 1e-9)

	assert.Equal(t, "12", points[1].ID)
	assert.Equal(t, "Farragut North", points[1].Name)
}

func TestLoadFeed(t *testing.T) {
	points, err := Load(context.Background(), writeFeed(t))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "7001", points[0].ID)
	assert.Equal(t, "Red 101", points[0].Name)
	assert.InDelta(t, 38.9, points[0].Lat, 1e-5)

	assert.Equal(t, "entity:2", points[1].ID)
	assert.Equal(t, "A01", points[1].Name)
}

func TestFetchFeed(t *testing.T) {
	data, err := proto.Marshal(sampleFeed())
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vehicles" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	points, err := Load(context.Background(), srv.URL+"/vehicles")
	require.NoError(t, err)
	assert.Len(t, points, 2)

	_, err = FetchFeed(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestLoadGTFS(t *testing.T) {
	dir := t.TempDir()
	stops := "stop_id,stop_name,stop_lat,stop_lon,location_type\n" +
		"STN_A01,Metro Center,38.898303,-77.028099,1\n" +
		"PF_A01,Metro Center Platform,38.898303,-77.028099,0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stops.txt"), []byte(stops), 0644))

	points, err := Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "STN_A01", points[0].ID)
}

func TestLoad_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.shp")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := Load(context.Background(), path)
	assert.Error(t, err)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
