package gtfs

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stopsTxt = "\ufeffstop_id,stop_name,stop_lat,stop_lon,location_type,parent_station\n" +
	"STN_A01_C01,Metro Center,38.898303,-77.028099,1,\n" +
	"PF_A01_C,Metro Center Red,38.898303,-77.028099,0,STN_A01_C01\n" +
	"STN_B01,Gallery Place,38.898303,-77.021851,1,\n" +
	"BROKEN,No Coordinates,,,1,\n"

const agencyTxt = "agency_id,agency_name,agency_url\nMET,WMATA,https://wmata.com\n"

func writeFeedDir(t *testing.T, stops string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stops.txt"), []byte(stops), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agency.txt"), []byte(agencyTxt), 0644))
	return dir
}

func TestParse_Directory(t *testing.T) {
	feed, err := Parse(writeFeedDir(t, stopsTxt))
	require.NoError(t, err)

	require.Len(t, feed.Stops, 3)
	assert.Equal(t, "STN_A01_C01", feed.Stops[0].StopID)
	assert.Equal(t, "Metro Center", feed.Stops[0].StopName)
	assert.InDelta(t, 38.898303, feed.Stops[0].StopLat, 1e-9)
	assert.Equal(t, "STN_A01_C01", feed.Stops[1].ParentStation)

	require.Len(t, feed.Agency, 1)
	assert.Equal(t, "WMATA", feed.Agency[0].AgencyName)

	stations := feed.Stations()
	require.Len(t, stations, 2)
	assert.Equal(t, "STN_B01", stations[1].StopID)
}

func TestParse_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtfs.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("feed/stops.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte(stopsTxt))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	feed, err := Parse(path)
	require.NoError(t, err)
	assert.Len(t, feed.Stops, 3)
	assert.Empty(t, feed.Agency)
}

func TestParse_MissingStops(t *testing.T) {
	_, err := Parse(t.TempDir())
	assert.Error(t, err)
}

func TestStations_FallsBackToStops(t *testing.T) {
	feed := &Feed{Stops: []Stop{
		{StopID: "1", LocationType: 0},
		{StopID: "2", LocationType: 2},
		{StopID: "3", LocationType: 0},
	}}

	stations := feed.Stations()
	require.Len(t, stations, 2)
	assert.Equal(t, "1", stations[0].StopID)
	assert.Equal(t, "3", stations[1].StopID)
}
