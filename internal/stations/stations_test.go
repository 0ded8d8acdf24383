package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

const locationsCSV = `X,Y,OBJECTID,ID,ADDRESS,TERMINAL_NUMBER,LATITUDE,LONGITUDE,INSTALLED,NUMBER_OF_BIKES
-77.0322,38.9086,1,1,Thomas Circle ,31241,38.9086,-77.0322,YES,15
-77.0437,38.9059,2,2,Dupont Circle,31200,38.9101,-77.0444,YES,19
-77.0500,38.9000,3,3,Duplicate,31200,1.0,1.0,YES,1
`

func writeLocations(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Capital_Bike_Share_Locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(locationsCSV), 0644))
	return path
}

func TestLoad(t *testing.T) {
	idx, err := Load(writeLocations(t))
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())

	s, ok := idx.Lookup("31241")
	require.True(t, ok)
	assert.Equal(t, "Thomas Circle", s.Address)
	assert.InDelta(t, 38.9086, s.Latitude, 1e-9)
	assert.InDelta(t, -77.0322, s.Longitude, 1e-9)

	// first entry wins on duplicate terminals
	s, ok = idx.Lookup("31200")
	require.True(t, ok)
	assert.Equal(t, "Dupont Circle", s.Address)

	assert.Equal(t, []string{"31241", "31200"}, []string{idx.All()[0].TerminalNumber, idx.All()[1].TerminalNumber})
}

func TestLoad_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("ADDRESS,LATITUDE\nfoo,1\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLookupTrimsKeys(t *testing.T) {
	idx := NewIndex([]Station{{TerminalNumber: " 31000 ", Address: "Eads St & 15th St S "}})

	s, ok := idx.Lookup("31000 ")
	require.True(t, ok)
	assert.Equal(t, "Eads St & 15th St S", s.Address)
	assert.Equal(t, "Eads St & 15th St S", idx.Address("31000"))
	assert.Equal(t, "", idx.Address("99999"))
}

func TestEnrich(t *testing.T) {
	idx := NewIndex([]Station{
		{TerminalNumber: "A", Address: "Alpha", Latitude: 1, Longitude: 2},
		{TerminalNumber: "B", Address: "Bravo", Latitude: 3, Longitude: 4},
	})

	rides := []trips.Ride{
		{StartStation: "A", EndStation: "B"},
		{StartStation: "X", EndStation: "A"},
		{StartStation: "B", EndStation: "Z"},
		{StartStation: "X", EndStation: "B"},
		{StartStation: "Y", EndStation: "B"},
	}

	result := Enrich(rides, idx)

	require.Len(t, result.Rides, 2)
	assert.Equal(t, 3, result.Dropped)
	assert.Equal(t, []string{"X", "Y"}, result.Unmatched)

	first := result.Rides[0]
	require.NotNil(t, first.StartLocation)
	require.NotNil(t, first.EndLocation)
	assert.Equal(t, "Alpha", first.StartLocation.Address)
	assert.Equal(t, "Bravo", first.EndLocation.Address)

	second := result.Rides[1]
	assert.Equal(t, "Bravo", second.StartLocation.Address)
	assert.Nil(t, second.EndLocation)

	// inputs untouched
	assert.Nil(t, rides[0].StartLocation)
}

func TestLoad_BlankCoordinates(t *testing.T) {
	tests := map[string]string{
		"both blank":     "TERMINAL_NUMBER,LATITUDE,LONGITUDE,ADDRESS\n31241,38.9086,-77.0322,Thomas Circle\n31000,,,Nowhere\n",
		"longitude only": "TERMINAL_NUMBER,LATITUDE,LONGITUDE,ADDRESS\n31000,38.9,,Nowhere\n",
		"spaces":         "TERMINAL_NUMBER,LATITUDE,LONGITUDE,ADDRESS\n31000, , ,Nowhere\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "locations.csv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			idx, err := Load(path)
			require.Error(t, err)
			assert.Nil(t, idx)
			assert.Contains(t, err.Error(), "31000")
		})
	}
}
