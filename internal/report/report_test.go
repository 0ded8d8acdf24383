package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/caseybackes/galvanize-capstone-one/internal/metrics"
	"github.com/caseybackes/galvanize-capstone-one/internal/popularity"
	"github.com/caseybackes/galvanize-capstone-one/internal/proximity"
	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

func TestPrintArgs(t *testing.T) {
	var buf bytes.Buffer
	PrintArgs(&buf, []Arg{{"barchart", true}, {"dflim", 2}})

	out := buf.String()
	assert.Contains(t, out, "--barchart")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "--dflim")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, Summary{
		Files: 2, Rows: 100, Rides: 97, Dropped: 3, Stations: 500,
		Unmatched:    []string{"31999"},
		WindowCounts: []WindowCount{{"Morning", 20}},
	})

	out := buf.String()
	assert.Contains(t, out, "Loaded 100 rows from 2 files")
	assert.Contains(t, out, "dropped 3")
	assert.Contains(t, out, "31999")
	assert.Contains(t, out, "Morning")
}

func TestPrintPopular(t *testing.T) {
	var buf bytes.Buffer
	PrintPopular(&buf, "Morning", []popularity.StationPopularity{
		{Rank: 1, TerminalNumber: "31200", RideCount: 50, Location: &trips.Location{Latitude: 38.9101, Longitude: -77.0444}, Address: "Dupont Circle"},
		{Rank: 2, TerminalNumber: "31999", RideCount: 10},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Top 2 stations, Morning")
	assert.Contains(t, lines[2], "38.910100")
	assert.Contains(t, lines[2], "Dupont Circle")
	assert.Contains(t, lines[3], "-")
}

func TestPrintStackedBars(t *testing.T) {
	windows := []string{"Morning", "Afternoon", "Evening"}
	counts := map[string]map[string]int{
		"Morning":   {"A": 10, "B": 1},
		"Afternoon": {"A": 5, "B": 20},
		"Evening":   {"A": 5, "B": 4},
	}
	tops := map[string][]popularity.StationPopularity{
		"Morning":   {{TerminalNumber: "A"}},
		"Afternoon": {{TerminalNumber: "B"}, {TerminalNumber: "A"}},
	}

	var buf bytes.Buffer
	PrintStackedBars(&buf, windows, counts, tops)
	out := buf.String()

	assert.Contains(t, out, "M=Morning A=Afternoon E=Evening")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	// B has 25 rides total, A has 20: B first and full width
	assert.True(t, strings.HasPrefix(lines[1], "B"))
	assert.Equal(t, barWidth, strings.Count(lines[1], "M")+strings.Count(lines[1], "A")+strings.Count(lines[1], "E"))
	assert.Contains(t, lines[2], strings.Repeat("M", 20))
}

func TestPrintHistograms(t *testing.T) {
	var h [24]int
	h[8] = 4
	h[17] = 2

	var buf bytes.Buffer
	PrintHistograms(&buf, "Morning", []string{"A"}, map[string][24]int{"A": h})
	out := buf.String()

	assert.Contains(t, out, "08:00 "+strings.Repeat("*", 20))
	assert.Contains(t, out, "17:00 "+strings.Repeat("*", 10))
	assert.NotContains(t, out, "09:00")
}

func TestPrintBikeReports(t *testing.T) {
	var buf bytes.Buffer
	PrintBikeReports(&buf, []popularity.BikeReport{{BikeNumber: "W00001", Trips: 3, Lifetime: trips.NewLifetime(90061)}})
	assert.Contains(t, buf.String(), "1d 01h 01m 01s")
}

func TestPrintProximity(t *testing.T) {
	res := &proximity.Result{
		ThresholdMeters: 200,
		Near:            []string{"A"},
		NotNear:         []string{"B"},
		Matches:         map[string][]proximity.Match{"m1": {{StationID: "A", DistanceMeters: 120}}, "m2": {}},
	}
	cmp := proximity.Compare(res, map[string]int{"A": 30, "B": 10})

	var buf bytes.Buffer
	PrintProximity(&buf, res, cmp, map[string]string{"m1": "Metro Center"})
	out := buf.String()

	assert.Contains(t, out, "200 m (0.12 mi)")
	assert.Contains(t, out, "Metro Center")
	assert.NotContains(t, out, "m2")
	assert.Contains(t, out, "3.00x")
}

func TestPrintStationStats(t *testing.T) {
	rows := make([]metrics.HourStat, 24)
	for i := range rows {
		rows[i].Hour = i
	}
	rows[8] = metrics.HourStat{Hour: 8, Samples: 3, Mean: 6, Median: 5, Variance: 8.67}

	var buf bytes.Buffer
	PrintStationStats(&buf, "31200", time.Monday, rows)
	out := buf.String()

	assert.Contains(t, out, "Station 31200, Monday")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[2], "6.00")
}
