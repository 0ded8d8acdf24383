// Package proximity partitions stations by their distance to transit
// reference points.
package proximity

import (
	"fmt"
	"sort"

	"github.com/caseybackes/galvanize-capstone-one/internal/stations"
)

// Point is a named position. Stations and transit reference points are both
// carried as Points.
type Point struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Match is a station within the threshold of a reference point
type Match struct {
	StationID      string  `json:"stationId"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Nearest is the closest reference point to a station
type Nearest struct {
	ReferenceID    string  `json:"referenceId"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Result is the near / not-near partition for one threshold
type Result struct {
	ThresholdMeters float64 `json:"thresholdMeters"`
	// Near and NotNear hold station ids in input order
	Near    []string `json:"near"`
	NotNear []string `json:"notNear"`
	// Matches maps a reference id to stations within the threshold, closest first
	Matches map[string][]Match `json:"matches"`
	// Nearest holds, per station, the closest reference point regardless of threshold
	Nearest map[string]Nearest `json:"nearest"`
	// Skipped lists station and reference ids with unusable coordinates
	Skipped []string `json:"skipped,omitempty"`
}

// StationPoints converts the station table to Points keyed by terminal number
func StationPoints(idx *stations.Index) []Point {
	all := idx.All()
	out := make([]Point, len(all))
	for i, s := range all {
		out[i] = Point{ID: s.TerminalNumber, Name: s.Address, Lat: s.Latitude, Lon: s.Longitude}
	}
	return out
}

// Analyze computes every station-to-reference distance. A station is near
// when its distance to any reference point is at most thresholdMeters.
// Points with invalid coordinates take no part in distance checks and are
// listed in Skipped; skipped stations count as not near.
func Analyze(stationPts, refs []Point, thresholdMeters float64) (*Result, error) {
	if thresholdMeters < 0 {
		return nil, fmt.Errorf("threshold must not be negative, got %g", thresholdMeters)
	}

	result := &Result{
		ThresholdMeters: thresholdMeters,
		Near:            []string{},
		NotNear:         []string{},
		Matches:         make(map[string][]Match),
		Nearest:         make(map[string]Nearest),
	}

	validRefs := make([]Point, 0, len(refs))
	for _, r := range refs {
		if !isValidCoordinate(r.Lat, r.Lon) {
			result.Skipped = append(result.Skipped, r.ID)
			continue
		}
		validRefs = append(validRefs, r)
		result.Matches[r.ID] = []Match{}
	}

	for _, s := range stationPts {
		if !isValidCoordinate(s.Lat, s.Lon) {
			result.Skipped = append(result.Skipped, s.ID)
			result.NotNear = append(result.NotNear, s.ID)
			continue
		}

		near := false
		for _, r := range validRefs {
			d := Haversine(s.Lat, s.Lon, r.Lat, r.Lon)
			if cur, ok := result.Nearest[s.ID]; !ok || d < cur.DistanceMeters {
				result.Nearest[s.ID] = Nearest{ReferenceID: r.ID, DistanceMeters: d}
			}
			if d <= thresholdMeters {
				near = true
				result.Matches[r.ID] = append(result.Matches[r.ID], Match{StationID: s.ID, DistanceMeters: d})
			}
		}

		if near {
			result.Near = append(result.Near, s.ID)
		} else {
			result.NotNear = append(result.NotNear, s.ID)
		}
	}

	for id := range result.Matches {
		m := result.Matches[id]
		sort.SliceStable(m, func(i, j int) bool {
			return m[i].DistanceMeters < m[j].DistanceMeters
		})
	}
	return result, nil
}

// CohortComparison compares ride volume at near and not-near stations
type CohortComparison struct {
	NearStations    int     `json:"nearStations"`
	NotNearStations int     `json:"notNearStations"`
	NearRides       int     `json:"nearRides"`
	NotNearRides    int     `json:"notNearRides"`
	NearMean        float64 `json:"nearMean"`
	NotNearMean     float64 `json:"notNearMean"`
	// Ratio is NearMean / NotNearMean, 0 when the not-near mean is 0
	Ratio float64 `json:"ratio"`
}

// Compare averages rideCounts (rides per start terminal) over each cohort.
// Stations absent from rideCounts count as zero rides.
func Compare(result *Result, rideCounts map[string]int) CohortComparison {
	c := CohortComparison{
		NearStations:    len(result.Near),
		NotNearStations: len(result.NotNear),
	}
	for _, id := range result.Near {
		c.NearRides += rideCounts[id]
	}
	for _, id := range result.NotNear {
		c.NotNearRides += rideCounts[id]
	}
	if c.NearStations > 0 {
		c.NearMean = float64(c.NearRides) / float64(c.NearStations)
	}
	if c.NotNearStations > 0 {
		c.NotNearMean = float64(c.NotNearRides) / float64(c.NotNearStations)
	}
	if c.NotNearMean > 0 {
		c.Ratio = c.NearMean / c.NotNearMean
	}
	return c
}
