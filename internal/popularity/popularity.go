// Package popularity ranks origin stations and bikes by usage.
package popularity

import (
	"sort"
	"strings"

	"github.com/caseybackes/galvanize-capstone-one/internal/stations"
	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

// StationPopularity is one row of a top-N table
type StationPopularity struct {
	Rank           int             `json:"rank"`
	TerminalNumber string          `json:"terminalNumber"`
	RideCount      int             `json:"rideCount"`
	Location       *trips.Location `json:"location,omitempty"` // nil when the terminal has no reference entry
	Address        string          `json:"address"`
}

// StationCount is a ride count for one start terminal
type StationCount struct {
	TerminalNumber string
	Count          int
}

// CountByStation counts rides per start terminal. The result is ordered by
// first appearance in rides.
func CountByStation(rides []trips.Ride) []StationCount {
	pos := make(map[string]int)
	var counts []StationCount
	for _, r := range rides {
		key := strings.TrimSpace(r.StartStation)
		i, ok := pos[key]
		if !ok {
			i = len(counts)
			pos[key] = i
			counts = append(counts, StationCount{TerminalNumber: key})
		}
		counts[i].Count++
	}
	return counts
}

// CountMap returns CountByStation as a map
func CountMap(rides []trips.Ride) map[string]int {
	out := make(map[string]int)
	for _, c := range CountByStation(rides) {
		out[c.TerminalNumber] = c.Count
	}
	return out
}

// TopN returns the n busiest start terminals, most rides first. Ties keep the
// order in which the terminals first appear. Station metadata is attached
// when idx knows the terminal; idx may be nil.
func TopN(rides []trips.Ride, n int, idx *stations.Index) []StationPopularity {
	if n <= 0 {
		return nil
	}

	counts := CountByStation(rides)
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}

	out := make([]StationPopularity, 0, len(counts))
	for i, c := range counts {
		p := StationPopularity{
			Rank:           i + 1,
			TerminalNumber: c.TerminalNumber,
			RideCount:      c.Count,
		}
		if idx != nil {
			if s, ok := idx.Lookup(c.TerminalNumber); ok {
				p.Location = s.Location()
				p.Address = s.Address
			}
		}
		out = append(out, p)
	}
	return out
}

// Terminals returns the terminal numbers of a top-N table in rank order
func Terminals(top []StationPopularity) []string {
	out := make([]string, len(top))
	for i, p := range top {
		out[i] = p.TerminalNumber
	}
	return out
}

// HourlyHistograms counts rides per start hour for each of the given
// terminals. Terminals with no rides map to an all-zero histogram.
func HourlyHistograms(rides []trips.Ride, terminals []string) map[string][24]int {
	out := make(map[string][24]int, len(terminals))
	for _, t := range terminals {
		out[strings.TrimSpace(t)] = [24]int{}
	}
	for _, r := range rides {
		key := strings.TrimSpace(r.StartStation)
		h, ok := out[key]
		if !ok {
			continue
		}
		h[r.StartedAt.Hour()]++
		out[key] = h
	}
	return out
}
