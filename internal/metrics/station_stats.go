package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

// HourStat summarises rides-per-hour samples for one weekday and hour.
// Each sample is the ride count on one calendar date that had at least one
// ride at the station.
type HourStat struct {
	Hour     int     `json:"hour"`
	Samples  int     `json:"samples"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
}

// StationStats holds hourly usage samples for one station
type StationStats struct {
	Terminal string
	// counts[date][hour] = rides started at the station in that hour
	counts map[string]*[24]int
	// weekday of each date in counts
	weekdays map[string]time.Weekday
}

// NewStationStats groups the rides that start at terminal by calendar date
// and start hour.
func NewStationStats(rides []trips.Ride, terminal string) *StationStats {
	terminal = strings.TrimSpace(terminal)
	s := &StationStats{
		Terminal: terminal,
		counts:   make(map[string]*[24]int),
		weekdays: make(map[string]time.Weekday),
	}
	for _, r := range rides {
		if strings.TrimSpace(r.StartStation) != terminal {
			continue
		}
		date := r.StartedAt.Format("2006-01-02")
		h, ok := s.counts[date]
		if !ok {
			h = &[24]int{}
			s.counts[date] = h
			s.weekdays[date] = r.StartedAt.Weekday()
		}
		h[r.StartedAt.Hour()]++
	}
	return s
}

// Days returns the number of distinct dates with rides
func (s *StationStats) Days() int {
	return len(s.counts)
}

// Samples returns the per-date ride counts for a weekday and hour, in date
// order. Every date with rides on that weekday contributes a sample, zero
// when the hour itself had none.
func (s *StationStats) Samples(weekday time.Weekday, hour int) []int {
	dates := make([]string, 0, len(s.counts))
	for d := range s.counts {
		if s.weekdays[d] == weekday {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	out := make([]int, 0, len(dates))
	for _, d := range dates {
		out = append(out, s.counts[d][hour])
	}
	return out
}

// Info returns 24 rows, one per hour, for the given weekday. Hours without
// samples report zeros.
func (s *StationStats) Info(weekday time.Weekday) []HourStat {
	out := make([]HourStat, 24)
	for hour := 0; hour < 24; hour++ {
		samples := s.Samples(weekday, hour)

		var w WelfordState
		for _, v := range samples {
			w.Update(float64(v))
		}
		out[hour] = HourStat{
			Hour:     hour,
			Samples:  w.Count,
			Mean:     w.Mean,
			Median:   median(samples),
			Variance: w.Variance(),
		}
	}
	return out
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
