package popularity

import (
	"sort"
	"strings"

	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

// BikeReport summarises the usage of one bike
type BikeReport struct {
	BikeNumber   string         `json:"bikeNumber"`
	Trips        int            `json:"trips"`
	TotalSeconds int            `json:"totalSeconds"`
	Lifetime     trips.Lifetime `json:"lifetime"`
}

// TopBikes returns the n bikes with the largest summed ride duration.
// Rides without a bike number are skipped. Ties keep first-seen order.
func TopBikes(rides []trips.Ride, n int) []BikeReport {
	if n <= 0 {
		return nil
	}

	pos := make(map[string]int)
	var reports []BikeReport
	for _, r := range rides {
		bike := strings.TrimSpace(r.BikeNumber)
		if bike == "" {
			continue
		}
		i, ok := pos[bike]
		if !ok {
			i = len(reports)
			pos[bike] = i
			reports = append(reports, BikeReport{BikeNumber: bike})
		}
		reports[i].Trips++
		reports[i].TotalSeconds += r.Duration
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].TotalSeconds > reports[j].TotalSeconds
	})
	if len(reports) > n {
		reports = reports[:n]
	}
	for i := range reports {
		reports[i].Lifetime = trips.NewLifetime(reports[i].TotalSeconds)
	}
	return reports
}
