package stations

import "github.com/caseybackes/galvanize-capstone-one/internal/trips"

// EnrichResult holds the joined rides and what the join left out
type EnrichResult struct {
	Rides []trips.Ride
	// Dropped counts rides whose start terminal is not in the index
	Dropped int
	// Unmatched lists the unknown start terminals in first-seen order
	Unmatched []string
}

// Enrich attaches station locations to rides by terminal number. A ride
// whose start terminal is unknown is excluded. The end location is
// attached when the end terminal is known and left nil otherwise.
// Input rides are not modified.
func Enrich(rides []trips.Ride, idx *Index) EnrichResult {
	result := EnrichResult{Rides: make([]trips.Ride, 0, len(rides))}
	seen := make(map[string]bool)

	for _, r := range rides {
		start, ok := idx.Lookup(r.StartStation)
		if !ok {
			result.Dropped++
			if !seen[r.StartStation] {
				seen[r.StartStation] = true
				result.Unmatched = append(result.Unmatched, r.StartStation)
			}
			continue
		}

		r.StartLocation = start.Location()
		if end, ok := idx.Lookup(r.EndStation); ok {
			r.EndLocation = end.Location()
		} else {
			r.EndLocation = nil
		}
		result.Rides = append(result.Rides, r)
	}
	return result
}
