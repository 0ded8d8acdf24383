package gtfs

// Feed holds the parts of a static GTFS feed used as transit reference points
type Feed struct {
	Agency []Agency
	Stops  []Stop
}

// Stop represents a stop from stops.txt
type Stop struct {
	StopID        string
	StopCode      string
	StopName      string
	StopLat       float64
	StopLon       float64
	LocationType  int // 0 = stop/platform, 1 = station
	ParentStation string
}

// Agency represents an agency from agency.txt
type Agency struct {
	AgencyID   string
	AgencyName string
	AgencyURL  string
}

// Stations returns the stops marked as stations (location_type 1). Feeds
// that do not use parent stations get every stop back.
func (f *Feed) Stations() []Stop {
	var out []Stop
	for _, s := range f.Stops {
		if s.LocationType == 1 {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		for _, s := range f.Stops {
			if s.LocationType == 0 {
				out = append(out, s)
			}
		}
	}
	return out
}
