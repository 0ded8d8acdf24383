package trips

import "time"

// Ride represents one bikeshare trip from the trip history files
type Ride struct {
	StartedAt        time.Time
	EndedAt          time.Time
	StartStation     string // terminal number
	EndStation       string // terminal number
	StartStationName string
	EndStationName   string
	BikeNumber       string
	Duration         int // seconds
	MemberType       string

	// Set by the station enricher. StartLocation is always present on
	// enriched rides; EndLocation is nil when the end terminal has no
	// reference entry.
	StartLocation *Location
	EndLocation   *Location
}

// Location is the reference position of a dock
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Column names used by the Capital Bikeshare trip files. The post-2020
// exports renamed every column, so each field lists its aliases in
// preference order.
var (
	colStartDate    = []string{"Start date", "started_at", "start_time"}
	colEndDate      = []string{"End date", "ended_at", "end_time"}
	colStartStation = []string{"Start station number", "start_station_id"}
	colEndStation   = []string{"End station number", "end_station_id"}
	colStartName    = []string{"Start station", "start_station_name"}
	colEndName      = []string{"End station", "end_station_name"}
	colBike         = []string{"Bike number", "bike_number", "ride_id"}
	colDuration     = []string{"Duration", "duration"}
	colMemberType   = []string{"Member type", "member_casual"}
)

// timestampLayouts are tried in order when parsing start/end dates
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}
