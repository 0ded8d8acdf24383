// Package window buckets rides into named time-of-day windows.
package window

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

var (
	// ErrNotTimeOfDay is returned when a bound carries a date, i.e. a full
	// timestamp was passed where a time of day was expected.
	ErrNotTimeOfDay = errors.New("bound must be a time of day, not a timestamp")
	// ErrInvalidTimeOfDay is returned for malformed or out-of-range values
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	// ErrEmptyWindow is returned when the lower bound is after the upper bound
	ErrEmptyWindow = errors.New("lower bound is after upper bound")
	// ErrUnknownColumn is returned when filtering on a column that holds no time
	ErrUnknownColumn = errors.New("unknown time column")
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time as seconds since midnight
type TimeOfDay int

// At builds a TimeOfDay from hours, minutes and seconds
func At(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// Of returns the time of day of a timestamp, ignoring its date
func Of(t time.Time) TimeOfDay {
	return At(t.Hour(), t.Minute(), t.Second())
}

// Valid reports whether t lies within a single day
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < secondsPerDay
}

// Hour returns the hour component (0-23)
func (t TimeOfDay) Hour() int {
	return int(t) / 3600
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

// MarshalText implements encoding.TextMarshaler
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Values that carry a date
// ("2018-01-01 04:00:00", RFC 3339) fail with ErrNotTimeOfDay.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if strings.ContainsAny(raw, "-/T ") {
		if _, err := trips.ParseTimestamp(raw); err == nil {
			return 0, fmt.Errorf("%q: %w", raw, ErrNotTimeOfDay)
		}
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidTimeOfDay)
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidTimeOfDay)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("%q: %w", raw, ErrInvalidTimeOfDay)
		}
		values[i] = v
	}
	return At(values[0], values[1], values[2]), nil
}

// Column selects which ride timestamp a filter looks at
type Column int

const (
	StartTime Column = iota
	EndTime
)

// ParseColumn maps a column name to a Column
func ParseColumn(name string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "start", "start time", "start date", "started_at":
		return StartTime, nil
	case "end", "end time", "end date", "ended_at":
		return EndTime, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
}

func (c Column) String() string {
	switch c {
	case StartTime:
		return "Start time"
	case EndTime:
		return "End time"
	}
	return "unknown"
}

func (c Column) value(r trips.Ride) (TimeOfDay, bool) {
	switch c {
	case StartTime:
		return Of(r.StartedAt), true
	case EndTime:
		if r.EndedAt.IsZero() {
			return 0, false
		}
		return Of(r.EndedAt), true
	}
	return 0, false
}

// Filter returns the rides whose time of day in column lies within
// [lower, upper]. Rides exactly at either bound are included. Bad bounds
// or an unknown column are reported as errors.
func Filter(rides []trips.Ride, column Column, lower, upper TimeOfDay) ([]trips.Ride, error) {
	w := Window{Name: "custom", Start: lower, End: upper, IncludeEnd: true}
	return w.Apply(rides, column)
}
