package trips

import "fmt"

// Lifetime splits a number of seconds into days, hours, minutes and seconds
type Lifetime struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewLifetime converts a duration in seconds
func NewLifetime(seconds int) Lifetime {
	return Lifetime{
		Days:    seconds / 86400,
		Hours:   seconds % 86400 / 3600,
		Minutes: seconds % 3600 / 60,
		Seconds: seconds % 60,
	}
}

// TotalSeconds reverses NewLifetime
func (l Lifetime) TotalSeconds() int {
	return l.Days*86400 + l.Hours*3600 + l.Minutes*60 + l.Seconds
}

func (l Lifetime) String() string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", l.Days, l.Hours, l.Minutes, l.Seconds)
}
