package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories for unknown runs or missing results
var ErrNotFound = errors.New("not found")

// Run represents a stored analysis run
type Run struct {
	ID              string     `json:"id"`
	StartedAt       time.Time  `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
	Status          string     `json:"status"`
	DataDir         string     `json:"dataDir"`
	FileLimit       int        `json:"fileLimit"`
	TopN            int        `json:"topN"`
	ThresholdMeters float64    `json:"thresholdMeters"`
	FilesLoaded     int        `json:"filesLoaded"`
	RidesLoaded     int        `json:"ridesLoaded"`
	RidesDropped    int        `json:"ridesDropped"`
	Error           *string    `json:"error,omitempty"`
	Windows         []string   `json:"windows,omitempty"`
}

// PopularStation is one entry of a window's top-N table
type PopularStation struct {
	Window         string   `json:"window"`
	Rank           int      `json:"rank"`
	TerminalNumber string   `json:"terminalNumber"`
	RideCount      int      `json:"rideCount"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Address        string   `json:"address"`
}

// ProximityStation is the proximity result for one bike station
type ProximityStation struct {
	StationID      string   `json:"stationId"`
	Near           bool     `json:"near"`
	NearestRefID   *string  `json:"nearestReferenceId"`
	DistanceMeters *float64 `json:"distanceMeters"`
	RideCount      int      `json:"rideCount"`
}

// ProximitySummary compares ride volume of near and not-near stations
type ProximitySummary struct {
	ThresholdMeters float64 `json:"thresholdMeters"`
	NearStations    int     `json:"nearStations"`
	NotNearStations int     `json:"notNearStations"`
	NearMean        float64 `json:"nearMean"`
	NotNearMean     float64 `json:"notNearMean"`
	Ratio           float64 `json:"ratio"`
}

// Proximity is the full proximity result of a run
type Proximity struct {
	Summary  ProximitySummary   `json:"summary"`
	Stations []ProximityStation `json:"stations"`
}
