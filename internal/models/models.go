package models

import (
	"time"
)

// Route represents a transit route mirrored from the provider
type Route struct {
	ID          int64  `db:"route_id" json:"id"`
	AgencyID    int64  `db:"agency_id" json:"agency_id,omitempty"`
	ShortName   string `db:"short_name" json:"short_name"`
	LongName    string `db:"long_name" json:"long_name"`
	Color       string `db:"color" json:"color,omitempty"`
	Type        int    `db:"route_type" json:"type"`
	Description string `db:"description" json:"description,omitempty"`
}

// Trip represents a single scheduled run of a route
type Trip struct {
	ID          string `db:"trip_id" json:"id"`
	RouteID     int64  `db:"route_id" json:"route_id"`
	Headsign    string `db:"headsign" json:"headsign,omitempty"`
	DirectionID int    `db:"direction_id" json:"direction_id"`
	BlockID     string `db:"block_id" json:"block_id,omitempty"`
	ShapeID     string `db:"shape_id" json:"shape_id,omitempty"`
}

// Stop represents a transit stop
type Stop struct {
	ID           int64   `db:"stop_id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Latitude     float64 `db:"lat" json:"latitude"`
	Longitude    float64 `db:"lon" json:"longitude"`
	LocationType int     `db:"location_type" json:"location_type,omitempty"`
	Code         string  `db:"code" json:"code,omitempty"`
}

// StopTime ties a stop into a trip's ordered stop sequence
type StopTime struct {
	TripID       string `db:"trip_id" json:"trip_id"`
	StopID       int64  `db:"stop_id" json:"stop_id"`
	StopSequence int    `db:"stop_sequence" json:"stop_sequence"`
}

// ShapePoint is one ordered vertex of a route shape polyline
type ShapePoint struct {
	ShapeID   string  `db:"shape_id" json:"shape_id"`
	Latitude  float64 `db:"lat" json:"latitude"`
	Longitude float64 `db:"lon" json:"longitude"`
	Sequence  int     `db:"sequence" json:"sequence"`
}

// VehiclePosition is one vehicle's state within a single poll cycle.
// Timestamp is the vehicle's self-reported epoch time and may be zero.
type VehiclePosition struct {
	ID                   string  `json:"id"`
	Label                string  `json:"label,omitempty"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	Timestamp            int64   `json:"timestamp,omitempty"`
	Speed                float64 `json:"speed,omitempty"`
	RouteID              int64   `json:"route_id,omitempty"`
	TripID               string  `json:"trip_id,omitempty"`
	WheelchairAccessible bool    `json:"wheelchair_accessible,omitempty"`
	BikesAllowed         bool    `json:"bikes_allowed,omitempty"`
}

// ObservedTime returns the vehicle's self-reported time, falling back to
// the poll cycle's fetch time when the vehicle did not report one.
func (v VehiclePosition) ObservedTime(fetchedAt time.Time) time.Time {
	if v.Timestamp > 0 {
		return time.Unix(v.Timestamp, 0)
	}
	return fetchedAt
}

// HasCoordinates reports whether the position carries usable coordinates.
// Null-island zeros are treated as missing data.
func (v VehiclePosition) HasCoordinates() bool {
	if v.Latitude == 0 && v.Longitude == 0 {
		return false
	}
	return v.Latitude >= -90 && v.Latitude <= 90 && v.Longitude >= -180 && v.Longitude <= 180
}

// VehicleSnapshot is the append-only persisted form of a VehiclePosition
type VehicleSnapshot struct {
	ID         int64     `json:"id"`
	VehicleID  string    `json:"vehicle_id"`
	Label      string    `json:"label,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
	Speed      float64   `json:"speed,omitempty"`
	RouteID    int64     `json:"route_id,omitempty"`
	TripID     string    `json:"trip_id,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// StopVisit is emitted once per containment episode, at the moment the
// vehicle is detected leaving the stop's geofence.
type StopVisit struct {
	ID            int64     `json:"id"`
	StopID        int64     `json:"stop_id"`
	RouteID       int64     `json:"route_id"`
	TripID        string    `json:"trip_id"`
	VehicleID     string    `json:"vehicle_id"`
	ObservedAt    time.Time `json:"observed_at"`
	FetchedAt     time.Time `json:"fetched_at"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	ExitDistanceM float64   `json:"exit_distance_m"`
}

// RouteDailyStats tracks the first and last fetch time at which any vehicle
// of a route was observed on a given calendar day.
type RouteDailyStats struct {
	Day       string    `json:"day"`
	RouteID   int64     `json:"route_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
