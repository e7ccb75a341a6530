// Package cache holds the process-wide mutable state: the static reference
// snapshot, the geofence containment set and the latest-vehicles cache.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/nanolookc/transport-map/internal/models"
)

// Reference is an immutable view of the static reference data. A refresh
// builds a fresh instance and swaps it in; readers never observe a
// half-rebuilt snapshot.
type Reference struct {
	Routes    map[int64]*models.Route
	Trips     map[string]*models.Trip
	Stops     map[int64]*models.Stop
	TripStops map[string][]int64 // ordered by stop_sequence
}

// BuildReference assembles a reference snapshot from provider data.
func BuildReference(routes []models.Route, trips []models.Trip, stops []models.Stop, stopTimes []models.StopTime) *Reference {
	ref := &Reference{
		Routes:    make(map[int64]*models.Route, len(routes)),
		Trips:     make(map[string]*models.Trip, len(trips)),
		Stops:     make(map[int64]*models.Stop, len(stops)),
		TripStops: make(map[string][]int64, len(trips)),
	}
	for i := range routes {
		ref.Routes[routes[i].ID] = &routes[i]
	}
	for i := range trips {
		ref.Trips[trips[i].ID] = &trips[i]
	}
	for i := range stops {
		ref.Stops[stops[i].ID] = &stops[i]
	}

	byTrip := make(map[string][]models.StopTime, len(trips))
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}
	for tripID, sts := range byTrip {
		sort.Slice(sts, func(i, j int) bool { return sts[i].StopSequence < sts[j].StopSequence })
		ids := make([]int64, 0, len(sts))
		for _, st := range sts {
			ids = append(ids, st.StopID)
		}
		ref.TripStops[tripID] = ids
	}
	return ref
}

type containmentKey struct {
	VehicleID string
	StopID    int64
}

// Engine owns the shared mutable state read by the detector and the API
// and written by the poll and refresh cycles.
type Engine struct {
	mu sync.RWMutex

	ref *Reference

	// (vehicle, stop) pairs currently inside the entry radius
	inside map[containmentKey]struct{}

	vehicles          []models.VehiclePosition
	vehiclesFetchedAt time.Time
	hasVehicles       bool
}

// NewEngine creates an engine with an empty reference snapshot and an
// empty containment set.
func NewEngine() *Engine {
	return &Engine{
		ref:    BuildReference(nil, nil, nil, nil),
		inside: make(map[containmentKey]struct{}),
	}
}

// Reference returns the current reference snapshot.
func (e *Engine) Reference() *Reference {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ref
}

// SwapReference atomically replaces the reference snapshot.
func (e *Engine) SwapReference(ref *Reference) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ref = ref
}

// Inside reports whether the (vehicle, stop) pair is currently contained.
func (e *Engine) Inside(vehicleID string, stopID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.inside[containmentKey{vehicleID, stopID}]
	return ok
}

// SetInside marks a (vehicle, stop) pair as contained.
func (e *Engine) SetInside(vehicleID string, stopID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inside[containmentKey{vehicleID, stopID}] = struct{}{}
}

// ClearInside marks a (vehicle, stop) pair as no longer contained.
func (e *Engine) ClearInside(vehicleID string, stopID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inside, containmentKey{vehicleID, stopID})
}

// ContainedCount returns the number of in-flight containment episodes.
func (e *Engine) ContainedCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.inside)
}

// SetVehicles replaces the latest-vehicles cache wholesale.
func (e *Engine) SetVehicles(vehicles []models.VehiclePosition, fetchedAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vehicles = vehicles
	e.vehiclesFetchedAt = fetchedAt
	e.hasVehicles = true
}

// Vehicles returns the last successfully polled cycle, if any.
func (e *Engine) Vehicles() ([]models.VehiclePosition, time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vehicles, e.vehiclesFetchedAt, e.hasVehicles
}
