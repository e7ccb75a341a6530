// Package detector converts raw vehicle position streams into discrete
// stop-visit events via geofencing with hysteresis.
package detector

import (
	"math"
	"time"

	"github.com/nanolookc/transport-map/internal/cache"
	"github.com/nanolookc/transport-map/internal/models"
)

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// coordinates given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Detector maintains per-(vehicle, stop) containment state and emits a
// visit exactly once per containment episode, on exit. The entry radius is
// strictly below the exit radius so GPS jitter at a boundary cannot flap
// the state.
type Detector struct {
	engine      *cache.Engine
	entryRadius float64
	exitRadius  float64
}

// New creates a detector operating on the engine's containment set.
func New(engine *cache.Engine, entryRadiusM, exitRadiusM float64) *Detector {
	return &Detector{
		engine:      engine,
		entryRadius: entryRadiusM,
		exitRadius:  exitRadiusM,
	}
}

// Detect processes one poll cycle's positions and returns the stop visits
// that completed this cycle.
//
// A vehicle only produces events when it has usable coordinates, a trip
// known to the reference snapshot, and a reported route matching that
// trip's route. Anything else is skipped silently.
func (d *Detector) Detect(positions []models.VehiclePosition, fetchedAt time.Time) []models.StopVisit {
	ref := d.engine.Reference()

	var visits []models.StopVisit
	for _, v := range positions {
		if !v.HasCoordinates() || v.TripID == "" || v.RouteID == 0 {
			continue
		}
		trip, ok := ref.Trips[v.TripID]
		if !ok || trip.RouteID != v.RouteID {
			continue
		}
		stopIDs := ref.TripStops[v.TripID]
		if len(stopIDs) == 0 {
			continue
		}

		for _, stopID := range stopIDs {
			stop, ok := ref.Stops[stopID]
			if !ok {
				continue
			}
			dist := Haversine(v.Latitude, v.Longitude, stop.Latitude, stop.Longitude)

			if d.engine.Inside(v.ID, stopID) {
				if dist > d.exitRadius {
					d.engine.ClearInside(v.ID, stopID)
					visits = append(visits, models.StopVisit{
						StopID:        stopID,
						RouteID:       v.RouteID,
						TripID:        v.TripID,
						VehicleID:     v.ID,
						ObservedAt:    v.ObservedTime(fetchedAt),
						FetchedAt:     fetchedAt,
						Latitude:      v.Latitude,
						Longitude:     v.Longitude,
						ExitDistanceM: dist,
					})
				}
			} else if dist <= d.entryRadius {
				// the visit is recorded on exit, not here
				d.engine.SetInside(v.ID, stopID)
			}
		}
	}
	return visits
}
