package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolookc/transport-map/internal/models"
)

func TestBuildReferenceOrdersTripStopsBySequence(t *testing.T) {
	ref := BuildReference(
		[]models.Route{{ID: 7}},
		[]models.Trip{{ID: "t1", RouteID: 7}},
		[]models.Stop{{ID: 1}, {ID: 2}, {ID: 3}},
		[]models.StopTime{
			{TripID: "t1", StopID: 3, StopSequence: 30},
			{TripID: "t1", StopID: 1, StopSequence: 10},
			{TripID: "t1", StopID: 2, StopSequence: 20},
		},
	)

	require.Contains(t, ref.TripStops, "t1")
	assert.Equal(t, []int64{1, 2, 3}, ref.TripStops["t1"])
	assert.Equal(t, int64(7), ref.Trips["t1"].RouteID)
}

func TestSwapReferenceLeavesOldSnapshotIntact(t *testing.T) {
	eng := NewEngine()
	old := eng.Reference()
	assert.Empty(t, old.Routes)

	eng.SwapReference(BuildReference(
		[]models.Route{{ID: 7, ShortName: "7"}},
		nil, nil, nil,
	))

	// Readers holding the old snapshot still see a consistent view.
	assert.Empty(t, old.Routes)
	assert.Len(t, eng.Reference().Routes, 1)
}

func TestContainmentSet(t *testing.T) {
	eng := NewEngine()

	assert.False(t, eng.Inside("bus-1", 42))
	eng.SetInside("bus-1", 42)
	assert.True(t, eng.Inside("bus-1", 42))
	assert.False(t, eng.Inside("bus-1", 43))
	assert.False(t, eng.Inside("bus-2", 42))
	assert.Equal(t, 1, eng.ContainedCount())

	// setting twice is idempotent
	eng.SetInside("bus-1", 42)
	assert.Equal(t, 1, eng.ContainedCount())

	eng.ClearInside("bus-1", 42)
	assert.False(t, eng.Inside("bus-1", 42))
	assert.Zero(t, eng.ContainedCount())
}

func TestVehiclesCacheReplacedWholesale(t *testing.T) {
	eng := NewEngine()

	_, _, ok := eng.Vehicles()
	assert.False(t, ok)

	t1 := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	eng.SetVehicles([]models.VehiclePosition{{ID: "bus-1"}, {ID: "bus-2"}}, t1)

	vehicles, fetchedAt, ok := eng.Vehicles()
	require.True(t, ok)
	assert.Len(t, vehicles, 2)
	assert.Equal(t, t1, fetchedAt)

	t2 := t1.Add(15 * time.Second)
	eng.SetVehicles([]models.VehiclePosition{{ID: "bus-3"}}, t2)
	vehicles, fetchedAt, ok = eng.Vehicles()
	require.True(t, ok)
	assert.Len(t, vehicles, 1)
	assert.Equal(t, "bus-3", vehicles[0].ID)
	assert.Equal(t, t2, fetchedAt)
}
